package tinybasic

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the interpreter settings read from tinybasic.toml.
type Config struct {
	Dialect      string `toml:"dialect"`
	StackLimit   int    `toml:"stack-limit"`
	Prompt       string `toml:"prompt"`
	InputPrompt  string `toml:"input-prompt"`
	ClearScreen  bool   `toml:"clear-screen"`
	TraceExec    bool   `toml:"trace-exec"`
	TraceDump    bool   `toml:"trace-dump"`
	Stats        bool   `toml:"stats"`
	LogVerbosity int    `toml:"log-verbosity"`
	LogFile      string `toml:"log-file"`
}

const ConfigFileName = "tinybasic.toml"

func DefaultConfig() *Config {

	return &Config{
		Dialect:     DialectBasic,
		StackLimit:  defaultStackLimit,
		Prompt:      defaultPrompt,
		InputPrompt: executePrompt,
	}
}

// LoadConfig reads a TOML configuration file.  Keys that are absent
// keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	return cfg, nil
}

func ParseConfig(data []byte) (*Config, error) {

	cfg := DefaultConfig()

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, err
	}

	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("unknown key %q", undec[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {

	switch cfg.Dialect {
	case DialectBasic, DialectExtended:
	default:
		return fmt.Errorf("unknown dialect %q", cfg.Dialect)
	}

	if cfg.StackLimit < 1 {
		return fmt.Errorf("stack-limit must be positive, not %d", cfg.StackLimit)
	}

	if cfg.LogVerbosity < -4 {
		return fmt.Errorf("invalid log-verbosity %d", cfg.LogVerbosity)
	}

	return nil
}

func (cfg *Config) Extended() bool {

	return cfg.Dialect == DialectExtended
}
