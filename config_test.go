package tinybasic

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {

	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Extended() || cfg.StackLimit != defaultStackLimit || cfg.InputPrompt != executePrompt {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestParseConfig(t *testing.T) {

	data := `
dialect = "extended"
stack-limit = 64
prompt = "ok "
input-prompt = "?? "
clear-screen = true
trace-exec = true
stats = true
log-verbosity = 2
log-file = "basic.log"
`

	cfg, err := ParseConfig([]byte(data))
	if err != nil {
		t.Fatal(err)
	}

	want := Config{
		Dialect:      DialectExtended,
		StackLimit:   64,
		Prompt:       "ok ",
		InputPrompt:  "?? ",
		ClearScreen:  true,
		TraceExec:    true,
		Stats:        true,
		LogVerbosity: 2,
		LogFile:      "basic.log",
	}

	if *cfg != want {
		t.Errorf("ParseConfig() = %+v\nwant %+v", *cfg, want)
	}
}

func TestParseConfigPartial(t *testing.T) {

	cfg, err := ParseConfig([]byte(`stats = true`))
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Stats || cfg.Dialect != DialectBasic || cfg.Prompt != defaultPrompt {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestParseConfigErrors(t *testing.T) {

	tests := []struct {
		data string
		want string
	}{
		{`dialect = "cobol"`, "unknown dialect"},
		{`stack-limit = 0`, "stack-limit"},
		{`log-verbosity = -9`, "log-verbosity"},
		{`colour = true`, "unknown key"},
		{`dialect = `, ""},
		{`stack-limit = "big"`, ""},
	}

	for _, tt := range tests {
		_, err := ParseConfig([]byte(tt.data))
		if err == nil {
			t.Errorf("%q: expected an error", tt.data)
			continue
		}

		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%q: error %q does not mention %q", tt.data, err, tt.want)
		}
	}
}

func TestLoadConfig(t *testing.T) {

	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	if err := os.WriteFile(path, []byte("dialect = \"extended\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Extended() {
		t.Errorf("dialect = %q", cfg.Dialect)
	}

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: %v, want fs.ErrNotExist", err)
	}
}
