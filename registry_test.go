package tinybasic

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func nopNative(vm *VM, c *Call) error {

	return nil
}

func TestRegisterValidation(t *testing.T) {

	reg := NewRegistry()

	if err := reg.RegisterFunction("TWICE", 1, true, nopNative); err != nil {
		t.Fatalf("TWICE: %v", err)
	}

	tests := []struct {
		name  string
		arity int
		fn    NativeFunc
	}{
		{"", 0, nopNative},
		{"twice", 1, nopNative},
		{"1UP", 1, nopNative},
		{"A-B", 1, nopNative},
		{"PRINT", 1, nopNative},
		{"THEN", 1, nopNative},
		{"NEG", -1, nopNative},
		{"WIDE", maxArity + 1, nopNative},
		{"NOFN", 1, nil},
		{"TWICE", 1, nopNative},
	}

	for _, tt := range tests {
		if err := reg.RegisterFunction(tt.name, tt.arity, true, tt.fn); err == nil {
			t.Errorf("RegisterFunction(%q, %d) succeeded", tt.name, tt.arity)
		}
	}

	//
	// Commands and functions live in separate tables
	//

	if err := reg.RegisterCommand("TWICE", 0, false, nopNative); err != nil {
		t.Errorf("command TWICE: %v", err)
	}

	if got := len(reg.signature()); got != 2 {
		t.Errorf("signature has %d entries, want 2", got)
	}
}

func TestSignature(t *testing.T) {

	reg := NewRegistry()

	_ = reg.RegisterCommand("BEEP", 1, false, nopNative)
	_ = reg.RegisterFunction("MAX2", 2, true, nopNative)

	want := []string{"C:BEEP/1", "F:MAX2/2"}
	got := reg.signature()

	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("signature() = %v, want %v", got, want)
	}
}

func TestHostFunctions(t *testing.T) {

	it := NewBasic()
	reg := it.Registry()

	var beeps []float64

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	must(reg.RegisterFunction("TWICE", 1, true, func(vm *VM, c *Call) error {
		return c.Return(2 * c.Arg(0))
	}))
	must(reg.RegisterFunction("DIFF", 2, true, func(vm *VM, c *Call) error {
		return c.Return(c.Arg(0) - c.Arg(1))
	}))
	must(reg.RegisterFunction("ZERO", 0, false, nopNative))
	must(reg.RegisterCommand("BEEP", 2, false, func(vm *VM, c *Call) error {
		if c.NumArgs() != 2 || c.Name() != "BEEP" {
			t.Errorf("BEEP saw %d args, name %q", c.NumArgs(), c.Name())
		}
		beeps = append(beeps, c.Arg(0), c.Arg(1), c.Arg(2))
		return nil
	}))

	out, err := runLines(t, it,
		"10 PRINT TWICE(21)",
		"20 PRINT DIFF(10,3)",
		"30 PRINT ZERO+1",
		"40 BEEP 1+1, TWICE(2)",
		"50 CALL TWICE(5)",
		"60 PRINT DIFF(TWICE(4), DIFF(9,8))",
		"RUN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "42\n7\n1\n7\n" {
		t.Errorf("output = %q", out)
	}

	if len(beeps) != 3 || beeps[0] != 2 || beeps[1] != 4 || beeps[2] != 0 {
		t.Errorf("BEEP args = %v", beeps)
	}

	if d := it.VM().Depth(); d != 0 {
		t.Errorf("stack depth %d after run", d)
	}
}

func TestNativeFaults(t *testing.T) {

	boom := errors.New("boom")

	tests := []struct {
		name string
		fn   NativeFunc
		msg  string
	}{
		{"error", func(vm *VM, c *Call) error { return boom }, "boom"},
		{"nan", func(vm *VM, c *Call) error { return c.Return(math.NaN()) }, EFLOATINGERROR},
		{"push", func(vm *VM, c *Call) error { return vm.push(1) }, "BAD: " + EBADBYTECODE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := NewBasic()

			if err := it.Registry().RegisterFunction("BAD", 1, true, tt.fn); err != nil {
				t.Fatal(err)
			}

			_, err := runLines(t, it, "10 PRINT BAD(1)", "RUN")

			var rf *RuntimeFault
			if !errors.As(err, &rf) {
				t.Fatalf("error = %v, want *RuntimeFault", err)
			}

			if rf.Msg != tt.msg || rf.Line != 10 {
				t.Errorf("fault = %q at %d, want %q at 10", rf.Msg, rf.Line, tt.msg)
			}
		})
	}
}

func TestCommandCannotReturn(t *testing.T) {

	it := NewBasic()

	err := it.Registry().RegisterCommand("GIVE", 0, false, func(vm *VM, c *Call) error {
		return c.Return(1)
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := runLines(t, it, "GIVE"); err == nil {
		t.Errorf("command was allowed to return a value")
	}
}

func TestCommandOutput(t *testing.T) {

	it := NewBasic()

	err := it.Registry().RegisterCommand("HELLO", 0, false, func(vm *VM, c *Call) error {
		_, err := vm.Output().Write([]byte("hello\n"))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	it.SetOutput(&out)

	if err := it.ParseLine("IF 1=1 THEN HELLO"); err != nil {
		t.Fatal(err)
	}

	if out.String() != "hello\n" {
		t.Errorf("output = %q", out.String())
	}
}
