package tinybasic

import (
	"strings"
	"testing"
)

func TestDisassembleLine(t *testing.T) {

	it := NewExtended()

	for _, line := range []string{
		"10 LET A=1+2",
		"20 IF TOTAL>=3 THEN PRINT SQR(TOTAL)",
	} {
		if err := it.ParseLine(line); err != nil {
			t.Fatal(err)
		}
	}

	got, ok := it.Disassemble(10)
	if !ok {
		t.Fatal("line 10 missing")
	}

	want := "0000 SET_VAR A\n" +
		"0002   ADD\n" +
		"0003     PUSH 1\n" +
		"0005     PUSH 2\n"
	if got != want {
		t.Errorf("line 10:\n%s\nwant:\n%s", got, want)
	}

	got, _ = it.Disassemble(20)

	want = "0000 GE\n" +
		"0001   GET_VAR TOTAL\n" +
		"0003   PUSH 3\n" +
		"0005 JUMP_FALSE +6\n" +
		"0007 PRINT\n" +
		"0008   CALL_FUNC SQR/1\n" +
		"0011     GET_VAR TOTAL\n"
	if got != want {
		t.Errorf("line 20:\n%s\nwant:\n%s", got, want)
	}

	if _, ok := it.Disassemble(30); ok {
		t.Errorf("line 30 should not exist")
	}
}

func TestDisassembleWithoutNames(t *testing.T) {

	got := Disassemble(cat(emit(OpInput, 3), emit(OpCallProc, 0, 4)), nil, nil)

	want := "0000 INPUT #3\n0002 CALL_PROC native#4/0\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestDisassembleMalformed(t *testing.T) {

	tests := []Code{
		{Word(OpAdd)},
		{Word(OpPush)},
		{Word(numOpcodes + 3)},
		cat(emit(OpPrint), emit(OpCallFunc, 200, 0)),
	}

	for _, code := range tests {
		got := Disassemble(code, nil, nil)
		if got == "" {
			t.Errorf("%v: no output", code)
		}
		if !strings.Contains(got, "<truncated>") && !strings.Contains(got, "UNKNOWN") &&
			!strings.Contains(got, "/200") {
			t.Errorf("%v: malformed code not flagged:\n%s", code, got)
		}
	}
}
