package tinybasic

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestCompileLayout(t *testing.T) {

	it := NewBasic()

	getA := emit(OpGetVar, 0)

	tests := []struct {
		src  string
		want Code
	}{
		{"LET A=1+2", cat(emit(OpSetVar, 0), emit(OpAdd), pushValue(1), pushValue(2))},
		{"LET B = 7", cat(emit(OpSetVar, 1), pushValue(7))},
		{"PRINT 1-2-3", cat(emit(OpPrint), emit(OpSub), emit(OpSub), pushValue(1), pushValue(2), pushValue(3))},
		{"PRINT 8/2", cat(emit(OpPrint), emit(OpDiv), pushValue(8), pushValue(2))},
		{"PRINT 2*(3+4)", cat(emit(OpPrint), emit(OpMul), pushValue(2), emit(OpAdd), pushValue(3), pushValue(4))},
		{"PRINT 1+2*3", cat(emit(OpPrint), emit(OpAdd), pushValue(1), emit(OpMul), pushValue(2), pushValue(3))},
		{"PRINT ((A))", cat(emit(OpPrint), getA)},
		{"INPUT Z", emit(OpInput, 25)},
		{"GOTO 10", cat(emit(OpGoto), pushValue(10))},
		{"GOSUB A*10", cat(emit(OpGosub), emit(OpMul), getA, pushValue(10))},
		{"RETURN", emit(OpReturn)},
		{"END", emit(OpEnd)},
		{"CLEAR", emit(OpClear)},
		{"REM anything 123 ++ (", emit(OpNop)},
		{"IF A>1 THEN PRINT A", cat(emit(OpGt), getA, pushValue(1), emit(OpJumpFalse, 3), emit(OpPrint), getA)},
		{"IF A=1 THEN END", cat(emit(OpEq), getA, pushValue(1), emit(OpJumpFalse, 1), emit(OpEnd))},
		{"IF A<>1 THEN END", cat(emit(OpNe), getA, pushValue(1), emit(OpJumpFalse, 1), emit(OpEnd))},
		{"IF A < 1 THEN END", cat(emit(OpLt), getA, pushValue(1), emit(OpJumpFalse, 1), emit(OpEnd))},
		{"IF A>=1 THEN END", cat(emit(OpGe), getA, pushValue(1), emit(OpJumpFalse, 1), emit(OpEnd))},
		{"IF A<=1 THEN END", cat(emit(OpLe), getA, pushValue(1), emit(OpJumpFalse, 1), emit(OpEnd))},
		{"IF A>1 THEN IF A<5 THEN END", cat(emit(OpGt), getA, pushValue(1), emit(OpJumpFalse, 8),
			emit(OpLt), getA, pushValue(5), emit(OpJumpFalse, 1), emit(OpEnd))},
	}

	for _, tt := range tests {
		got, err := it.Compile(tt.src)
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}

		if !got.Equal(tt.want) {
			t.Errorf("%s:\n got %v\nwant %v", tt.src, got, tt.want)
		}

		if err := got.Validate(it.Registry()); err != nil {
			t.Errorf("%s: Validate: %v", tt.src, err)
		}
	}
}

func TestCompileRejects(t *testing.T) {

	it := NewBasic()

	for _, src := range []string{
		"PRINT",
		"PRINT 1+",
		"PRINT (1+2",
		"PRINT 1 2",
		"PRINT A B",
		"LET A=",
		"LET 1=2",
		"LET A 1",
		"LET AB=1",
		"GOTO",
		"INPUT 3",
		"IF A THEN END",
		"IF A=1 END",
		"IF A=1 THEN",
		"print 1",
		"FOO",
		"RETURN 5",
		"END END",
		"LIST",
		"RUN",
		"LET PRINT=1",
		"LET THEN=1",
	} {
		if code, err := it.Compile(src); err == nil {
			t.Errorf("%q compiled to %v", src, code)
		}
	}
}

func TestCompileErrorMessages(t *testing.T) {

	it := NewBasic()

	tests := []struct {
		src string
		msg string
	}{
		{"PRINT 1+", ESYNTAX},
		{"FROB", EUNKNOWNKEYWORD},
		{"PRINT " + strings.Repeat("9", 400), EILLEGALNUMBER},
	}

	for _, tt := range tests {
		_, err := it.Compile(tt.src)

		var ce *CompileError
		if !errors.As(err, &ce) {
			t.Errorf("%.20s: error = %v", tt.src, err)
			continue
		}

		if ce.Msg != tt.msg {
			t.Errorf("%.20s: Msg = %q, want %q", tt.src, ce.Msg, tt.msg)
		}
	}
}

func TestKeywordAgainstDigits(t *testing.T) {

	it := NewBasic()

	tests := map[string]string{
		"GOTO20":             "GOTO 20",
		"GOSUB100":           "GOSUB 100",
		"PRINT5":             "PRINT 5",
		"PRINT5*2":           "PRINT 5*2",
		"IF A=1 THEN GOTO20": "IF A=1 THEN GOTO 20",
	}

	for src, spaced := range tests {
		got, err := it.Compile(src)
		if err != nil {
			t.Errorf("%s: %v", src, err)
			continue
		}

		want, err := it.Compile(spaced)
		if err != nil {
			t.Fatalf("%s: %v", spaced, err)
		}

		if !got.Equal(want) {
			t.Errorf("%s:\n got %v\nwant %v", src, got, want)
		}
	}

	_, err := it.Compile("FROB2")

	var ce *CompileError
	if !errors.As(err, &ce) || ce.Msg != EUNKNOWNKEYWORD {
		t.Errorf("FROB2: error = %v", err)
	}

	if _, err := it.Compile("END1"); err == nil {
		t.Errorf("END1 compiled")
	}

	//
	// A long variable name ending in digits is still one name
	//

	ext := NewExtended()

	if _, err := ext.Compile("LET X2=1"); err != nil {
		t.Fatalf("LET X2=1: %v", err)
	}

	if _, ok := ext.Var("X2"); !ok {
		t.Errorf("X2 not allocated: %v", ext.Variables())
	}
}

func TestImmediateCommands(t *testing.T) {

	it := NewBasic()

	if code, err := it.compile("LIST", true); err != nil || !code.Equal(emit(OpList)) {
		t.Errorf("LIST: %v %v", code, err)
	}

	if code, err := it.compile("RUN", true); err != nil || !code.Equal(emit(OpRun)) {
		t.Errorf("RUN: %v %v", code, err)
	}
}

func TestLongVariableNames(t *testing.T) {

	it := NewExtended()

	code, err := it.Compile("LET COUNT=COUNT+1")
	if err != nil {
		t.Fatal(err)
	}

	want := cat(emit(OpSetVar, 26), emit(OpAdd), emit(OpGetVar, 26), pushValue(1))
	if !code.Equal(want) {
		t.Errorf("got %v, want %v", code, want)
	}

	code, err = it.Compile("LET X2=COUNT")
	if err != nil {
		t.Fatal(err)
	}

	if !code.Equal(cat(emit(OpSetVar, 27), emit(OpGetVar, 26))) {
		t.Errorf("X2 got %v", code)
	}

	if names := it.Variables(); names[26] != "COUNT" || names[27] != "X2" {
		t.Errorf("Variables() = %v", names[26:])
	}
}

func TestFunctionArguments(t *testing.T) {

	it := NewExtended()

	pi := it.Registry().lookupFunction("PI")
	sqr := it.Registry().lookupFunction("SQR")
	sleep := it.Registry().lookupCommand("SLEEP")

	tests := []struct {
		src  string
		want Code
	}{
		{"PRINT PI", cat(emit(OpPrint), emit(OpCallFunc, 0, Word(pi.index)))},
		{"PRINT SQR(4)", cat(emit(OpPrint), emit(OpCallFunc, 1, Word(sqr.index)), pushValue(4))},
		{"PRINT SQR( 2 * 2 )", cat(emit(OpPrint), emit(OpCallFunc, 1, Word(sqr.index)), emit(OpMul), pushValue(2), pushValue(2))},
		{"SLEEP 2", cat(emit(OpCallProc, 1, Word(sleep.index)), pushValue(2))},
		{"CALL SQR(4)", cat(emit(OpCallFunc, 1, Word(sqr.index)), pushValue(4), emit(OpPop))},
	}

	for _, tt := range tests {
		got, err := it.Compile(tt.src)
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}

		if !got.Equal(tt.want) {
			t.Errorf("%s:\n got %v\nwant %v", tt.src, got, tt.want)
		}
	}

	for _, src := range []string{
		"PRINT SQR 4",
		"PRINT SQR()",
		"PRINT SQR(1,2)",
		"PRINT PI()",
		"SLEEP(2",
		"SLEEP",
		"LET PI=3",
		"LET SQR=3",
		"LET SLEEP=1",
		"CALL SLEEP 1",
		"CALL A",
	} {
		if code, err := it.Compile(src); err == nil {
			t.Errorf("%q compiled to %v", src, code)
		}
	}
}

func TestFailedCompileReleasesNames(t *testing.T) {

	it := NewExtended()

	before := len(it.Variables())

	if _, err := it.Compile("LET FIRST=SECOND+"); err == nil {
		t.Fatal("expected an error")
	}

	if after := len(it.Variables()); after != before {
		t.Errorf("Variables() grew from %d to %d", before, after)
	}

	if _, ok := it.Var("FIRST"); ok {
		t.Errorf("FIRST is still allocated")
	}
}

func TestTooManyVariables(t *testing.T) {

	it := NewExtended()

	for i := basicVariables; i < extendedVariables; i++ {
		if _, err := it.Compile("LET V" + strconv.Itoa(i) + "=1"); err != nil {
			t.Fatalf("V%d: %v", i, err)
		}
	}

	_, err := it.Compile("LET W1=1")

	var ce *CompileError
	if !errors.As(err, &ce) || ce.Msg != ETOOMANYVARS {
		t.Fatalf("error = %v, want %s", err, ETOOMANYVARS)
	}

	//
	// Existing names still work
	//

	if _, err := it.Compile("LET V30=V31+A"); err != nil {
		t.Errorf("existing names: %v", err)
	}
}
