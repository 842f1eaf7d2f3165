package tinybasic

import (
	"math"
	"math/rand"
	"time"
)

//
// Builtin function library of the extended dialect.  Everything here
// goes through the same registry as host extensions, so a host can
// see exactly what the compiler sees
//

const minExpArg = -745
const maxExpArg = 709

type builtins struct {
	rng *rand.Rand
}

func registerBuiltins(reg *Registry) error {

	b := &builtins{rng: rand.New(rand.NewSource(1))}

	funcs := []struct {
		name   string
		arity  int
		parens bool
		fn     NativeFunc
	}{
		{"PI", 0, false, constant(math.Pi)},
		{"ABS", 1, true, unary(math.Abs)},
		{"ATN", 1, true, unary(math.Atan)},
		{"COS", 1, true, unary(math.Cos)},
		{"EXP", 1, true, checked(computeExp)},
		{"FIX", 1, true, unary(computeFix)},
		{"INT", 1, true, unary(computeInt)},
		{"LOG", 1, true, checked(computeLog(math.Log))},
		{"LOG10", 1, true, checked(computeLog(math.Log10))},
		{"RND", 1, true, b.rnd},
		{"SGN", 1, true, unary(computeSgn)},
		{"SIN", 1, true, unary(math.Sin)},
		{"SQR", 1, true, checked(computeSqr)},
		{"TAN", 1, true, unary(math.Tan)},
	}

	for _, f := range funcs {
		if err := reg.RegisterFunction(f.name, f.arity, f.parens, f.fn); err != nil {
			return err
		}
	}

	cmds := []struct {
		name  string
		arity int
		fn    NativeFunc
	}{
		{"CLS", 0, executeCls},
		{"RANDOMIZE", 0, b.randomize},
		{"SLEEP", 1, executeSleep},
	}

	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.arity, false, c.fn); err != nil {
			return err
		}
	}

	return nil
}

func constant(v float64) NativeFunc {

	return func(vm *VM, c *Call) error {
		return c.Return(v)
	}
}

func unary(f func(float64) float64) NativeFunc {

	return func(vm *VM, c *Call) error {
		return c.Return(f(c.Arg(0)))
	}
}

func checked(f func(float64) (float64, error)) NativeFunc {

	return func(vm *VM, c *Call) error {
		v, err := f(c.Arg(0))
		if err != nil {
			return err
		}
		return c.Return(v)
	}
}

func computeFix(f float64) float64 {

	return computeSgn(f) * computeInt(math.Abs(f))
}

func computeInt(f float64) float64 {

	return math.Floor(f)
}

func computeSgn(f float64) float64 {

	if f < 0.0 {
		return -1.0
	} else if f > 0.0 {
		return 1.0
	} else {
		return 0.0
	}
}

func computeExp(f float64) (float64, error) {

	if f > maxExpArg || f < minExpArg {
		return 0, fault(EEXPERROR)
	}

	return math.Exp(f), nil
}

func computeLog(log func(float64) float64) func(float64) (float64, error) {

	return func(f float64) (float64, error) {
		if f <= 0 {
			return 0, fault(ELOGERROR)
		}
		return log(f), nil
	}
}

func computeSqr(f float64) (float64, error) {

	if f < 0 {
		return 0, fault(ESQRERROR)
	}

	return math.Sqrt(f), nil
}

//
// RND ignores its argument, as in BASIC-PLUS.  The sequence is the same
// on every run until RANDOMIZE is executed
//

func (b *builtins) rnd(vm *VM, c *Call) error {

	return c.Return(b.rng.Float64())
}

func (b *builtins) randomize(vm *VM, c *Call) error {

	b.rng.Seed(time.Now().UnixNano())

	return nil
}

func executeSleep(vm *VM, c *Call) error {

	secs := c.Arg(0)

	if err := runtimeCheck(secs >= 0 && secs <= maxLineNumber, ESLEEPTIME); err != nil {
		return err
	}

	return vm.sleep(time.Duration(secs * float64(time.Second)))
}

func executeCls(vm *VM, c *Call) error {

	_, err := vm.Output().Write([]byte(clearScreenSeq))

	return err
}
