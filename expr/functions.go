package expr

import (
	"math"
	"math/rand"
)

// funcEntry describes one registered math function: its arity and its
// float64 implementation, plus whether constant folding is permitted.
// Non-deterministic functions are marked at table-build time (spec.md
// §4.2 rule 4, §9 "Uniform-random exclusion") rather than folded then
// regretted.
type funcEntry struct {
	arity         int
	deterministic bool
	apply         func(args []float64, rng *rand.Rand) float64
}

func unary(f func(float64) float64) func([]float64, *rand.Rand) float64 {
	return func(a []float64, _ *rand.Rand) float64 { return f(a[0]) }
}

func binary(f func(float64, float64) float64) func([]float64, *rand.Rand) float64 {
	return func(a []float64, _ *rand.Rand) float64 { return f(a[0], a[1]) }
}

func constant(v float64) func([]float64, *rand.Rand) float64 {
	return func(_ []float64, _ *rand.Rand) float64 { return v }
}

// hzToMidi converts a frequency in Hz to a MIDI note number.
func hzToMidi(hz float64) float64 {
	if hz <= 0 {
		return 0
	}
	return 69 + 12*math.Log2(hz/440)
}

// midiToHz converts a MIDI note number to a frequency in Hz.
func midiToHz(note float64) float64 {
	return 440 * math.Pow(2, (note-69)/12)
}

// functionTable is the public function contract of spec.md §6.
var functionTable = map[string]funcEntry{
	"abs":      {1, true, unary(math.Abs)},
	"acos":     {1, true, unary(math.Acos)},
	"acosh":    {1, true, unary(math.Acosh)},
	"asin":     {1, true, unary(math.Asin)},
	"asinh":    {1, true, unary(math.Asinh)},
	"atan":     {1, true, unary(math.Atan)},
	"atan2":    {2, true, binary(math.Atan2)},
	"atanh":    {1, true, unary(math.Atanh)},
	"cbrt":     {1, true, unary(math.Cbrt)},
	"ceil":     {1, true, unary(math.Ceil)},
	"cos":      {1, true, unary(math.Cos)},
	"cosh":     {1, true, unary(math.Cosh)},
	"e":        {0, true, constant(math.E)},
	"exp":      {1, true, unary(math.Exp)},
	"exp2":     {1, true, unary(math.Exp2)},
	"floor":    {1, true, unary(math.Floor)},
	"hypot":    {2, true, binary(math.Hypot)},
	"hzToMidi": {1, true, unary(hzToMidi)},
	"log":      {1, true, unary(math.Log)},
	"log10":    {1, true, unary(math.Log10)},
	"log2":     {1, true, unary(math.Log2)},
	"logb":     {1, true, unary(math.Logb)},
	"max":      {2, true, binary(math.Max)},
	"midiToHz": {1, true, unary(midiToHz)},
	"min":      {2, true, binary(math.Min)},
	"pi":       {0, true, constant(math.Pi)},
	"pow":      {2, true, binary(math.Pow)},
	"round":    {1, true, unary(math.Round)},
	"sin":      {1, true, unary(math.Sin)},
	"sinh":     {1, true, unary(math.Sinh)},
	"sqrt":     {1, true, unary(math.Sqrt)},
	"tan":      {1, true, unary(math.Tan)},
	"tanh":     {1, true, unary(math.Tanh)},
	"trunc":    {1, true, unary(math.Trunc)},
	"uniform": {1, false, func(a []float64, rng *rand.Rand) float64 {
		return rng.Float64() * a[0]
	}},
}

// vectorFunctionTable holds the reducers any/all (spec.md §6).
var vectorFunctionTable = map[string]func(lanes []float64) float64{
	"any": func(lanes []float64) float64 {
		for _, v := range lanes {
			if v != 0 {
				return 1
			}
		}
		return 0
	},
	"all": func(lanes []float64) float64 {
		for _, v := range lanes {
			if v == 0 {
				return 0
			}
		}
		return 1
	},
}

func lookupFunction(name string) (funcEntry, bool) {
	e, ok := functionTable[name]
	return e, ok
}

func lookupVectorFunction(name string) (func([]float64) float64, bool) {
	f, ok := vectorFunctionTable[name]
	return f, ok
}

func isKnownIdentifier(name string) bool {
	if name == "x" || name == "y" {
		return true
	}
	if _, ok := functionTable[name]; ok {
		return true
	}
	if _, ok := vectorFunctionTable[name]; ok {
		return true
	}
	return false
}
