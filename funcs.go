package xlcalc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// baseEnv builds the runtime environment for generated scripts: the
// spreadsheet functions of the translation table under their sheet names,
// plus the lowercase operator helpers the generator emits. Every
// evaluation gets its own copy.
func baseEnv() map[string]any {
	return map[string]any{
		"SUM":     sheetSum,
		"AVERAGE": sheetAverage,
		"MIN":     sheetMin,
		"MAX":     sheetMax,
		"ROUND":   sheetRound,
		"AND":     sheetAnd,
		"OR":      sheetOr,
		"NOT":     sheetNot,
		"pow":     evalPow,
		"div":     evalDiv,
		"concat":  evalConcat,
		"truth":   truth,
		"eq":      evalEq,
		"ne":      evalNe,
		"lt":      evalLt,
		"le":      evalLe,
		"gt":      evalGt,
		"ge":      evalGe,
	}
}

func sheetSum(args ...any) (float64, error) {
	nums, err := numbers("SUM", args)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return total, nil
}

func sheetAverage(args ...any) (float64, error) {
	nums, err := numbers("AVERAGE", args)
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 0, fmt.Errorf("AVERAGE of no values")
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums)), nil
}

func sheetMin(args ...any) (float64, error) {
	nums, err := numbers("MIN", args)
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 0, fmt.Errorf("MIN of no values")
	}
	low := nums[0]
	for _, n := range nums[1:] {
		if n < low {
			low = n
		}
	}
	return low, nil
}

func sheetMax(args ...any) (float64, error) {
	nums, err := numbers("MAX", args)
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 0, fmt.Errorf("MAX of no values")
	}
	high := nums[0]
	for _, n := range nums[1:] {
		if n > high {
			high = n
		}
	}
	return high, nil
}

// sheetRound rounds half away from zero, the spreadsheet convention.
// The optional second argument gives the number of decimal digits and may
// be negative to round left of the decimal point.
func sheetRound(args ...any) (float64, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, fmt.Errorf("ROUND wants 1 or 2 arguments, got %d", len(args))
	}
	x, ok := numberOf(args[0])
	if !ok {
		return 0, typeErr("ROUND", args[0])
	}
	digits := 0.0
	if len(args) == 2 {
		digits, ok = numberOf(args[1])
		if !ok {
			return 0, typeErr("ROUND", args[1])
		}
	}
	shift := math.Pow(10, math.Abs(math.Trunc(digits)))
	if digits < 0 {
		return math.Round(x/shift) * shift, nil
	}
	return math.Round(x*shift) / shift, nil
}

func sheetAnd(args ...any) (bool, error) {
	if len(args) == 0 {
		return false, fmt.Errorf("AND of no values")
	}
	for _, v := range flatten(args) {
		b, err := truth(v)
		if err != nil {
			return false, err
		}
		if !b {
			return false, nil
		}
	}
	return true, nil
}

func sheetOr(args ...any) (bool, error) {
	if len(args) == 0 {
		return false, fmt.Errorf("OR of no values")
	}
	for _, v := range flatten(args) {
		b, err := truth(v)
		if err != nil {
			return false, err
		}
		if b {
			return true, nil
		}
	}
	return false, nil
}

func sheetNot(v any) (bool, error) {
	b, err := truth(v)
	if err != nil {
		return false, err
	}
	return !b, nil
}

func evalPow(a, b any) (float64, error) {
	x, ok := numberOf(a)
	if !ok {
		return 0, typeErr("^", a)
	}
	y, ok := numberOf(b)
	if !ok {
		return 0, typeErr("^", b)
	}
	return math.Pow(x, y), nil
}

// evalDiv backs both the division operator and the percent suffix. It
// rejects a zero divisor instead of yielding an infinity.
func evalDiv(a, b any) (float64, error) {
	x, ok := numberOf(a)
	if !ok {
		return 0, typeErr("/", a)
	}
	y, ok := numberOf(b)
	if !ok {
		return 0, typeErr("/", b)
	}
	if y == 0 {
		return 0, fmt.Errorf("division by zero")
	}
	return x / y, nil
}

func evalConcat(args ...any) (string, error) {
	var b strings.Builder
	for _, v := range args {
		text, err := toText(v)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// truth coerces an IF condition. Numbers count nonzero as true; text is a
// type error, so cells bound to a marker value fail their dependants here
// too.
func truth(v any) (bool, error) {
	switch c := v.(type) {
	case bool:
		return c, nil
	case float64:
		return c != 0, nil
	case int:
		return c != 0, nil
	case int64:
		return c != 0, nil
	}
	return false, typeErr("condition", v)
}

func evalEq(a, b any) (bool, error) {
	c, err := compare(a, b)
	return c == 0, err
}

func evalNe(a, b any) (bool, error) {
	c, err := compare(a, b)
	return c != 0, err
}

func evalLt(a, b any) (bool, error) {
	c, err := compare(a, b)
	return c < 0, err
}

func evalLe(a, b any) (bool, error) {
	c, err := compare(a, b)
	return c <= 0, err
}

func evalGt(a, b any) (bool, error) {
	c, err := compare(a, b)
	return c > 0, err
}

func evalGe(a, b any) (bool, error) {
	c, err := compare(a, b)
	return c >= 0, err
}

// compare implements the comparison coercion rule: numeric comparison when
// both sides are numbers, lexical comparison of the text forms otherwise.
// Text is never coerced to a number.
func compare(a, b any) (int, error) {
	x, xok := numberOf(a)
	y, yok := numberOf(b)
	if xok && yok {
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	}
	sa, err := toText(a)
	if err != nil {
		return 0, err
	}
	sb, err := toText(b)
	if err != nil {
		return 0, err
	}
	return strings.Compare(sa, sb), nil
}

// flatten splices nested sequences (ranges arrive as sequence literals)
// into one element list.
func flatten(args []any) []any {
	out := make([]any, 0, len(args))
	for _, a := range args {
		if list, ok := a.([]any); ok {
			out = append(out, flatten(list)...)
		} else {
			out = append(out, a)
		}
	}
	return out
}

// numbers flattens aggregate arguments and coerces every element. A
// non-numeric element fails the whole aggregate.
func numbers(fn string, args []any) ([]float64, error) {
	flat := flatten(args)
	nums := make([]float64, 0, len(flat))
	for _, v := range flat {
		n, ok := numberOf(v)
		if !ok {
			return nil, typeErr(fn, v)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

func numberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// toText renders a scalar the way a sheet displays it. Sequences have no
// text form.
func toText(v any) (string, error) {
	switch c := v.(type) {
	case string:
		return c, nil
	case bool:
		if c {
			return "TRUE", nil
		}
		return "FALSE", nil
	case float64:
		return strconv.FormatFloat(c, 'g', 15, 64), nil
	case int:
		return strconv.Itoa(c), nil
	case int64:
		return strconv.FormatInt(c, 10), nil
	case nil:
		return "", nil
	}
	return "", typeErr("text", v)
}

func typeErr(where string, v any) error {
	return fmt.Errorf("%s: cannot use %T value %v", where, v, v)
}
