package inventory

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Sentinel replaces any field whose extraction failed.
const Sentinel = "N/A"

const TimestampLayout = "2006-01-02 15:04:05"

// Value is one cell of a record: either a concrete value or the sentinel.
// Numbers are stored already rounded to two decimals.
type Value struct {
	raw any
}

func NA() Value {
	return Value{}
}

func Text(s string) Value {
	return Value{raw: s}
}

func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NA()
	}
	return Value{raw: Round2(f)}
}

func Integer(n int64) Value {
	return Value{raw: n}
}

func Flag(b bool) Value {
	return Value{raw: b}
}

func List(items []string) Value {
	return Value{raw: append([]string{}, items...)}
}

func Timestamp(t time.Time) Value {
	if t.IsZero() {
		return NA()
	}
	return Value{raw: t.UTC()}
}

func (v Value) IsNA() bool {
	return v.raw == nil
}

// Raw returns the underlying value, nil for the sentinel.
func (v Value) Raw() any {
	if l, ok := v.raw.([]string); ok {
		return append([]string{}, l...)
	}
	return v.raw
}

// Float reports the numeric content of the cell.
func (v Value) Float() (float64, bool) {
	switch x := v.raw.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func (v Value) Bool() (bool, bool) {
	b, ok := v.raw.(bool)
	return b, ok
}

func (v Value) String() string {
	switch x := v.raw.(type) {
	case nil:
		return Sentinel
	case string:
		return x
	case float64:
		return FormatFloat(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case []string:
		return strings.Join(x, ", ")
	case time.Time:
		return x.Format(TimestampLayout)
	}
	return fmt.Sprint(v.raw)
}

func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func FormatFloat(f float64) string {
	return strconv.FormatFloat(Round2(f), 'f', -1, 64)
}

// valueOf converts an accessor result into a cell. nil and nil pointers map to
// the sentinel.
func valueOf(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return NA()
	case Value:
		return x
	case string:
		return Text(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Integer(int64(x))
	case int16:
		return Integer(int64(x))
	case int32:
		return Integer(int64(x))
	case int64:
		return Integer(x)
	case uint32:
		return Integer(int64(x))
	case bool:
		return Flag(x)
	case *bool:
		if x == nil {
			return NA()
		}
		return Flag(*x)
	case []string:
		return List(x)
	case time.Time:
		return Timestamp(x)
	case *time.Time:
		if x == nil {
			return NA()
		}
		return Timestamp(*x)
	case fmt.Stringer:
		return Text(x.String())
	}
	return Text(fmt.Sprint(raw))
}
