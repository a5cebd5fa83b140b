// Package duration converts ranklist time durations between units.
//
// A duration is serialized the way standard ranklist documents carry it: a
// two element JSON array of value and unit, e.g. [20, "min"].
package duration

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit is a time unit accepted by ranklist documents.
type Unit string

// Supported units.
const (
	Millisecond Unit = "ms"
	Second      Unit = "s"
	Minute      Unit = "min"
	Hour        Unit = "h"
	Day         Unit = "d"
)

// Milliseconds per unit.
const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// factor returns how many milliseconds one unit holds.
func (u Unit) factor() (float64, bool) {
	switch u {
	case Millisecond, "":
		return 1, true
	case Second:
		return msPerSecond, true
	case Minute:
		return msPerMinute, true
	case Hour:
		return msPerHour, true
	case Day:
		return msPerDay, true
	default:
		return 0, false
	}
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	_, ok := u.factor()
	return ok && u != ""
}

// RoundFunc rounds a converted value.
type RoundFunc func(float64) float64

// Rounding functions matching the sorter's timeRounding names.
var (
	Floor RoundFunc = math.Floor
	Ceil  RoundFunc = math.Ceil
	// Round rounds half up, so -1.5 becomes -1.
	Round RoundFunc = func(x float64) float64 { return math.Floor(x + 0.5) }
)

// RoundingByName maps "floor", "ceil" and "round" to a RoundFunc.
// Anything else falls back to Floor.
func RoundingByName(name string) RoundFunc {
	switch name {
	case "ceil":
		return Ceil
	case "round":
		return Round
	default:
		return Floor
	}
}

// TimeDuration is a magnitude with an explicit unit.
type TimeDuration struct {
	Value float64
	Unit  Unit
}

// New builds a TimeDuration.
func New(value float64, unit Unit) TimeDuration {
	return TimeDuration{Value: value, Unit: unit}
}

// Millis builds a millisecond TimeDuration.
func Millis(ms float64) TimeDuration {
	return TimeDuration{Value: ms, Unit: Millisecond}
}

// ToMillis converts d to milliseconds. An empty unit is read as milliseconds.
func ToMillis(d TimeDuration) float64 {
	f, ok := d.Unit.factor()
	if !ok {
		f = 1
	}
	return d.Value * f
}

// FromMillis converts ms into unit, applying round to the result.
// Millisecond targets are returned unchanged. A nil round keeps the raw quotient.
func FromMillis(ms float64, unit Unit, round RoundFunc) float64 {
	f, ok := unit.factor()
	if !ok || f == 1 {
		return ms
	}
	v := ms / f
	if round != nil {
		v = round(v)
	}
	return v
}

// Convert re-expresses d in unit.
func Convert(d TimeDuration, unit Unit, round RoundFunc) TimeDuration {
	if unit == "" {
		unit = Millisecond
	}
	return TimeDuration{Value: FromMillis(ToMillis(d), unit, round), Unit: unit}
}

// Compare orders two durations. Durations sharing a unit are compared on their
// raw values so no conversion error creeps in.
func Compare(a, b TimeDuration) int {
	var x, y float64
	if a.Unit == b.Unit {
		x, y = a.Value, b.Value
	} else {
		x, y = ToMillis(a), ToMillis(b)
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// Parse reads human input such as "5min", "1.5h" or "300 ms".
func Parse(s string) (TimeDuration, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-' && r != '+'
	})
	if i <= 0 {
		return TimeDuration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return TimeDuration{}, fmt.Errorf("%w: %q: %w", ErrInvalidDuration, s, err)
	}
	u := Unit(strings.TrimSpace(s[i:]))
	if !u.Valid() {
		return TimeDuration{}, fmt.Errorf("%w: %q", ErrInvalidUnit, u)
	}
	return TimeDuration{Value: v, Unit: u}, nil
}

// String renders d as value followed by unit, e.g. "20min".
func (d TimeDuration) String() string {
	u := d.Unit
	if u == "" {
		u = Millisecond
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64) + string(u)
}

// MarshalJSON writes d as [value, unit].
func (d TimeDuration) MarshalJSON() ([]byte, error) {
	u := d.Unit
	if u == "" {
		u = Millisecond
	}
	return json.Marshal([2]any{d.Value, u})
}

// UnmarshalJSON reads [value, unit] and rejects unknown units.
func (d *TimeDuration) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDuration, err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: want [value, unit], got %d elements", ErrInvalidDuration, len(raw))
	}
	var v float64
	if err := json.Unmarshal(raw[0], &v); err != nil {
		return fmt.Errorf("%w: value: %w", ErrInvalidDuration, err)
	}
	var u Unit
	if err := json.Unmarshal(raw[1], &u); err != nil {
		return fmt.Errorf("%w: unit: %w", ErrInvalidDuration, err)
	}
	if !u.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, u)
	}
	d.Value, d.Unit = v, u
	return nil
}
