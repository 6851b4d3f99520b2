// Package notation formats chequer plays in the usual "24/18* 13/11" move
// notation, independent of the engine's internal board representation.
package notation

import (
	"fmt"
	"strings"
)

// Submove is one elementary chequer move: a source point (or the bar, 24)
// to a destination point (or off the board, negative), with whether it hit
// a blot on arrival.
type Submove struct {
	From int8
	To   int8
	Hit  bool
}

// Point formats a single board index in the mover's own numbering: the bar
// is "bar", a negative (borne-off) destination is "off", anything else is
// its 1-based point number.
func Point(idx int8) string {
	switch {
	case idx == 24:
		return "bar"
	case idx < 0:
		return "off"
	default:
		return fmt.Sprintf("%d", idx+1)
	}
}

// FormatSubmove formats one elementary move as "from/to", appending "*" if
// it hit a blot.
func FormatSubmove(s Submove) string {
	str := Point(s.From) + "/" + Point(s.To)
	if s.Hit {
		str += "*"
	}
	return str
}

// Move formats a complete play - up to four elementary submoves - joining
// them with spaces and collapsing adjacent identical submoves (the common
// case when a double plays the same elementary move more than once) into a
// single "from/to(count)" entry.
func Move(subs []Submove) string {
	if len(subs) == 0 {
		return ""
	}

	formatted := make([]string, len(subs))
	for i, s := range subs {
		formatted[i] = FormatSubmove(s)
	}

	var parts []string
	for i := 0; i < len(formatted); {
		j := i + 1
		for j < len(formatted) && formatted[j] == formatted[i] {
			j++
		}
		if count := j - i; count > 1 {
			parts = append(parts, fmt.Sprintf("%s(%d)", formatted[i], count))
		} else {
			parts = append(parts, formatted[i])
		}
		i = j
	}

	return strings.Join(parts, " ")
}
