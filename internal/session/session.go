// Package session computes academic session identifiers.
//
// A session is encoded as YYYYT where T is the term digit: 1 for Winter,
// 2 for Summer and 3 for Fall.
package session

import (
	"fmt"
	"strconv"
	"time"
)

// ID is a session identifier such as "20152".
type ID string

// Term is the term digit of a session.
type Term int

const (
	Winter Term = 1
	Summer Term = 2
	Fall   Term = 3
)

var termNames = map[Term]string{
	Winter: "Winter",
	Summer: "Summer",
	Fall:   "Fall",
}

// String returns the English label of the term, or "" when unknown.
func (t Term) String() string {
	return termNames[t]
}

// Valid reports whether t is one of Winter, Summer or Fall.
func (t Term) Valid() bool {
	_, ok := termNames[t]
	return ok
}

// New builds the identifier for year and term.
func New(year int, term Term) ID {
	return ID(fmt.Sprintf("%d%d", year, term))
}

// Current maps a calendar date to its session. Month ranges are half-open:
// [Jan,Jun) is Winter, [Jun,Sep) is Summer, the rest of the year is Fall.
func Current(t time.Time) ID {
	var term Term
	switch month := t.Month(); {
	case month < time.June:
		term = Winter
	case month < time.September:
		term = Summer
	default:
		term = Fall
	}
	return New(t.Year(), term)
}

// Recent returns count sessions ending at start, most recent first. The walk
// has no lower bound on the year; callers asking for a huge count get what
// they ask for. A malformed start yields nil.
func Recent(count int, start ID) []ID {
	year, term, ok := split(start)
	if !ok {
		return nil
	}
	if count < 0 {
		count = 0
	}

	result := make([]ID, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, New(year, term))
		if term > Winter {
			term--
		} else {
			year--
			term = Fall
		}
	}
	return result
}

// Format renders a session as "<Term> <Year>", e.g. "Winter 2015". Unknown
// term digits and malformed identifiers render as "".
func Format(id ID) string {
	if len(id) != 5 || !yearDigits(string(id[:4])) {
		return ""
	}
	name := Term(id[4] - '0').String()
	if name == "" {
		return ""
	}
	return name + " " + string(id[:4])
}

// yearDigits accepts four digits, or a minus sign and three digits for the
// negative years Recent can walk into.
func yearDigits(year string) bool {
	for i := 0; i < len(year); i++ {
		if year[i] == '-' && i == 0 {
			continue
		}
		if year[i] < '0' || year[i] > '9' {
			return false
		}
	}
	return year != ""
}

// Parse validates s as a YYYYT session identifier.
func Parse(s string) (ID, error) {
	id := ID(s)
	if !id.Valid() {
		return "", fmt.Errorf("invalid session %q: expected YYYYT with T in 1..3", s)
	}
	return id, nil
}

// Valid reports whether the identifier has a four digit year and a known term.
func (id ID) Valid() bool {
	if len(id) != 5 {
		return false
	}
	for i := 0; i < 4; i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	_, _, ok := split(id)
	return ok
}

// Year returns the year part, or 0 when malformed.
func (id ID) Year() int {
	year, _, _ := split(id)
	return year
}

// Term returns the term part, or 0 when malformed.
func (id ID) Term() Term {
	_, term, _ := split(id)
	return term
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

func split(id ID) (int, Term, bool) {
	if len(id) < 2 {
		return 0, 0, false
	}
	last := len(id) - 1
	year, err := strconv.Atoi(string(id[:last]))
	if err != nil {
		return 0, 0, false
	}
	term := Term(id[last] - '0')
	if !term.Valid() {
		return 0, 0, false
	}
	return year, term, true
}
