// Package mutate holds reusable setter mutators for payload maps. A Func
// transforms one incoming value; Setter adapts a chain of them into a
// payload.SetterFunc. Funcs are also registered by name so schema documents
// can refer to them.
package mutate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-dto/pkg/payload"
)

// ErrNotText is returned when a text mutator receives a non-string value.
var ErrNotText = errors.New("mutate: value is not text")

// Func transforms a value on its way into a payload field. Nil values pass
// through untouched.
type Func func(value any) (any, error)

// Text lifts a string transformation into a Func. Non-string values are
// rejected with ErrNotText.
func Text(fn func(string) string) Func {
	return func(value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrNotText, value)
		}
		return fn(text), nil
	}
}

// Chain applies fns in order, stopping at the first error.
func Chain(fns ...Func) Func {
	return func(value any) (any, error) {
		var err error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if value, err = fn(value); err != nil {
				return nil, err
			}
		}
		return value, nil
	}
}

// Setter adapts fns into a map setter.
func Setter(fns ...Func) payload.SetterFunc {
	chained := Chain(fns...)
	return func(_ *payload.Map, value any) (any, error) {
		return chained(value)
	}
}

// Title upper-cases the first letter of every whitespace separated word and
// leaves the remaining letters alone, so "nobody's alive" becomes
// "Nobody's Alive" and "McDonald" is kept.
func Title() Func { return Text(titleCase) }

func titleCase(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	boundary := true
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		if boundary && unicode.IsLetter(r) {
			r = unicode.ToUpper(r)
		}
		boundary = unicode.IsSpace(r)
		b.WriteRune(r)
	}
	return b.String()
}

// Upper upper-cases the value.
func Upper() Func { return Text(strings.ToUpper) }

// Lower lower-cases the value.
func Lower() Func { return Text(strings.ToLower) }

// Trim strips surrounding whitespace.
func Trim() Func { return Text(strings.TrimSpace) }

var nonDigits = regexp.MustCompile(`\D`)

// Digits keeps only the ASCII digits of the value.
func Digits() Func {
	return Text(func(text string) string {
		return nonDigits.ReplaceAllString(text, "")
	})
}
