package validate

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Built-in rule kinds.
const (
	KindEmail       = "email"
	KindPhone       = "phone"
	KindNotEmpty    = "not_empty"
	KindRegex       = "regex"
	KindLength      = "length"
	KindOneOf       = "one_of"
	KindCountryCode = "country_code"
	KindPostalCode  = "postal_code"
	KindExpr        = "expr"
)

// Patterns behind Email and Phone, exposed for schema descriptions.
const (
	EmailPattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`
	PhonePattern = `^\+?(\d{1,3})?[-. ]?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}$`
)

var (
	emailPattern = regexp.MustCompile(EmailPattern)
	phonePattern = regexp.MustCompile(PhonePattern)
)

type patternRule struct {
	kind    string
	pattern *regexp.Regexp
	args    []string
}

func (r patternRule) Validate(value any) bool {
	text, ok := value.(string)
	if !ok {
		return false
	}
	return r.pattern.MatchString(text)
}

func (r patternRule) Describe() Descriptor {
	return Descriptor{Kind: r.kind, Args: slices.Clone(r.args)}
}

// Email accepts text shaped like local@domain.tld.
func Email() Validator {
	return patternRule{kind: KindEmail, pattern: emailPattern}
}

// Phone accepts North American style numbers with an optional country code,
// such as +1-202-555-0172 or (202) 555 0172.
func Phone() Validator {
	return patternRule{kind: KindPhone, pattern: phonePattern}
}

// Regex accepts text matching pattern.
func Regex(pattern string) (Validator, error) {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return patternRule{kind: KindRegex, pattern: compiled, args: []string{pattern}}, nil
}

// MustRegex is Regex for patterns known to compile.
func MustRegex(pattern string) Validator {
	v, err := Regex(pattern)
	if err != nil {
		panic(err)
	}
	return v
}

type notEmptyRule struct{}

func (notEmptyRule) Validate(value any) bool {
	text, ok := value.(string)
	return ok && strings.TrimSpace(text) != ""
}

func (notEmptyRule) Describe() Descriptor { return Descriptor{Kind: KindNotEmpty} }

// NotEmpty accepts text with at least one non-space character.
func NotEmpty() Validator { return notEmptyRule{} }

type lengthRule struct {
	min, max int
}

func (r lengthRule) Validate(value any) bool {
	text, ok := value.(string)
	if !ok {
		return false
	}
	n := utf8.RuneCountInString(text)
	if n < r.min {
		return false
	}
	return r.max < 0 || n <= r.max
}

func (r lengthRule) Describe() Descriptor {
	args := []string{strconv.Itoa(r.min)}
	if r.max >= 0 {
		args = append(args, strconv.Itoa(r.max))
	}
	return Descriptor{Kind: KindLength, Args: args}
}

// Length accepts text whose rune count is within [lo, hi]. A negative hi
// leaves the upper bound open.
func Length(lo, hi int) Validator {
	return lengthRule{min: lo, max: hi}
}

func parseLength(args []string) (Validator, error) {
	lo, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return nil, fmt.Errorf("length min: %w", err)
	}
	hi := -1
	if len(args) > 1 {
		hi, err = strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return nil, fmt.Errorf("length max: %w", err)
		}
	}
	return Length(lo, hi), nil
}

type oneOfRule struct {
	options []string
}

func (r oneOfRule) Validate(value any) bool {
	text, ok := value.(string)
	if !ok {
		return false
	}
	return slices.Contains(r.options, text)
}

func (r oneOfRule) Describe() Descriptor {
	return Descriptor{Kind: KindOneOf, Args: slices.Clone(r.options)}
}

// OneOf accepts one of the listed strings.
func OneOf(options ...string) Validator {
	return oneOfRule{options: slices.Clone(options)}
}

type allRule []Validator

func (r allRule) Validate(value any) bool {
	for _, v := range r {
		if v != nil && !v.Validate(value) {
			return false
		}
	}
	return true
}

// All accepts values every validator accepts. Composites are not
// describable.
func All(validators ...Validator) Validator {
	return allRule(slices.Clone(validators))
}

// Options lists the accepted strings of a OneOf validator.
func Options(v Validator) ([]string, bool) {
	rule, ok := v.(oneOfRule)
	if !ok {
		return nil, false
	}
	return slices.Clone(rule.options), true
}
