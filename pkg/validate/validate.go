// Package validate provides the validator capability used by payload fields
// and a set of built-in rules. Rules that implement Describer can be
// persisted as a Descriptor and rebuilt through the rule registry, which is
// how payload blobs keep their validators.
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Validator reports whether value is acceptable.
type Validator interface {
	Validate(value any) bool
}

// Func adapts a function into a Validator. Func values are not describable.
type Func func(value any) bool

// Validate calls the underlying function.
func (fn Func) Validate(value any) bool {
	return fn(value)
}

// Descriptor names a registered rule and the arguments needed to rebuild it.
type Descriptor struct {
	Kind string   `json:"kind" yaml:"kind" msgpack:"kind"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty" msgpack:"args,omitempty"`
}

func (d Descriptor) String() string {
	if len(d.Args) == 0 {
		return d.Kind
	}
	return fmt.Sprintf("%s(%s)", d.Kind, strings.Join(d.Args, ", "))
}

// Describer is implemented by validators that can be rebuilt from a
// Descriptor.
type Describer interface {
	Describe() Descriptor
}

// Factory rebuilds a validator from descriptor arguments.
type Factory func(args ...string) (Validator, error)

var (
	// ErrUnknownRule is returned by Build for kinds without a factory.
	ErrUnknownRule = errors.New("validate: unknown rule")

	rules = struct {
		mu        sync.RWMutex
		factories map[string]Factory
	}{factories: make(map[string]Factory)}
)

// Register adds or replaces the factory for kind.
func Register(kind string, factory Factory) {
	trimmed := strings.TrimSpace(kind)
	if trimmed == "" || factory == nil {
		return
	}
	rules.mu.Lock()
	defer rules.mu.Unlock()
	rules.factories[trimmed] = factory
}

// Build rebuilds the validator described by d.
func Build(d Descriptor) (Validator, error) {
	rules.mu.RLock()
	factory, ok := rules.factories[strings.TrimSpace(d.Kind)]
	rules.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, d.Kind)
	}
	validator, err := factory(d.Args...)
	if err != nil {
		return nil, fmt.Errorf("validate: build %s: %w", d, err)
	}
	return validator, nil
}

// Kinds lists the registered rule kinds in lexical order.
func Kinds() []string {
	rules.mu.RLock()
	defer rules.mu.RUnlock()
	out := make([]string, 0, len(rules.factories))
	for kind := range rules.factories {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

func expectArgs(args []string, lo, hi int) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		if lo == hi {
			return fmt.Errorf("expected %d argument(s), got %d", lo, len(args))
		}
		return fmt.Errorf("expected between %d and %d arguments, got %d", lo, hi, len(args))
	}
	return nil
}

func init() {
	Register(KindEmail, func(args ...string) (Validator, error) {
		if err := expectArgs(args, 0, 0); err != nil {
			return nil, err
		}
		return Email(), nil
	})
	Register(KindPhone, func(args ...string) (Validator, error) {
		if err := expectArgs(args, 0, 0); err != nil {
			return nil, err
		}
		return Phone(), nil
	})
	Register(KindNotEmpty, func(args ...string) (Validator, error) {
		if err := expectArgs(args, 0, 0); err != nil {
			return nil, err
		}
		return NotEmpty(), nil
	})
	Register(KindRegex, func(args ...string) (Validator, error) {
		if err := expectArgs(args, 1, 1); err != nil {
			return nil, err
		}
		return Regex(args[0])
	})
	Register(KindLength, func(args ...string) (Validator, error) {
		if err := expectArgs(args, 1, 2); err != nil {
			return nil, err
		}
		return parseLength(args)
	})
	Register(KindOneOf, func(args ...string) (Validator, error) {
		if err := expectArgs(args, 1, -1); err != nil {
			return nil, err
		}
		return OneOf(args...), nil
	})
	Register(KindCountryCode, func(args ...string) (Validator, error) {
		if err := expectArgs(args, 0, 0); err != nil {
			return nil, err
		}
		return CountryCode(), nil
	})
	Register(KindPostalCode, func(args ...string) (Validator, error) {
		if err := expectArgs(args, 0, 1); err != nil {
			return nil, err
		}
		country := ""
		if len(args) == 1 {
			country = args[0]
		}
		return PostalCode(country), nil
	})
	Register(KindExpr, func(args ...string) (Validator, error) {
		if err := expectArgs(args, 1, 1); err != nil {
			return nil, err
		}
		return Expr(args[0])
	})
}
