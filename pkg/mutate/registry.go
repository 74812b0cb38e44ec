package mutate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in mutator names.
const (
	NameTitle    = "title"
	NameUpper    = "upper"
	NameLower    = "lower"
	NameTrim     = "trim"
	NameDigits   = "digits"
	NameSanitize = "sanitize"
)

// ErrUnknownMutator is returned by Lookup for unregistered names.
var ErrUnknownMutator = errors.New("mutate: unknown mutator")

type registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

var named = &registry{funcs: map[string]Func{
	NameTitle:    Title(),
	NameUpper:    Upper(),
	NameLower:    Lower(),
	NameTrim:     Trim(),
	NameDigits:   Digits(),
	NameSanitize: Sanitize(),
}}

// Register adds or replaces the mutator called name. Names are matched case
// insensitively.
func Register(name string, fn Func) {
	key := normalizeName(name)
	if key == "" || fn == nil {
		return
	}
	named.mu.Lock()
	defer named.mu.Unlock()
	named.funcs[key] = fn
}

// Lookup returns the mutator called name.
func Lookup(name string) (Func, error) {
	named.mu.RLock()
	fn, ok := named.funcs[normalizeName(name)]
	named.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMutator, name)
	}
	return fn, nil
}

// Resolve chains the mutators called names, in order.
func Resolve(names ...string) (Func, error) {
	fns := make([]Func, 0, len(names))
	for _, name := range names {
		fn, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return Chain(fns...), nil
}

// Names lists the registered mutator names in lexical order.
func Names() []string {
	named.mu.RLock()
	defer named.mu.RUnlock()
	out := make([]string, 0, len(named.funcs))
	for name := range named.funcs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
