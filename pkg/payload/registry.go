package payload

import (
	"encoding"
	"sort"
	"strings"
	"sync"
)

// Factory returns a fresh payload value able to restore a persisted blob.
type Factory func() any

type persistable interface {
	PayloadName() string
	encoding.BinaryMarshaler
}

var types = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register makes the payload type name restorable when it appears nested in a
// persisted blob. The latest registration for a name wins.
func Register(name string, factory Factory) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || factory == nil {
		return
	}
	types.mu.Lock()
	defer types.mu.Unlock()
	types.factories[trimmed] = factory
}

// Registered reports whether name has a factory.
func Registered(name string) bool {
	types.mu.RLock()
	defer types.mu.RUnlock()
	_, ok := types.factories[name]
	return ok
}

// RegisteredTypes lists the registered payload type names in lexical order.
func RegisteredTypes() []string {
	types.mu.RLock()
	defer types.mu.RUnlock()
	out := make([]string, 0, len(types.factories))
	for name := range types.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func newRegistered(name string) (encoding.BinaryUnmarshaler, bool) {
	types.mu.RLock()
	factory, ok := types.factories[name]
	types.mu.RUnlock()
	if !ok {
		return nil, false
	}
	target, ok := factory().(encoding.BinaryUnmarshaler)
	return target, ok
}
