package schemafile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dto/pkg/mutate"
	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/validate"
)

// ErrUnknownPayload is returned by New for names the catalog does not hold.
var ErrUnknownPayload = errors.New("schemafile: unknown payload")

// Catalog holds the payload declarations of one or more schema documents.
type Catalog struct {
	specs map[string]PayloadSpec
	order []string
	opts  []payload.Option
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithPayloadOptions forwards opts to every Map the catalog builds.
func WithPayloadOptions(opts ...payload.Option) Option {
	return func(c *Catalog) {
		c.opts = append(c.opts, opts...)
	}
}

func newCatalog(options []Option) *Catalog {
	c := &Catalog{specs: make(map[string]PayloadSpec)}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Parse reads a single document. source names it in errors.
func Parse(data []byte, source string, options ...Option) (*Catalog, error) {
	c := newCatalog(options)
	if err := c.add(data, source); err != nil {
		return nil, err
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads the document at path.
func LoadFile(path string, options ...Option) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: read %s: %w", path, err)
	}
	return Parse(data, path, options...)
}

// LoadFS walks fsys and merges every JSON or YAML document into one catalog.
// A payload name declared twice is an error.
func LoadFS(fsys fs.FS, options ...Option) (*Catalog, error) {
	c := newCatalog(options)
	if fsys == nil {
		return c, nil
	}
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schemafile: read %s: %w", path, err)
		}
		return c.add(data, path)
	})
	if err != nil {
		return nil, err
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func parseDocument(data []byte, source string) (Document, error) {
	var doc Document
	if len(strings.TrimSpace(string(data))) == 0 {
		return Document{}, fmt.Errorf("schemafile: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = Document{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return Document{}, fmt.Errorf("schemafile: parse %s: invalid JSON or YAML", source)
}

func (c *Catalog) add(data []byte, source string) error {
	doc, err := parseDocument(data, source)
	if err != nil {
		return err
	}
	for _, spec := range doc.Payloads {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return fmt.Errorf("schemafile: file %s declares a payload without a name", source)
		}
		if _, exists := c.specs[name]; exists {
			return fmt.Errorf("schemafile: duplicate payload %q (file %s)", name, source)
		}
		spec.Name = name
		if err := normaliseFields(&spec, source); err != nil {
			return err
		}
		c.specs[name] = spec
		c.order = append(c.order, name)
	}
	return nil
}

func normaliseFields(spec *PayloadSpec, source string) error {
	seen := make(map[string]struct{}, len(spec.Fields))
	for i := range spec.Fields {
		field := &spec.Fields[i]
		field.Key = strings.TrimSpace(field.Key)
		if field.Key == "" {
			return fmt.Errorf("schemafile: payload %q (file %s) field %d has no key", spec.Name, source, i)
		}
		if _, dup := seen[field.Key]; dup {
			return fmt.Errorf("schemafile: payload %q (file %s) declares field %q twice", spec.Name, source, field.Key)
		}
		seen[field.Key] = struct{}{}

		if field.Payload != "" && len(field.Setters) > 0 {
			return fmt.Errorf("schemafile: payload %q (file %s) field %q cannot combine payload and setters", spec.Name, source, field.Key)
		}
		if field.Validator != nil {
			if _, err := validate.Build(*field.Validator); err != nil {
				return fmt.Errorf("schemafile: payload %q (file %s) field %q: %w", spec.Name, source, field.Key, err)
			}
		}
		if _, err := mutate.Resolve(field.Setters...); err != nil {
			return fmt.Errorf("schemafile: payload %q (file %s) field %q: %w", spec.Name, source, field.Key, err)
		}
	}
	return nil
}

// check resolves nested payload references once every document is loaded.
func (c *Catalog) check() error {
	for _, name := range c.order {
		for _, field := range c.specs[name].Fields {
			if field.Payload == "" {
				continue
			}
			if _, ok := c.specs[field.Payload]; !ok {
				return fmt.Errorf("schemafile: payload %q field %q: %w: %q", name, field.Key, ErrUnknownPayload, field.Payload)
			}
		}
	}
	return nil
}

// Names lists the payload names in load order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.order)
}

// Spec returns the declaration of payload name.
func (c *Catalog) Spec(name string) (PayloadSpec, bool) {
	spec, ok := c.specs[name]
	return spec, ok
}

// New builds a fresh Map for payload name. opts are applied after the
// catalog's own payload options.
func (c *Catalog) New(name string, opts ...payload.Option) (*payload.Map, error) {
	spec, ok := c.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPayload, name)
	}
	all := append(slices.Clone(c.opts), opts...)

	var declareErr error
	m := payload.NewMap(spec.Name, func(m *payload.Map) {
		for _, field := range spec.Fields {
			if err := c.declare(m, field); err != nil && declareErr == nil {
				declareErr = err
			}
		}
	}, all...)
	if declareErr != nil {
		return nil, declareErr
	}
	return m, nil
}

// MustNew is New for names known to exist.
func (c *Catalog) MustNew(name string) *payload.Map {
	m, err := c.New(name)
	if err != nil {
		panic(err)
	}
	return m
}

func (c *Catalog) declare(m *payload.Map, spec FieldSpec) error {
	props := payload.DefaultProps()
	props.ExportAs = spec.ExportAs
	props.Required = spec.Required
	props.Nullable = spec.Nullable
	props.Accessible = !spec.Hidden
	props.Default = spec.Default
	props.Label = spec.Label
	props.Custom = spec.Custom
	if spec.Validator != nil {
		v, err := validate.Build(*spec.Validator)
		if err != nil {
			return fmt.Errorf("schemafile: payload %q field %q: %w", m.Name(), spec.Key, err)
		}
		props.Validator = v
	}
	m.Add(spec.Key).SetProps(props)

	switch {
	case spec.Payload != "":
		m.Setter(spec.Key, c.nestedSetter(spec.Payload))
	case len(spec.Setters) > 0:
		fn, err := mutate.Resolve(spec.Setters...)
		if err != nil {
			return err
		}
		m.Setter(spec.Key, mutate.Setter(fn))
	}
	return nil
}

// nestedSetter keeps values that already are the named payload and imports
// anything else into a fresh instance, skipping invalid keys.
func (c *Catalog) nestedSetter(name string) payload.SetterFunc {
	return func(_ *payload.Map, value any) (any, error) {
		if value == nil {
			return nil, nil
		}
		if nested, ok := value.(*payload.Map); ok && nested.Name() == name {
			return nested, nil
		}
		nested, err := c.New(name)
		if err != nil {
			return nil, err
		}
		if err := nested.Import(value); err != nil {
			return nil, err
		}
		return nested, nil
	}
}

// RegisterTypes makes every catalog payload restorable from persisted blobs.
func (c *Catalog) RegisterTypes() {
	for _, name := range c.order {
		name := name
		payload.Register(name, func() any {
			return c.MustNew(name)
		})
	}
}
