package payload

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-dto/pkg/validate"
)

const (
	formatField = "dto.field/v1"
	formatMap   = "dto.map/v1"
	formatArray = "dto.array/v1"
)

const (
	kindNil     = "nil"
	kindRaw     = "raw"
	kindValues  = "values"
	kindList    = "list"
	kindMap     = "map"
	kindPayload = "payload"
)

type envelope struct {
	Format  string      `msgpack:"format"`
	Type    string      `msgpack:"type"`
	Fields  []fieldBlob `msgpack:"fields,omitempty"`
	Entries []entryBlob `msgpack:"entries,omitempty"`
}

type fieldBlob struct {
	Key        string               `msgpack:"key"`
	Value      valueBlob            `msgpack:"value"`
	ExportAs   string               `msgpack:"export_as,omitempty"`
	Nullable   bool                 `msgpack:"nullable"`
	Accessible bool                 `msgpack:"accessible"`
	Required   bool                 `msgpack:"required"`
	Default    valueBlob            `msgpack:"default"`
	Label      string               `msgpack:"label,omitempty"`
	Validator  *validate.Descriptor `msgpack:"validator,omitempty"`
	Custom     []entryBlob          `msgpack:"custom,omitempty"`
}

type entryBlob struct {
	Key   string    `msgpack:"k"`
	Value valueBlob `msgpack:"v"`
}

type valueBlob struct {
	Kind    string      `msgpack:"k"`
	Type    string      `msgpack:"t,omitempty"`
	Raw     any         `msgpack:"r"`
	Data    []byte      `msgpack:"d,omitempty"`
	Entries []entryBlob `msgpack:"e,omitempty"`
	Items   []valueBlob `msgpack:"i,omitempty"`
	Nil     bool        `msgpack:"n,omitempty"`
}

// MarshalBinary persists the field key, value and every property. Validators
// survive only when they implement validate.Describer.
func (f *Field) MarshalBinary() ([]byte, error) {
	blob, err := f.blob()
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(envelope{Format: formatField, Type: f.key, Fields: []fieldBlob{blob}})
}

// UnmarshalBinary restores a blob produced by Field.MarshalBinary. A keyed
// field only accepts its own blob. When the blob carries no validator the
// field keeps its current one.
func (f *Field) UnmarshalBinary(data []byte) error {
	env, err := decodeEnvelope(data, formatField, "")
	if err != nil {
		return err
	}
	if len(env.Fields) != 1 {
		return pkgerrors.Wrap(ErrCorruptBlob, "payload: field blob must hold exactly one field")
	}
	if f.key != "" && env.Fields[0].Key != f.key {
		return pkgerrors.Wrapf(ErrCorruptBlob, "payload: blob holds field %q, not %q", env.Fields[0].Key, f.key)
	}
	restored := &Field{key: f.key, props: f.props, owner: f.owner}
	if err := restored.restore(env.Fields[0]); err != nil {
		return err
	}
	*f = *restored
	return nil
}

// MarshalBinary persists the ordered field registry.
func (m *Map) MarshalBinary() ([]byte, error) {
	env := envelope{Format: formatMap, Type: m.name, Fields: make([]fieldBlob, 0, len(m.keys))}
	for _, key := range m.keys {
		blob, err := m.fields[key].blob()
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "payload: persist %s.%s", m.name, key)
		}
		env.Fields = append(env.Fields, blob)
	}
	return msgpack.Marshal(env)
}

// UnmarshalBinary replaces the field registry with the one persisted in data.
// The blob must come from a Map of the same name; on failure m is unchanged.
// Setters, getters and non-describable validators come from m's declaration.
func (m *Map) UnmarshalBinary(data []byte) error {
	env, err := decodeEnvelope(data, formatMap, m.name)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(env.Fields))
	fields := make(map[string]*Field, len(env.Fields))
	for _, blob := range env.Fields {
		if _, dup := fields[blob.Key]; dup {
			return pkgerrors.Wrapf(ErrCorruptBlob, "payload: duplicate field %q", blob.Key)
		}
		field := newField(blob.Key, m)
		if declared, ok := m.fields[blob.Key]; ok {
			field.props.Validator = declared.props.Validator
		}
		if err := field.restore(blob); err != nil {
			return err
		}
		keys = append(keys, blob.Key)
		fields[blob.Key] = field
	}
	m.keys, m.fields = keys, fields
	return nil
}

// MarshalBinary persists the stored entries in insertion order.
func (a *Array) MarshalBinary() ([]byte, error) {
	env := envelope{Format: formatArray, Type: a.name, Entries: make([]entryBlob, 0, len(a.keys))}
	for _, key := range a.keys {
		value, err := encodeValue(a.values[key])
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "payload: persist %s.%s", a.name, key)
		}
		env.Entries = append(env.Entries, entryBlob{Key: key, Value: value})
	}
	return msgpack.Marshal(env)
}

// UnmarshalBinary replaces the stored entries with the ones persisted in
// data. The blob must come from an Array of the same name; on failure a is
// unchanged.
func (a *Array) UnmarshalBinary(data []byte) error {
	env, err := decodeEnvelope(data, formatArray, a.name)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(env.Entries))
	values := make(map[string]any, len(env.Entries))
	for _, entry := range env.Entries {
		if _, dup := values[entry.Key]; dup {
			return pkgerrors.Wrapf(ErrCorruptBlob, "payload: duplicate key %q", entry.Key)
		}
		value, err := decodeValue(entry.Value)
		if err != nil {
			return err
		}
		keys = append(keys, entry.Key)
		values[entry.Key] = value
	}
	a.keys, a.values = keys, values
	return nil
}

func decodeEnvelope(data []byte, format, typeName string) (envelope, error) {
	var env envelope
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(&env); err != nil {
		return envelope{}, pkgerrors.Wrapf(ErrCorruptBlob, "payload: decode blob: %v", err)
	}
	if env.Format != format {
		return envelope{}, pkgerrors.Wrapf(ErrCorruptBlob, "payload: expected %s blob, got %q", format, env.Format)
	}
	if typeName != "" && env.Type != typeName {
		return envelope{}, pkgerrors.Wrapf(ErrCorruptBlob, "payload: blob belongs to %q, not %q", env.Type, typeName)
	}
	return env, nil
}

func (f *Field) blob() (fieldBlob, error) {
	value, err := encodeValue(f.value)
	if err != nil {
		return fieldBlob{}, err
	}
	def, err := encodeValue(f.props.Default)
	if err != nil {
		return fieldBlob{}, err
	}
	custom, err := encodeEntries(f.props.Custom)
	if err != nil {
		return fieldBlob{}, err
	}
	blob := fieldBlob{
		Key:        f.key,
		Value:      value,
		ExportAs:   f.props.ExportAs,
		Nullable:   f.props.Nullable,
		Accessible: f.props.Accessible,
		Required:   f.props.Required,
		Default:    def,
		Label:      f.props.Label,
		Custom:     custom,
	}
	if describer, ok := f.props.Validator.(validate.Describer); ok {
		if desc := describer.Describe(); desc.Kind != "" {
			blob.Validator = &desc
		}
	}
	return blob, nil
}

func (f *Field) restore(blob fieldBlob) error {
	value, err := decodeValue(blob.Value)
	if err != nil {
		return err
	}
	def, err := decodeValue(blob.Default)
	if err != nil {
		return err
	}
	var custom map[string]any
	if len(blob.Custom) > 0 {
		custom = make(map[string]any, len(blob.Custom))
		for _, entry := range blob.Custom {
			decoded, err := decodeValue(entry.Value)
			if err != nil {
				return err
			}
			custom[entry.Key] = decoded
		}
	}
	validator := f.props.Validator
	if blob.Validator != nil {
		validator, err = validate.Build(*blob.Validator)
		if err != nil {
			return pkgerrors.Wrapf(ErrCorruptBlob, "payload: restore validator for %q: %v", blob.Key, err)
		}
	}

	f.key = blob.Key
	f.value = value
	f.props = Props{
		ExportAs:   blob.ExportAs,
		Nullable:   blob.Nullable,
		Accessible: blob.Accessible,
		Required:   blob.Required,
		Default:    def,
		Label:      blob.Label,
		Validator:  validator,
		Custom:     custom,
	}
	return nil
}

func encodeEntries(values map[string]any) ([]entryBlob, error) {
	if len(values) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]entryBlob, 0, len(keys))
	for _, key := range keys {
		value, err := encodeValue(values[key])
		if err != nil {
			return nil, err
		}
		out = append(out, entryBlob{Key: key, Value: value})
	}
	return out, nil
}

func encodeValue(value any) (valueBlob, error) {
	if isNull(value) {
		return valueBlob{Kind: kindNil}, nil
	}
	switch v := value.(type) {
	case *Values:
		entries := make([]entryBlob, 0, v.Len())
		for key, item := range v.All() {
			encoded, err := encodeValue(item)
			if err != nil {
				return valueBlob{}, err
			}
			entries = append(entries, entryBlob{Key: key, Value: encoded})
		}
		return valueBlob{Kind: kindValues, Entries: entries}, nil
	case []any:
		items := make([]valueBlob, 0, len(v))
		for _, item := range v {
			encoded, err := encodeValue(item)
			if err != nil {
				return valueBlob{}, err
			}
			items = append(items, encoded)
		}
		return valueBlob{Kind: kindList, Items: items, Nil: v == nil}, nil
	case map[string]any:
		entries, err := encodeEntries(v)
		if err != nil {
			return valueBlob{}, err
		}
		return valueBlob{Kind: kindMap, Entries: entries, Nil: v == nil}, nil
	case persistable:
		name := v.PayloadName()
		if !Registered(name) {
			return valueBlob{}, fmt.Errorf("payload: nested payload type %q is not registered", name)
		}
		data, err := v.MarshalBinary()
		if err != nil {
			return valueBlob{}, err
		}
		return valueBlob{Kind: kindPayload, Type: name, Data: data}, nil
	}

	rv := reflect.ValueOf(value)
	name, ok := typeName(rv.Type())
	if !ok {
		return valueBlob{}, fmt.Errorf("payload: cannot persist %T, store plain data or a registered payload", value)
	}
	switch rv.Kind() {
	case reflect.Slice:
		return encodeTypedList(rv, name)
	case reflect.Map:
		return encodeTypedMap(rv, name)
	default:
		return valueBlob{Kind: kindRaw, Type: name, Raw: value}, nil
	}
}

func encodeTypedList(rv reflect.Value, name string) (valueBlob, error) {
	items := make([]valueBlob, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		encoded, err := encodeValue(rv.Index(i).Interface())
		if err != nil {
			return valueBlob{}, err
		}
		items = append(items, encoded)
	}
	return valueBlob{Kind: kindList, Type: name, Items: items, Nil: rv.IsNil()}, nil
}

func encodeTypedMap(rv reflect.Value, name string) (valueBlob, error) {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	entries := make([]entryBlob, 0, len(keys))
	for _, key := range keys {
		encoded, err := encodeValue(rv.MapIndex(key).Interface())
		if err != nil {
			return valueBlob{}, err
		}
		entries = append(entries, entryBlob{Key: key.String(), Value: encoded})
	}
	return valueBlob{Kind: kindMap, Type: name, Entries: entries, Nil: rv.IsNil()}, nil
}

func decodeValue(blob valueBlob) (any, error) {
	switch blob.Kind {
	case kindNil:
		return nil, nil
	case kindValues:
		out := NewValues()
		for _, entry := range blob.Entries {
			value, err := decodeValue(entry.Value)
			if err != nil {
				return nil, err
			}
			out.Set(entry.Key, value)
		}
		return out, nil
	case kindList:
		if blob.Type != "" {
			return decodeTypedList(blob)
		}
		if blob.Nil {
			return []any(nil), nil
		}
		out := make([]any, 0, len(blob.Items))
		for _, item := range blob.Items {
			value, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case kindMap:
		if blob.Type != "" {
			return decodeTypedMap(blob)
		}
		if blob.Nil {
			return map[string]any(nil), nil
		}
		out := make(map[string]any, len(blob.Entries))
		for _, entry := range blob.Entries {
			value, err := decodeValue(entry.Value)
			if err != nil {
				return nil, err
			}
			out[entry.Key] = value
		}
		return out, nil
	case kindPayload:
		target, ok := newRegistered(blob.Type)
		if !ok {
			return nil, pkgerrors.Wrapf(ErrCorruptBlob, "payload: unknown nested payload type %q", blob.Type)
		}
		if err := target.UnmarshalBinary(blob.Data); err != nil {
			return nil, err
		}
		return target, nil
	case kindRaw:
		return restoreScalar(blob.Raw, blob.Type)
	default:
		return nil, pkgerrors.Wrapf(ErrCorruptBlob, "payload: unknown value kind %q", blob.Kind)
	}
}

var scalarTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeOf(false),
	reflect.String:  reflect.TypeOf(""),
	reflect.Int:     reflect.TypeOf(int(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
}

var kindsByName = func() map[string]reflect.Kind {
	out := make(map[string]reflect.Kind, len(scalarTypes))
	for kind := range scalarTypes {
		out[kind.String()] = kind
	}
	return out
}()

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// typeName spells t in the small grammar persisted blobs understand: scalar
// kind names, "any", "[]T" and "map[string]T". Named types are spelled by
// their underlying shape.
func typeName(t reflect.Type) (string, bool) {
	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "any", true
		}
		return "", false
	case reflect.Slice:
		elem, ok := typeName(t.Elem())
		return "[]" + elem, ok
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return "", false
		}
		elem, ok := typeName(t.Elem())
		return "map[string]" + elem, ok
	}
	if _, ok := scalarTypes[t.Kind()]; ok {
		return t.Kind().String(), true
	}
	return "", false
}

func parseType(name string) (reflect.Type, error) {
	switch {
	case name == "any":
		return anyType, nil
	case strings.HasPrefix(name, "[]"):
		elem, err := parseType(strings.TrimPrefix(name, "[]"))
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case strings.HasPrefix(name, "map[string]"):
		elem, err := parseType(strings.TrimPrefix(name, "map[string]"))
		if err != nil {
			return nil, err
		}
		return reflect.MapOf(scalarTypes[reflect.String], elem), nil
	}
	if kind, ok := kindsByName[name]; ok {
		return scalarTypes[kind], nil
	}
	return nil, pkgerrors.Wrapf(ErrCorruptBlob, "payload: unknown value type %q", name)
}

func decodeTypedList(blob valueBlob) (any, error) {
	t, err := parseType(blob.Type)
	if err != nil {
		return nil, err
	}
	if t.Kind() != reflect.Slice {
		return nil, pkgerrors.Wrapf(ErrCorruptBlob, "payload: list blob typed %q", blob.Type)
	}
	if blob.Nil {
		return reflect.Zero(t).Interface(), nil
	}
	out := reflect.MakeSlice(t, 0, len(blob.Items))
	for _, item := range blob.Items {
		elem, err := decodeElement(item, t.Elem())
		if err != nil {
			return nil, err
		}
		out = reflect.Append(out, elem)
	}
	return out.Interface(), nil
}

func decodeTypedMap(blob valueBlob) (any, error) {
	t, err := parseType(blob.Type)
	if err != nil {
		return nil, err
	}
	if t.Kind() != reflect.Map {
		return nil, pkgerrors.Wrapf(ErrCorruptBlob, "payload: map blob typed %q", blob.Type)
	}
	if blob.Nil {
		return reflect.Zero(t).Interface(), nil
	}
	out := reflect.MakeMapWithSize(t, len(blob.Entries))
	for _, entry := range blob.Entries {
		elem, err := decodeElement(entry.Value, t.Elem())
		if err != nil {
			return nil, err
		}
		out.SetMapIndex(reflect.ValueOf(entry.Key), elem)
	}
	return out.Interface(), nil
}

// decodeElement restores one container element and fits it to elemType.
func decodeElement(blob valueBlob, elemType reflect.Type) (reflect.Value, error) {
	value, err := decodeValue(blob)
	if err != nil {
		return reflect.Value{}, err
	}
	if value == nil {
		switch elemType.Kind() {
		case reflect.Interface, reflect.Slice, reflect.Map:
			return reflect.Zero(elemType), nil
		}
		return reflect.Value{}, pkgerrors.Wrapf(ErrCorruptBlob, "payload: nil element in %s container", elemType)
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(elemType):
		return rv, nil
	case compatibleKinds(rv.Kind(), elemType.Kind()) && rv.Type().ConvertibleTo(elemType):
		return rv.Convert(elemType), nil
	}
	return reflect.Value{}, pkgerrors.Wrapf(ErrCorruptBlob, "payload: %T element in %s container", value, elemType)
}

// restoreScalar converts a loosely decoded scalar back to the kind recorded
// at encode time. Named scalar types come back as their underlying kind.
func restoreScalar(raw any, typeName string) (any, error) {
	if typeName == "" || raw == nil {
		return raw, nil
	}
	kind, ok := kindsByName[typeName]
	if !ok {
		return nil, pkgerrors.Wrapf(ErrCorruptBlob, "payload: unknown scalar type %q", typeName)
	}
	rv := reflect.ValueOf(raw)
	if !compatibleKinds(rv.Kind(), kind) {
		return nil, pkgerrors.Wrapf(ErrCorruptBlob, "payload: %s cannot hold %T", typeName, raw)
	}
	return rv.Convert(scalarTypes[kind]).Interface(), nil
}

func compatibleKinds(have, want reflect.Kind) bool {
	switch {
	case have == want:
		return true
	case numericKind(have) && numericKind(want):
		return true
	default:
		return false
	}
}

func numericKind(kind reflect.Kind) bool {
	return kind >= reflect.Int && kind <= reflect.Float64
}
