package payload

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

// DefaultMaxDepth mirrors the nesting limit applied when no WithMaxDepth
// option is supplied.
const DefaultMaxDepth = 512

var (
	errDepthExceeded = errors.New("Maximum stack depth exceeded")
	errMalformedUTF8 = errors.New("Malformed UTF-8 characters, possibly incorrectly encoded")
	errNotAnObject   = errors.New("payload: json document is not an object")
)

// JSONOption configures ToJSON.
type JSONOption func(*jsonOptions)

type jsonOptions struct {
	escapeHTML bool
	sortKeys   bool
	indent     int
	maxDepth   int
}

func defaultJSONOptions() jsonOptions {
	return jsonOptions{maxDepth: DefaultMaxDepth}
}

// WithEscapeHTML escapes <, > and & inside strings.
func WithEscapeHTML() JSONOption {
	return func(o *jsonOptions) {
		o.escapeHTML = true
	}
}

// WithSortedKeys emits object keys in lexical order instead of declaration
// order.
func WithSortedKeys() JSONOption {
	return func(o *jsonOptions) {
		o.sortKeys = true
	}
}

// WithIndent pretty prints using step spaces per nesting level.
func WithIndent(step int) JSONOption {
	return func(o *jsonOptions) {
		if step > 0 {
			o.indent = step
		}
	}
}

// WithMaxDepth bounds object/array nesting. Exceeding it is an encoding
// failure.
func WithMaxDepth(depth int) JSONOption {
	return func(o *jsonOptions) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

type apiKey struct {
	escapeHTML bool
	indent     int
}

var apis sync.Map

func apiFor(opts jsonOptions) jsoniter.API {
	key := apiKey{escapeHTML: opts.escapeHTML, indent: opts.indent}
	if cached, ok := apis.Load(key); ok {
		return cached.(jsoniter.API)
	}
	api := jsoniter.Config{
		EscapeHTML:             opts.escapeHTML,
		SortMapKeys:            true,
		IndentionStep:          opts.indent,
		ValidateJsonRawMessage: true,
	}.Froze()
	actual, _ := apis.LoadOrStore(key, api)
	return actual.(jsoniter.API)
}

// EncodeJSON encodes an exported value (usually the result of ToArray) with
// the supplied options. Failures are reported as *JSONEncodingError naming
// payloadName.
func EncodeJSON(payloadName string, value any, options ...JSONOption) ([]byte, error) {
	opts := defaultJSONOptions()
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	out, err := encodeJSON(value, opts)
	if err != nil {
		return nil, &JSONEncodingError{Payload: payloadName, Message: err.Error(), Err: err}
	}
	return out, nil
}

func encodeJSON(value any, opts jsonOptions) ([]byte, error) {
	api := apiFor(opts)
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	enc := &jsonEncoder{stream: stream, opts: opts}
	if err := enc.encode(value); err != nil {
		return nil, err
	}
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

type jsonEncoder struct {
	stream *jsoniter.Stream
	opts   jsonOptions
	depth  int
}

func (e *jsonEncoder) encode(value any) error {
	switch v := value.(type) {
	case nil:
		e.stream.WriteNil()
	case *Values:
		if v == nil {
			e.stream.WriteNil()
			return nil
		}
		keys := v.Keys()
		if e.opts.sortKeys {
			sort.Strings(keys)
		}
		return e.object(keys, func(key string) any { return v.values[key] })
	case map[string]any:
		if v == nil {
			e.stream.WriteNil()
			return nil
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return e.object(keys, func(key string) any { return v[key] })
	case []any:
		if v == nil {
			e.stream.WriteNil()
			return nil
		}
		return e.array(v)
	case string:
		if !utf8.ValidString(v) {
			return errMalformedUTF8
		}
		if e.opts.escapeHTML {
			e.stream.WriteStringWithHTMLEscaped(v)
		} else {
			e.stream.WriteString(v)
		}
	case Exporter:
		return e.encode(v.ToArray())
	default:
		e.stream.WriteVal(v)
	}
	return e.stream.Error
}

func (e *jsonEncoder) enter() error {
	e.depth++
	if e.depth > e.opts.maxDepth {
		return errDepthExceeded
	}
	return nil
}

func (e *jsonEncoder) object(keys []string, lookup func(string) any) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer func() { e.depth-- }()

	if len(keys) == 0 {
		e.stream.WriteEmptyObject()
		return nil
	}
	e.stream.WriteObjectStart()
	for i, key := range keys {
		if i > 0 {
			e.stream.WriteMore()
		}
		if !utf8.ValidString(key) {
			return errMalformedUTF8
		}
		e.stream.WriteObjectField(key)
		if err := e.encode(lookup(key)); err != nil {
			return err
		}
	}
	e.stream.WriteObjectEnd()
	return e.stream.Error
}

func (e *jsonEncoder) array(items []any) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer func() { e.depth-- }()

	if len(items) == 0 {
		e.stream.WriteEmptyArray()
		return nil
	}
	e.stream.WriteArrayStart()
	for i, item := range items {
		if i > 0 {
			e.stream.WriteMore()
		}
		if err := e.encode(item); err != nil {
			return err
		}
	}
	e.stream.WriteArrayEnd()
	return e.stream.Error
}

func decodeOrderedJSON(data []byte) (any, error) {
	api := jsoniter.ConfigCompatibleWithStandardLibrary
	if !api.Valid(data) {
		return nil, errors.New("payload: decode json: invalid document")
	}
	it := api.BorrowIterator(data)
	defer api.ReturnIterator(it)

	value := readOrdered(it)
	if it.Error != nil && !errors.Is(it.Error, io.EOF) {
		return nil, fmt.Errorf("payload: decode json: %w", it.Error)
	}
	if it.WhatIsNext() != jsoniter.InvalidValue {
		return nil, errors.New("payload: decode json: trailing data after document")
	}
	return value, nil
}

func readOrdered(it *jsoniter.Iterator) any {
	switch it.WhatIsNext() {
	case jsoniter.ObjectValue:
		out := NewValues()
		it.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			out.Set(key, readOrdered(it))
			return it.Error == nil
		})
		return out
	case jsoniter.ArrayValue:
		out := []any{}
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			out = append(out, readOrdered(it))
			return it.Error == nil
		})
		return out
	case jsoniter.NumberValue:
		return readNumber(it)
	default:
		return it.Read()
	}
}

// readNumber keeps integral literals as int64, or uint64 above the int64
// range, so large identifiers survive a round trip. Everything else is
// float64.
func readNumber(it *jsoniter.Iterator) any {
	literal := string(it.ReadNumber())
	if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return n
	}
	if n, err := strconv.ParseUint(literal, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		it.ReportError("readNumber", err.Error())
		return nil
	}
	return f
}
