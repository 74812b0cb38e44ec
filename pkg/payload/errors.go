package payload

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidData matches every *InvalidDataError through errors.Is.
	ErrInvalidData = errors.New("payload: invalid data")
	// ErrJSONEncoding matches every *JSONEncodingError through errors.Is.
	ErrJSONEncoding = errors.New("payload: json encoding failed")
	// ErrCorruptBlob reports a persisted blob that is malformed or that was
	// produced by a different container type.
	ErrCorruptBlob = errors.New("payload: corrupt or foreign blob")
)

const (
	hintFixIt      = "You must to fix it"
	hintUndeclared = "Key does not exist on payload map"
	hintEmpty      = "Cannot be empty value"
)

// InvalidDataError reports a value rejected by a payload. Value holds the raw
// string when the offending value was textual, otherwise its type name.
type InvalidDataError struct {
	Payload string
	Key     string
	Value   string
	Hint    string
	Err     error
}

// NewInvalidData builds an InvalidDataError for the named payload.
func NewInvalidData(payloadName, key string, value any, hint string) *InvalidDataError {
	if hint == "" {
		hint = "Fix it"
	}
	return &InvalidDataError{
		Payload: payloadName,
		Key:     key,
		Value:   describeValue(value),
		Hint:    hint,
	}
}

func (e *InvalidDataError) Error() string {
	return fmt.Sprintf("payload: unexpected value to argument `%s` as `%s` in payload `%s`: %s", e.Key, e.Value, e.Payload, e.Hint)
}

// Is reports ErrInvalidData as a match.
func (e *InvalidDataError) Is(target error) bool {
	return target == ErrInvalidData
}

func (e *InvalidDataError) Unwrap() error {
	return e.Err
}

// JSONEncodingError wraps a failure reported by the JSON encoder.
type JSONEncodingError struct {
	Payload string
	Message string
	Err     error
}

func (e *JSONEncodingError) Error() string {
	return fmt.Sprintf("payload: error while encoding `%s` data to JSON: %s", e.Payload, e.Message)
}

// Is reports ErrJSONEncoding as a match.
func (e *JSONEncodingError) Is(target error) bool {
	return target == ErrJSONEncoding
}

func (e *JSONEncodingError) Unwrap() error {
	return e.Err
}

// AsInvalidData extracts the first InvalidDataError in err's chain.
func AsInvalidData(err error) (*InvalidDataError, bool) {
	var target *InvalidDataError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func describeValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// validatesWith runs validate and converts InvalidData failures into false.
// Any other error is a defect in the payload graph and is re-raised.
func validatesWith(validate func() error) bool {
	err := validate()
	if err == nil {
		return true
	}
	if errors.Is(err, ErrInvalidData) {
		return false
	}
	panic(err)
}
