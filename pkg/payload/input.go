package payload

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DecodeInput normalises import input into ordered Values.
//
// Accepted inputs are *Values, map[string]any, map[string]string, nested
// payloads (their ToArray), and JSON text as string, []byte or
// json.RawMessage. JSON that fails to decode, or that is not an object, is
// treated as absent input and yields an empty mapping. Plain Go maps are
// visited in sorted key order. Any other input type is a programming error.
func DecodeInput(input any) (*Values, error) {
	switch v := input.(type) {
	case nil:
		return NewValues(), nil
	case *Values:
		if v == nil {
			return NewValues(), nil
		}
		return v, nil
	case map[string]any:
		return sortedValues(v), nil
	case map[string]string:
		generic := make(map[string]any, len(v))
		for key, value := range v {
			generic[key] = value
		}
		return sortedValues(generic), nil
	case Exporter:
		if isNull(v) {
			return NewValues(), nil
		}
		return v.ToArray(), nil
	case string:
		return decodeJSONInput([]byte(v)), nil
	case []byte:
		return decodeJSONInput(v), nil
	case json.RawMessage:
		return decodeJSONInput(v), nil
	default:
		return nil, fmt.Errorf("payload: unsupported import input %T", input)
	}
}

func decodeJSONInput(data []byte) *Values {
	decoded, err := decodeOrderedJSON(data)
	if err != nil {
		return NewValues()
	}
	values, ok := decoded.(*Values)
	if !ok {
		return NewValues()
	}
	return values
}

func sortedValues(input map[string]any) *Values {
	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := NewValues()
	for _, key := range keys {
		out.Set(key, input[key])
	}
	return out
}
