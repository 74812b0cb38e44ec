package schemafile

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dto/pkg/payload"
)

var errYAMLNotMapping = errors.New("schemafile: yaml input is not a mapping")

// DecodeYAML parses a YAML mapping into ordered values, keeping document
// order at every level. Scalars decode to their YAML types.
func DecodeYAML(data []byte) (*payload.Values, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("schemafile: decode yaml: %w", err)
	}
	if root.Kind == 0 {
		return payload.NewValues(), nil
	}
	value, err := nodeValue(&root)
	if err != nil {
		return nil, err
	}
	values, ok := value.(*payload.Values)
	if !ok {
		return nil, errYAMLNotMapping
	}
	return values, nil
}

func nodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return nodeValue(node.Content[0])
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	case yaml.MappingNode:
		out := payload.NewValues()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			value, err := nodeValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Set(key, value)
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := nodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("schemafile: decode yaml line %d: %w", node.Line, err)
		}
		return value, nil
	}
}
