package suggestions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"gopkg.in/yaml.v3"
)

// ErrMalformedResponse is returned when the backend body does not match the
// expected suggestion shape.
var ErrMalformedResponse = errors.New("malformed suggestion response")

// Item is one detected piece of furniture and the products suggested for it.
type Item struct {
	Name        string
	Suggestions []string
}

// Response is the decoded result of a successful upload. Items keep the order
// in which the backend sent them.
type Response struct {
	Items           []Item
	ProminentColors []string
}

// Parse validates a backend body and decodes it without losing key order.
func Parse(body []byte) (*Response, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedResponse)
	}

	suggestionsRaw, dataType, _, err := jsonparser.Get(body, "suggestions")
	if err != nil || dataType != jsonparser.Object {
		return nil, fmt.Errorf("%w: suggestions must be an object", ErrMalformedResponse)
	}

	resp := &Response{Items: []Item{}, ProminentColors: []string{}}
	err = jsonparser.ObjectEach(suggestionsRaw, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		// ObjectEach hands over keys already unescaped
		name := string(key)
		if dataType != jsonparser.Array {
			return fmt.Errorf("%w: suggestions for %q must be an array", ErrMalformedResponse, name)
		}
		list, err := parseStrings(value)
		if err != nil {
			return fmt.Errorf("%w: suggestions for %q: %v", ErrMalformedResponse, name, err)
		}
		resp.Items = append(resp.Items, Item{Name: name, Suggestions: list})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	colorsRaw, dataType, _, err := jsonparser.Get(body, "prominent_colors")
	if err != nil || dataType != jsonparser.Array {
		return nil, fmt.Errorf("%w: prominent_colors must be an array", ErrMalformedResponse)
	}
	colors, err := parseStrings(colorsRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: prominent_colors: %v", ErrMalformedResponse, err)
	}
	resp.ProminentColors = colors

	return resp, nil
}

func parseStrings(array []byte) ([]string, error) {
	out := []string{}
	var firstErr error
	_, err := jsonparser.ArrayEach(array, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if firstErr != nil {
			return
		}
		if err != nil {
			firstErr = err
			return
		}
		if dataType != jsonparser.String {
			firstErr = fmt.Errorf("element %d is %s, want string", len(out), dataType)
			return
		}
		s, err := jsonparser.ParseString(value)
		if err != nil {
			firstErr = err
			return
		}
		out = append(out, s)
	})
	if err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// MarshalJSON writes the backend wire shape with items in received order.
func (r Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"suggestions":{`)
	for i, item := range r.Items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Name)
		if err != nil {
			return nil, err
		}
		list := item.Suggestions
		if list == nil {
			list = []string{}
		}
		value, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteString(`},"prominent_colors":`)
	colors := r.ProminentColors
	if colors == nil {
		colors = []string{}
	}
	value, err := json.Marshal(colors)
	if err != nil {
		return nil, err
	}
	buf.Write(value)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML keeps item order by emitting an explicit mapping node.
func (r Response) MarshalYAML() (interface{}, error) {
	items := &yaml.Node{Kind: yaml.MappingNode}
	for _, item := range r.Items {
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, s := range item.Suggestions {
			list.Content = append(list.Content, scalar(s))
		}
		items.Content = append(items.Content, scalar(item.Name), list)
	}

	colors := &yaml.Node{Kind: yaml.SequenceNode}
	for _, c := range r.ProminentColors {
		colors.Content = append(colors.Content, scalar(c))
	}

	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalar("suggestions"), items,
			scalar("prominent_colors"), colors,
		},
	}, nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
