// Package messages models the outbound message kinds accepted by the Viber
// bot API and decodes the same shapes when they arrive inside webhook events.
package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type is the wire discriminator stored under the "type" key.
type Type string

const (
	TypeText      Type = "text"
	TypePicture   Type = "picture"
	TypeVideo     Type = "video"
	TypeFile      Type = "file"
	TypeURL       Type = "url"
	TypeLocation  Type = "location"
	TypeContact   Type = "contact"
	TypeSticker   Type = "sticker"
	TypeRichMedia Type = "rich_media"
	TypeKeyboard  Type = "keyboard"
)

// Message is implemented by every message variant in this package.
type Message interface {
	Type() Type
	Validate() bool
}

// Common holds the optional fields shared by every variant.
type Common struct {
	TrackingData  string         `json:"tracking_data,omitempty"`
	Keyboard      map[string]any `json:"keyboard,omitempty"`
	MinAPIVersion int            `json:"min_api_version,omitempty"`
}

// ToMap renders the wire mapping of m. Unset fields are absent and numbers
// are kept as json.Number.
func ToMap(m Message) (map[string]any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", m.Type(), err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	fields := make(map[string]any)
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode %s message: %w", m.Type(), err)
	}
	return fields, nil
}

// Apply overwrites the fields of m whose keys are present in fields and
// leaves the rest untouched. A present key replaces the whole field, so
// nested objects are not merged and null resets the field. m must be a
// non-nil pointer to a variant.
func Apply(m Message, fields map[string]any) error {
	target := reflect.ValueOf(m)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("apply message fields: %T is not a message pointer", m)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode message fields: %w", err)
	}

	patch := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(data, patch.Interface()); err != nil {
		return fmt.Errorf("apply %s message fields: %w", m.Type(), err)
	}

	copyPresent(target.Elem(), patch.Elem(), fields)
	return nil
}

// copyPresent copies from src to dst the struct fields whose json name is a
// key of fields, descending into embedded structs.
func copyPresent(dst, src reflect.Value, fields map[string]any) {
	structType := dst.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			copyPresent(dst.Field(i), src.Field(i), fields)
			continue
		}

		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		if _, ok := fields[name]; ok {
			dst.Field(i).Set(src.Field(i))
		}
	}
}

// String renders m for diagnostics.
func String(m Message) string {
	if m == nil {
		return "<nil>"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%s [%+v]", m.Type(), m)
	}
	return fmt.Sprintf("%s %s", m.Type(), data)
}
