package messages

import (
	"encoding/json"
	"fmt"

	"github.com/mamadbah2/viberbot/pkg/clients/viber/errs"
)

var registry = map[Type]func() Message{
	TypeURL:       func() Message { return &URL{} },
	TypeLocation:  func() Message { return &Location{} },
	TypePicture:   func() Message { return &Picture{} },
	TypeContact:   func() Message { return &Contact{} },
	TypeFile:      func() Message { return &File{} },
	TypeText:      func() Message { return &Text{} },
	TypeVideo:     func() Message { return &Video{} },
	TypeSticker:   func() Message { return &Sticker{} },
	TypeRichMedia: func() Message { return &RichMedia{} },
	TypeKeyboard:  func() Message { return &Keyboard{} },
}

// Decode builds the variant selected by the "type" key of a JSON object.
// The returned message is always a pointer.
func Decode(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	raw, ok := fields["type"]
	if !ok {
		return nil, errs.NewValidationError("message data doesn't contain a type")
	}

	var messageType Type
	if err := json.Unmarshal(raw, &messageType); err != nil {
		return nil, errs.Validationf("message type '%s' is not supported", raw)
	}

	newMessage, ok := registry[messageType]
	if !ok {
		return nil, errs.Validationf("message type '%s' is not supported", messageType)
	}

	message := newMessage()
	if err := json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("decode %s message: %w", messageType, err)
	}
	return message, nil
}

// FromMap is Decode for an already parsed mapping.
func FromMap(fields map[string]any) (Message, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode message fields: %w", err)
	}
	return Decode(data)
}
