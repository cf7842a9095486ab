package events

import (
	"encoding/json"

	"github.com/mamadbah2/viberbot/pkg/clients/viber/messages"
)

// Webhook is the callback sent when the webhook is registered, and the
// fallback for callbacks that carry nothing beyond the base fields.
type Webhook struct {
	Base
}

func (e *Webhook) decode(fields map[string]json.RawMessage) error {
	return e.decodeBase("", fields)
}

// MessageEvent is a message sent by a user to the bot.
type MessageEvent struct {
	Base
	MessageToken Token
	Sender       UserProfile
	Message      messages.Message
	ChatID       string
	ReplyType    string
	Silent       bool
}

func (e *MessageEvent) decode(fields map[string]json.RawMessage) error {
	if err := e.decodeBase(TypeMessage, fields); err != nil {
		return err
	}

	var rawMessage json.RawMessage
	if err := required(fields, "message", &rawMessage); err != nil {
		return err
	}
	message, err := messages.Decode(rawMessage)
	if err != nil {
		return err
	}
	e.Message = message

	if err := required(fields, "sender", &e.Sender); err != nil {
		return err
	}
	if err := required(fields, "message_token", &e.MessageToken); err != nil {
		return err
	}
	if err := optional(fields, "chat_id", &e.ChatID); err != nil {
		return err
	}
	if err := optional(fields, "reply_type", &e.ReplyType); err != nil {
		return err
	}
	return optional(fields, "silent", &e.Silent)
}

// Subscribed is sent when a user subscribes to the bot.
type Subscribed struct {
	Base
	User       UserProfile
	APIVersion int
}

func (e *Subscribed) decode(fields map[string]json.RawMessage) error {
	if err := e.decodeBase(TypeSubscribed, fields); err != nil {
		return err
	}
	if err := required(fields, "user", &e.User); err != nil {
		return err
	}
	return optional(fields, "api_version", &e.APIVersion)
}

// Unsubscribed is sent when a user unsubscribes from the bot.
type Unsubscribed struct {
	Base
	UserID string
}

func (e *Unsubscribed) decode(fields map[string]json.RawMessage) error {
	if err := e.decodeBase(TypeUnsubscribed, fields); err != nil {
		return err
	}
	return required(fields, "user_id", &e.UserID)
}

// ConversationStarted is sent when a user opens a conversation with the bot.
// The bot may answer it with a single welcome message.
type ConversationStarted struct {
	Base
	MessageToken Token
	Kind         string
	User         UserProfile
	Context      string
	Subscribed   bool
	APIVersion   int
}

func (e *ConversationStarted) decode(fields map[string]json.RawMessage) error {
	if err := e.decodeBase(TypeConversationStarted, fields); err != nil {
		return err
	}
	if err := required(fields, "message_token", &e.MessageToken); err != nil {
		return err
	}
	if err := required(fields, "type", &e.Kind); err != nil {
		return err
	}
	if err := required(fields, "user", &e.User); err != nil {
		return err
	}
	if err := optional(fields, "context", &e.Context); err != nil {
		return err
	}
	if err := optional(fields, "subscribed", &e.Subscribed); err != nil {
		return err
	}
	return optional(fields, "api_version", &e.APIVersion)
}

// Delivered acknowledges delivery of a bot message to a device.
type Delivered struct {
	Base
	MessageToken Token
	UserID       string
	ChatID       string
}

func (e *Delivered) decode(fields map[string]json.RawMessage) error {
	if err := e.decodeBase(TypeDelivered, fields); err != nil {
		return err
	}
	if err := required(fields, "message_token", &e.MessageToken); err != nil {
		return err
	}
	if err := required(fields, "user_id", &e.UserID); err != nil {
		return err
	}
	return optional(fields, "chat_id", &e.ChatID)
}

// Seen acknowledges that the user opened a bot message.
type Seen struct {
	Base
	MessageToken Token
	UserID       string
	ChatID       string
}

func (e *Seen) decode(fields map[string]json.RawMessage) error {
	if err := e.decodeBase(TypeSeen, fields); err != nil {
		return err
	}
	if err := required(fields, "message_token", &e.MessageToken); err != nil {
		return err
	}
	if err := required(fields, "user_id", &e.UserID); err != nil {
		return err
	}
	return optional(fields, "chat_id", &e.ChatID)
}

// Failed reports a bot message that could not be delivered. All fields
// beyond the base are optional.
type Failed struct {
	Base
	MessageToken Token
	UserID       string
	Desc         string
}

func (e *Failed) decode(fields map[string]json.RawMessage) error {
	if err := e.decodeBase(TypeFailed, fields); err != nil {
		return err
	}
	if err := optional(fields, "message_token", &e.MessageToken); err != nil {
		return err
	}
	if err := optional(fields, "user_id", &e.UserID); err != nil {
		return err
	}
	return optional(fields, "desc", &e.Desc)
}
