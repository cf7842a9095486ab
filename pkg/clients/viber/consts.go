// Package viber is a client for the Viber bot REST API.
package viber

import "time"

// Version of this client, reported in the User-Agent header.
const Version = "1.0.0"

const (
	DefaultBaseURL          = "https://chatapi.viber.com/pa"
	DefaultUserAgent        = "ViberBot-Go/" + Version
	DefaultTimeout          = 10 * time.Second
	DefaultBroadcastMaxSize = 300

	// SignatureHeader carries the HMAC-SHA256 hex digest of a callback body.
	SignatureHeader = "X-Viber-Content-Signature"
)

// Bot API endpoints, relative to the base URL.
const (
	EndpointSetWebhook       = "set_webhook"
	EndpointGetAccountInfo   = "get_account_info"
	EndpointSendMessage      = "send_message"
	EndpointGetOnline        = "get_online"
	EndpointGetUserDetails   = "get_user_details"
	EndpointPost             = "post"
	EndpointBroadcastMessage = "broadcast_message"
)

// BotConfiguration identifies the bot. It is read-only after construction.
type BotConfiguration struct {
	Name      string
	Avatar    string
	AuthToken string
}

// Payload is a request body before encoding.
type Payload map[string]any

// Response is a decoded response body. Numbers are json.Number.
type Response map[string]any

// StripEmptyFields returns a copy of p without nil top-level values.
func StripEmptyFields(p Payload) Payload {
	stripped := make(Payload, len(p))
	for key, value := range p {
		if value == nil {
			continue
		}
		stripped[key] = value
	}
	return stripped
}

// nullable maps an empty string to an absent value.
func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
