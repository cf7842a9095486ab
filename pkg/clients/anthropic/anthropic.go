package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-3-haiku-20240307"
	maxTokens  = 1024

	// Viber rejects text messages longer than this.
	maxReplyLength = 7000
)

const systemPrompt = `You are the assistant behind a Viber chat bot named %q.
Answer the user's last message briefly, in the language they wrote in.
Reply with plain text only: no markdown, no code blocks.`

// ErrEmptyReply is returned when the model produced no text.
var ErrEmptyReply = errors.New("empty response from ai")

// Client defines the interface for AI text replies.
type Client interface {
	Reply(ctx context.Context, history []Message, input string) (string, error)
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicClient struct {
	httpClient *resty.Client
	url        string
	botName    string
}

// NewClient creates a configured Anthropic client answering as botName.
func NewClient(apiKey, botName string) Client {
	return newClient(apiKey, botName, apiURL)
}

func newClient(apiKey, botName, url string) *anthropicClient {
	client := resty.New().
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client, url: url, botName: botName}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Reply answers input given the earlier turns in history.
func (c *anthropicClient) Reply(ctx context.Context, history []Message, input string) (string, error) {
	turns := make([]Message, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, Message{Role: "user", Content: input})

	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    fmt.Sprintf(systemPrompt, c.botName),
		Messages:  turns,
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(c.url)
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}

	var reply strings.Builder
	for _, block := range respBody.Content {
		reply.WriteString(block.Text)
	}

	text := strings.TrimSpace(reply.String())
	if text == "" {
		return "", ErrEmptyReply
	}
	if runes := []rune(text); len(runes) > maxReplyLength {
		text = string(runes[:maxReplyLength])
	}
	return text, nil
}
