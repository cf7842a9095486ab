package models

import "strings"

// CommandType enumerates supported operator command categories.
type CommandType string

const (
	CommandInfo        CommandType = "info"
	CommandOnline      CommandType = "online"
	CommandWhois       CommandType = "whois"
	CommandBroadcast   CommandType = "broadcast"
	CommandSubscribers CommandType = "subscribers"
	CommandReport      CommandType = "report"
	CommandHelp        CommandType = "help"
	CommandUnknown     CommandType = "unknown"
)

// Command represents a parsed operator instruction extracted from a Viber
// text message.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
	// Body is everything after the command word, case and spacing preserved.
	Body string
}

// IsCommand reports whether text is addressed to the command dispatcher.
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// ParseCommand derives a Command instance from a slash-prefixed message.
func ParseCommand(message string) Command {
	trimmed := strings.TrimSpace(message)
	cmd := Command{Type: CommandUnknown, Raw: message}

	if !strings.HasPrefix(trimmed, "/") {
		return cmd
	}

	tokens := strings.Fields(trimmed)
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandInfo, CommandOnline, CommandWhois, CommandBroadcast, CommandSubscribers, CommandReport, CommandHelp:
		cmd.Type = CommandType(head)
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
		cmd.Body = strings.TrimSpace(strings.TrimPrefix(trimmed, tokens[0]))
	}

	return cmd
}
