package slack

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCommandCoins is used when the slash command omits an amount.
const DefaultCommandCoins = 5

var (
	ErrMalformedCommand = errors.New("could not parse command")
	ErrUnknownSlackUser = errors.New("slack user is not linked to an employee")
)

// Command is the parsed form of "/thanks @user [coins] message".
type Command struct {
	ReceiverSlackID string
	Coins           int
	Message         string
}

// Slack expands "@user" to "<@U123ABC>" or "<@U123ABC|display>".
var commandPattern = regexp.MustCompile(`^<@([A-Z0-9]+)(?:\|[^>]*)?>\s+(?:(\d+)\s+)?(.+)$`)

// ParseCommand parses the slash command text. The coin amount is optional
// and defaults to DefaultCommandCoins; everything after it is the message.
func ParseCommand(text string) (*Command, error) {
	text = strings.TrimSpace(text)
	m := commandPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, ErrMalformedCommand
	}

	coins := DefaultCommandCoins
	if m[2] != "" {
		parsed, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, ErrMalformedCommand
		}
		coins = parsed
	}

	message := strings.TrimSpace(m[3])
	if message == "" {
		return nil, ErrMalformedCommand
	}

	return &Command{
		ReceiverSlackID: m[1],
		Coins:           coins,
		Message:         message,
	}, nil
}

// UsageHint is the ephemeral reply for malformed commands.
func UsageHint(command string) string {
	return fmt.Sprintf("Usage: %s @teammate [coins] thank-you message (coins default to %d)",
		command, DefaultCommandCoins)
}
