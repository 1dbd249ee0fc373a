package transfer

import (
	"errors"
	"strings"
)

// SendCoinsDTO is the request payload for sending coins. The same shape is
// produced by the web form and by the Slack surfaces, so validation is
// identical regardless of where a transfer enters.
type SendCoinsDTO struct {
	ReceiverID string `json:"receiver_id"`
	Coins      int    `json:"coins"`
	Message    string `json:"message"`
	Emoji      string `json:"emoji,omitempty"`
	DedupKey   string `json:"dedup_key,omitempty"`
}

// Validate checks the fields that need no store access. Party resolution,
// the per-transfer cap and the quota check happen in the service because
// they depend on live policy and ledger state.
func (dto SendCoinsDTO) Validate() error {
	if dto.ReceiverID == "" {
		return errors.New("receiver_id is required")
	}
	if dto.Coins <= 0 {
		return errors.New("coins must be a positive integer")
	}
	if strings.TrimSpace(dto.Message) == "" {
		return ErrMissingMessage
	}
	return nil
}

type RemainingDTO struct {
	Remaining int    `json:"remaining"`
	WeekStart string `json:"week_start"`
}
