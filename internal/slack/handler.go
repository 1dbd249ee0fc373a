package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/akira-ishikawa-jpg/coin-system/internal/reaction"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transfer"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transport"
	"github.com/akira-ishikawa-jpg/coin-system/pkg/logger"
)

// Directory resolves Slack user IDs to employee IDs.
type Directory interface {
	EmployeeIDBySlackID(slackID string) (string, error)
}

// TransferAPI is the slice of the transfer service the Slack surface uses.
type TransferAPI interface {
	SubmitTransfer(ctx context.Context, senderID string, dto transfer.SendCoinsDTO, origin string) (*transfer.TransferResult, error)
}

// ReactionAPI is the slice of the reaction service the Slack surface uses.
type ReactionAPI interface {
	Toggle(employeeID, transactionID string) (*reaction.ToggleResult, error)
}

type Handler struct {
	*transport.BaseHandler
	directory Directory
	transfers TransferAPI
	reactions ReactionAPI
}

func NewHandler(directory Directory, transfers TransferAPI, reactions ReactionAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		directory:   directory,
		transfers:   transfers,
		reactions:   reactions,
	}
}

// commandResponse is Slack's expected slash-command reply shape.
type commandResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

func ephemeral(text string) commandResponse {
	return commandResponse{ResponseType: "ephemeral", Text: text}
}

func inChannel(text string) commandResponse {
	return commandResponse{ResponseType: "in_channel", Text: text}
}

// HandleCommand processes the slash command. Slack posts it as a form; the
// reply is an immediate JSON body. Errors are ephemeral so only the sender
// sees them.
func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	senderSlackID := r.PostFormValue("user_id")
	commandName := r.PostFormValue("command")
	text := r.PostFormValue("text")
	triggerID := r.PostFormValue("trigger_id")

	cmd, err := ParseCommand(text)
	if err != nil {
		h.WriteJSON(w, http.StatusOK, ephemeral(UsageHint(commandName)))
		return
	}

	senderID, err := h.directory.EmployeeIDBySlackID(senderSlackID)
	if err != nil {
		h.Logger.Warn("slash command from unlinked slack user", "slack_id", senderSlackID)
		h.WriteJSON(w, http.StatusOK, ephemeral("Your Slack account is not linked to an employee profile."))
		return
	}

	receiverID, err := h.directory.EmployeeIDBySlackID(cmd.ReceiverSlackID)
	if err != nil {
		h.WriteJSON(w, http.StatusOK, ephemeral("That teammate is not linked to an employee profile."))
		return
	}

	dto := transfer.SendCoinsDTO{
		ReceiverID: receiverID,
		Coins:      cmd.Coins,
		Message:    cmd.Message,
	}
	// Slack retries commands on timeout; the trigger ID dedups the retry.
	if triggerID != "" {
		dto.DedupKey = "slack:" + triggerID
	}

	result, err := h.transfers.SubmitTransfer(r.Context(), senderID, dto, transfer.OriginSlack)
	if err != nil {
		h.WriteJSON(w, http.StatusOK, ephemeral(commandErrorText(err)))
		return
	}

	h.WriteJSON(w, http.StatusOK, inChannel(fmt.Sprintf(
		"<@%s> sent %d coins to <@%s>: %s (you have %d left this week)",
		senderSlackID, result.Transfer.Coins, cmd.ReceiverSlackID, result.Transfer.Message, result.Remaining)))
}

// interactionPayload is the subset of Slack's block_actions payload we use.
type interactionPayload struct {
	Type string `json:"type"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
}

const actionToggleLike = "toggle_like"

// HandleInteraction processes block actions, currently just the like button
// under transfer announcements. The button value carries the transaction ID.
func (h *Handler) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	var payload interactionPayload
	if err := json.Unmarshal([]byte(r.PostFormValue("payload")), &payload); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid interaction payload")
		return
	}

	if payload.Type != "block_actions" || len(payload.Actions) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}

	action := payload.Actions[0]
	if action.ActionID != actionToggleLike {
		w.WriteHeader(http.StatusOK)
		return
	}

	employeeID, err := h.directory.EmployeeIDBySlackID(payload.User.ID)
	if err != nil {
		h.WriteJSON(w, http.StatusOK, ephemeral("Your Slack account is not linked to an employee profile."))
		return
	}

	result, err := h.reactions.Toggle(employeeID, action.Value)
	if err != nil {
		if errors.Is(err, reaction.ErrSelfLike) {
			h.WriteJSON(w, http.StatusOK, ephemeral("You cannot like your own transfer."))
			return
		}
		h.Logger.Error("like toggle from slack failed", "error", err, "transaction_id", action.Value)
		h.WriteJSON(w, http.StatusOK, ephemeral("Something went wrong, try again."))
		return
	}

	verb := "Unliked"
	if result.Liked {
		verb = "Liked"
	}
	h.WriteJSON(w, http.StatusOK, ephemeral(fmt.Sprintf("%s. %d likes now.", verb, result.Count)))
}

func commandErrorText(err error) string {
	var amountErr *transfer.AmountOutOfRangeError
	var quotaErr *transfer.QuotaExceededError

	switch {
	case errors.Is(err, transfer.ErrSelfTransfer):
		return "You cannot send coins to yourself."
	case errors.Is(err, transfer.ErrUnknownParty):
		return "Sender or receiver is not a registered employee."
	case errors.Is(err, transfer.ErrMissingMessage):
		return "A thank-you message is required."
	case errors.As(err, &amountErr):
		return fmt.Sprintf("Coins must be between 1 and %d.", amountErr.Cap)
	case errors.As(err, &quotaErr):
		return fmt.Sprintf("Not enough coins left this week: %d remaining.", quotaErr.Remaining)
	default:
		return "Something went wrong, try again."
	}
}
