package slack

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akira-ishikawa-jpg/coin-system/internal/core/events"
)

// Poster is the delivery surface the notifier needs; the Client satisfies it.
type Poster interface {
	PostMessage(channel, text string) error
}

// Notifier turns domain events into channel messages. All deliveries are
// best-effort; the ledger is the source of truth, Slack is a mirror.
type Notifier struct {
	poster    Poster
	channelID string
	logger    *slog.Logger
}

func NewNotifier(poster Poster, channelID string, logger *slog.Logger) *Notifier {
	return &Notifier{
		poster:    poster,
		channelID: channelID,
		logger:    logger,
	}
}

// Register subscribes the notifier to the events it announces.
func (n *Notifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeTransferCreated, n.onTransferCreated)
	bus.Subscribe(events.EventTypeBonusGranted, n.onBonusGranted)
}

func (n *Notifier) onTransferCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.TransferCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	receiver := e.ReceiverName
	if e.ReceiverSlack != "" {
		receiver = fmt.Sprintf("<@%s>", e.ReceiverSlack)
	}

	text := fmt.Sprintf("🪙 %s sent %d coins to %s: %s", e.SenderName, e.Coins, receiver, e.Message)
	return n.poster.PostMessage(n.channelID, text)
}

func (n *Notifier) onBonusGranted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.BonusGrantedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	text := fmt.Sprintf("🎁 A bonus of %d coins was granted: %s", e.Coins, e.Reason)
	return n.poster.PostMessage(n.channelID, text)
}
