package anomaly

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/internal/audit"
	"github.com/akira-ishikawa-jpg/coin-system/internal/core/events"
	"github.com/akira-ishikawa-jpg/coin-system/internal/core/observability"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transfer"
)

// Repository is the read surface the rules need. All queries run against the
// committed ledger, after the triggering transfer is in.
type Repository interface {
	// SumBetweenPartiesInWeek totals sender→receiver coins for the week,
	// bonus rows excluded.
	SumBetweenPartiesInWeek(senderID, receiverID, weekStart string) (int, error)
	// HasReverseTransferInWeek reports whether receiver→sender rows exist
	// in the same week.
	HasReverseTransferInWeek(senderID, receiverID, weekStart string) (bool, error)
	// CountSentOnDay counts the sender's transfers in [dayStart, dayEnd).
	CountSentOnDay(senderID string, dayStart, dayEnd time.Time) (int, error)
}

// Recorder persists one audit row per flagged transfer.
type Recorder interface {
	Record(ctx context.Context, action string, actorID string, payload map[string]interface{}) error
}

// Detector runs the rule set after each committed transfer. It only
// observes and records; it never blocks or unwinds a transfer.
type Detector struct {
	repo     Repository
	recorder Recorder
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewDetector(repo Repository, recorder Recorder, eventBus *events.EventBus, logger *slog.Logger) *Detector {
	return &Detector{
		repo:     repo,
		recorder: recorder,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Evaluate applies every rule to the just-committed transfer. A rule whose
// query fails is logged and skipped; the remaining rules still run. When at
// least one rule triggers, all findings land in a single audit row.
func (d *Detector) Evaluate(senderID, receiverID string, coins int, weekStart string, now time.Time) error {
	var findings []Finding

	if f, err := d.checkLargeTransfer(senderID, receiverID, weekStart); err != nil {
		d.logger.Error("large transfer rule failed", "error", err, "sender_id", senderID)
	} else if f != nil {
		findings = append(findings, *f)
	}

	if f, err := d.checkMutualTransfer(senderID, receiverID, weekStart); err != nil {
		d.logger.Error("mutual transfer rule failed", "error", err, "sender_id", senderID)
	} else if f != nil {
		findings = append(findings, *f)
	}

	if f, err := d.checkSpam(senderID, now); err != nil {
		d.logger.Error("spam rule failed", "error", err, "sender_id", senderID)
	} else if f != nil {
		findings = append(findings, *f)
	}

	if len(findings) == 0 {
		return nil
	}

	kinds := make([]string, 0, len(findings))
	messages := make([]string, 0, len(findings))
	for _, f := range findings {
		kinds = append(kinds, f.Kind)
		messages = append(messages, f.Message)
		observability.AnomaliesTotal.WithLabelValues(f.Kind).Inc()
	}
	summary := strings.Join(messages, " / ")

	d.logger.Warn("anomaly detected",
		"sender_id", senderID,
		"receiver_id", receiverID,
		"kinds", strings.Join(kinds, ","),
		"summary", summary)

	ctx := context.Background()
	if err := d.recorder.Record(ctx, audit.ActionAnomalyDetected, senderID, map[string]interface{}{
		"kinds":       kinds,
		"summary":     summary,
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"coins":       coins,
		"week_start":  weekStart,
	}); err != nil {
		return err
	}

	d.eventBus.Publish(ctx, events.NewAnomalyDetectedEvent(senderID, kinds, summary))
	return nil
}

func (d *Detector) checkLargeTransfer(senderID, receiverID, weekStart string) (*Finding, error) {
	total, err := d.repo.SumBetweenPartiesInWeek(senderID, receiverID, weekStart)
	if err != nil {
		return nil, err
	}
	if total <= LargeTransferWeeklyLimit {
		return nil, nil
	}
	return &Finding{
		Kind:    KindLargeTransfer,
		Message: fmt.Sprintf("sent %d coins to the same receiver this week (limit %d)", total, LargeTransferWeeklyLimit),
	}, nil
}

func (d *Detector) checkMutualTransfer(senderID, receiverID, weekStart string) (*Finding, error) {
	reverse, err := d.repo.HasReverseTransferInWeek(senderID, receiverID, weekStart)
	if err != nil {
		return nil, err
	}
	if !reverse {
		return nil, nil
	}
	return &Finding{
		Kind:    KindMutualTransfer,
		Message: "reciprocal transfer between the same pair this week",
	}, nil
}

func (d *Detector) checkSpam(senderID string, now time.Time) (*Finding, error) {
	dayStart := transfer.DayStart(now)
	dayEnd := dayStart.AddDate(0, 0, 1)
	count, err := d.repo.CountSentOnDay(senderID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	if count <= SpamDailyLimit {
		return nil, nil
	}
	return &Finding{
		Kind:    KindSpam,
		Message: fmt.Sprintf("%d transfers sent today (limit %d)", count, SpamDailyLimit),
	}, nil
}
