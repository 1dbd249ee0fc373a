package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTransferCreated = "transfer.created"
	EventTypeAnomalyDetected = "anomaly.detected"
	EventTypeBonusGranted    = "bonus.granted"
)

type TransferCreatedEvent struct {
	BaseEvent
	TransactionID string `json:"transaction_id"`
	SenderID      string `json:"sender_id"`
	SenderName    string `json:"sender_name"`
	ReceiverID    string `json:"receiver_id"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverSlack string `json:"receiver_slack,omitempty"`
	Coins         int    `json:"coins"`
	Message       string `json:"message"`
}

func NewTransferCreatedEvent(txID, senderID, senderName, receiverID, receiverName, receiverSlack string, coins int, message string) *TransferCreatedEvent {
	return &TransferCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTransferCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"transaction_id": txID,
				"sender_id":      senderID,
				"receiver_id":    receiverID,
				"coins":          coins,
			},
		},
		TransactionID: txID,
		SenderID:      senderID,
		SenderName:    senderName,
		ReceiverID:    receiverID,
		ReceiverName:  receiverName,
		ReceiverSlack: receiverSlack,
		Coins:         coins,
		Message:       message,
	}
}

type AnomalyDetectedEvent struct {
	BaseEvent
	SenderID string   `json:"sender_id"`
	Kinds    []string `json:"kinds"`
	Summary  string   `json:"summary"`
}

func NewAnomalyDetectedEvent(senderID string, kinds []string, summary string) *AnomalyDetectedEvent {
	return &AnomalyDetectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeAnomalyDetected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"sender_id": senderID,
				"kinds":     kinds,
			},
		},
		SenderID: senderID,
		Kinds:    kinds,
		Summary:  summary,
	}
}

type BonusGrantedEvent struct {
	BaseEvent
	AdminID    string `json:"admin_id"`
	EmployeeID string `json:"employee_id"`
	Coins      int    `json:"coins"`
	Reason     string `json:"reason"`
}

func NewBonusGrantedEvent(adminID, employeeID string, coins int, reason string) *BonusGrantedEvent {
	return &BonusGrantedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBonusGranted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"admin_id":    adminID,
				"employee_id": employeeID,
				"coins":       coins,
			},
		},
		AdminID:    adminID,
		EmployeeID: employeeID,
		Coins:      coins,
		Reason:     reason,
	}
}
