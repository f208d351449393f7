// Package notify delivers fire-and-forget notifications. A Fanout hands
// each notification to every configured sink (websocket push, SQS email
// queue, Kafka event stream) in the background; sink failures are logged
// and never reach the caller.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

// Sender delivers one notification to a single sink.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Event is the wire form shared by every sink.
type Event struct {
	Kind        domain.NotificationKind `json:"kind"`
	RecipientID uuid.UUID               `json:"recipient_id"`
	SessionID   uuid.UUID               `json:"session_id"`
	PatientID   uuid.UUID               `json:"patient_id"`
	OccurredAt  time.Time               `json:"occurred_at"`
}

func newEvent(n domain.Notification) Event {
	return Event{
		Kind:        n.Kind,
		RecipientID: n.RecipientID,
		SessionID:   n.SessionID,
		PatientID:   n.PatientID,
		OccurredAt:  n.OccurredAt.UTC(),
	}
}

func encode(n domain.Notification) ([]byte, error) {
	return json.Marshal(newEvent(n))
}
