// Package events announces workflow transitions to other systems.
// Publishing is best effort: callers log failures and move on.
package events

import (
	"context"
	"time"

	"github.com/Divyaanshvats/intern-management-system/pkg/utils"
)

const (
	TypeEvaluationCreated   = "evaluation.created"
	TypeFeedbackSubmitted   = "evaluation.feedback_submitted"
	TypeEvaluationCompleted = "evaluation.completed"
	TypeReportGenerated     = "evaluation.report_generated"
)

type Event struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	EvaluationID uint      `json:"evaluation_id"`
	InternID     string    `json:"intern_id"`
	Actor        string    `json:"actor"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func New(typ string, evaluationID uint, internID, actor, status string) Event {
	return Event{
		ID:           utils.NewID(),
		Type:         typ,
		EvaluationID: evaluationID,
		InternID:     internID,
		Actor:        actor,
		Status:       status,
		OccurredAt:   time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
