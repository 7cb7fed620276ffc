// Package report turns a completed evaluation into a narrative report
// through a text-generation service.
package report

import (
	"context"
	"errors"
	"strings"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
)

// Snapshot is the evaluation data a generator sees.
type Snapshot struct {
	EvaluationID       uint
	InternID           string
	Rating             int
	ManagerComment     string
	MonthsWorked       int
	InternComment      string
	HRComment          string
	HRRatingAdjustment int
}

func SnapshotOf(e *domain.Evaluation) Snapshot {
	s := Snapshot{
		EvaluationID:   e.ID,
		InternID:       e.InternID,
		Rating:         e.Rating,
		ManagerComment: e.ManagerComment,
		MonthsWorked:   e.MonthsWorked,
	}
	if e.InternComment != nil {
		s.InternComment = *e.InternComment
	}
	if e.HRComment != nil {
		s.HRComment = *e.HRComment
	}
	if e.HRRatingAdjustment != nil {
		s.HRRatingAdjustment = *e.HRRatingAdjustment
	}
	return s
}

type Generator interface {
	Generate(ctx context.Context, s Snapshot) (string, error)
}

// Outcome is the result of one generation attempt. Exactly one of Text
// and Err is set.
type Outcome struct {
	Text string
	Err  error
}

func (o Outcome) OK() bool { return o.Err == nil }

var errEmptyReport = errors.New("generator returned an empty report")

// Attempt runs g once and normalizes the result. Every failure comes back
// as a domain generation error; nothing panics through.
func Attempt(ctx context.Context, g Generator, s Snapshot) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: domain.Generation(errors.New("generator panicked"))}
		}
	}()
	text, err := g.Generate(ctx, s)
	if err != nil {
		return Outcome{Err: domain.Generation(err)}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Err: domain.Generation(errEmptyReport)}
	}
	return Outcome{Text: text}
}

// Unavailable always fails; it stands in when no provider is configured.
type Unavailable struct{ Reason string }

func (u Unavailable) Generate(context.Context, Snapshot) (string, error) {
	return "", domain.Generation(errors.New(u.Reason))
}
