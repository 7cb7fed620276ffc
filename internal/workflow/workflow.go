// Package workflow holds the evaluation state machine: which role may
// drive each transition, from which status, and the input rules that
// guard it. It has no storage or transport dependencies.
package workflow

import (
	"strings"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
)

type Transition string

const (
	Create         Transition = "create"
	InternFeedback Transition = "intern_feedback"
	HRReview       Transition = "hr_review"
)

type rule struct {
	actor domain.Role
	from  domain.Status
	to    domain.Status
}

var rules = map[Transition]rule{
	Create:         {actor: domain.RoleManager, to: domain.StatusPendingIntern},
	InternFeedback: {actor: domain.RoleIntern, from: domain.StatusPendingIntern, to: domain.StatusPendingHR},
	HRReview:       {actor: domain.RoleHR, from: domain.StatusPendingHR, to: domain.StatusCompleted},
}

// Actor is the only role allowed to perform t.
func Actor(t Transition) domain.Role { return rules[t].actor }

// Authorize rejects callers whose role does not own t.
func Authorize(t Transition, role domain.Role) error {
	r, ok := rules[t]
	if !ok || r.actor != role {
		return domain.Forbidden("Access forbidden")
	}
	return nil
}

// Next returns the status reached by applying t to current.
func Next(t Transition, current domain.Status) (domain.Status, error) {
	r, ok := rules[t]
	if !ok || current != r.from {
		return "", domain.InvalidState("Invalid workflow state")
	}
	return r.to, nil
}

// Initial is the status of a freshly created evaluation.
func Initial() domain.Status { return rules[Create].to }

// RequireCompleted guards report access.
func RequireCompleted(s domain.Status) error {
	if s != domain.StatusCompleted {
		return domain.InvalidState("Evaluation not completed yet")
	}
	return nil
}

type Draft struct {
	InternID       string
	Rating         int
	ManagerComment string
	MonthsWorked   int
}

func ValidateDraft(d Draft) error {
	if strings.TrimSpace(d.InternID) == "" {
		return domain.Validation("Intern id is required")
	}
	if d.Rating < domain.MinRating || d.Rating > domain.MaxRating {
		return domain.Validation("Rating must be between 1 and 5")
	}
	if d.MonthsWorked <= 0 {
		return domain.Validation("Months worked must be positive")
	}
	if strings.TrimSpace(d.ManagerComment) == "" {
		return domain.Validation("Manager comment is required")
	}
	return nil
}

func ValidateAdjustment(adj int) error {
	if adj < domain.MinAdjustment || adj > domain.MaxAdjustment {
		return domain.Validation("Adjustment must be between -2 and 2")
	}
	return nil
}
