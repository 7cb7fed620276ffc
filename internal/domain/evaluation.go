package domain

import (
	"context"
	"time"
)

type Status string

const (
	StatusPendingIntern Status = "pending_intern"
	StatusPendingHR     Status = "pending_hr"
	StatusCompleted     Status = "completed"
)

// WorkflowStatuses is every status an evaluation can hold, in order.
var WorkflowStatuses = []Status{StatusPendingIntern, StatusPendingHR, StatusCompleted}

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingIntern, StatusPendingHR, StatusCompleted:
		return true
	}
	return false
}

const (
	MinRating     = 1
	MaxRating     = 5
	MinAdjustment = -2
	MaxAdjustment = 2
)

// Evaluation is one manager-authored review moving through the workflow.
// InternID and ManagerID hold user emails.
type Evaluation struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	InternID           string    `gorm:"size:191;not null;index" json:"intern_id"`
	ManagerID          string    `gorm:"size:191;not null;index" json:"manager_id"`
	Rating             int       `gorm:"not null" json:"rating"`
	ManagerComment     string    `gorm:"type:text;not null" json:"manager_comment"`
	MonthsWorked       int       `gorm:"not null" json:"months_worked"`
	InternComment      *string   `gorm:"type:text" json:"intern_comment"`
	HRComment          *string   `gorm:"type:text" json:"hr_comment"`
	HRRatingAdjustment *int      `json:"hr_rating_adjustment"`
	Status             Status    `gorm:"size:32;not null;index" json:"status"`
	Report             *string   `gorm:"type:text" json:"report"`
	Version            int       `gorm:"not null;default:0" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Evaluation) TableName() string { return "evaluations" }

func (e *Evaluation) HasReport() bool { return e.Report != nil && *e.Report != "" }

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// ListFilter narrows a listing. Search and Status are ignored by the
// intern view.
type ListFilter struct {
	Search string
	Status Status
	Skip   int
	Limit  int
}

// Normalize clamps paging to sane bounds.
func (f ListFilter) Normalize() ListFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

// Page is one window of a listing; Total counts every match before paging.
type Page struct {
	Total       int64        `json:"total"`
	Evaluations []Evaluation `json:"evaluations"`
}

// Changes carries the stage fields written alongside a status transition.
type Changes struct {
	InternComment      *string
	HRComment          *string
	HRRatingAdjustment *int
}

type EvaluationRepository interface {
	Create(ctx context.Context, e *Evaluation) error
	// FindByID returns (nil, nil) when the id is unknown.
	FindByID(ctx context.Context, id uint) (*Evaluation, error)
	ListByManager(ctx context.Context, managerEmail string, f ListFilter) (Page, error)
	ListByIntern(ctx context.Context, internEmail string, f ListFilter) (Page, error)
	ListForHR(ctx context.Context, f ListFilter) (Page, error)
	// Transition moves e to status `to` only if the stored row still has
	// e.Status and e.Version. It reports whether the row was updated.
	Transition(ctx context.Context, e *Evaluation, to Status, ch Changes) (bool, error)
	// SetReport stores the report only if none is stored yet.
	SetReport(ctx context.Context, id uint, report string) (bool, error)
}
