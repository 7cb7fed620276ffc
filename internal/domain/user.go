package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleManager Role = "manager"
	RoleIntern  Role = "intern"
	RoleHR      Role = "hr"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleManager, RoleIntern, RoleHR:
		return true
	}
	return false
}

// Privileged roles need the invite code to self-register.
func (r Role) Privileged() bool { return r == RoleManager || r == RoleHR }

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string    `gorm:"column:password;size:191;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;index" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// UserRepository lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	SetActive(ctx context.Context, email string, active bool) error
}
