package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/core/database"
	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	"github.com/Divyaanshvats/intern-management-system/internal/repo"
)

func newUserService(t *testing.T) (*UserService, *auth.Gate) {
	t.Helper()
	db, err := database.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	gate := auth.NewGate(&auth.JWTer{Secret: []byte("s"), Issuer: "ims-test", TTL: time.Hour})
	return NewUserService(repo.NewUserRepo(db), gate, "INVITE", zap.NewNop()), gate
}

func TestRegisterAndLogin(t *testing.T) {
	svc, gate := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ivy", Email: "  Ivy@X.io ", Password: "pw", Role: domain.RoleIntern})
	require.NoError(t, err)
	assert.Equal(t, "ivy@x.io", u.Email)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "pw", u.PasswordHash)

	tok, err := svc.Login(ctx, "IVY@x.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	id, err := gate.Authenticate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Email: "ivy@x.io", Role: domain.RoleIntern}, id)

	_, err = svc.Login(ctx, "ivy@x.io", "wrong")
	assert.EqualError(t, err, "Invalid credentials")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Login(ctx, "ghost@x.io", "pw")
	assert.EqualError(t, err, "Invalid credentials")
}

func TestRegisterRules(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "M", Email: "m@x.io", Password: "pw", Role: domain.RoleManager})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.EqualError(t, err, "Invalid invite code for Manager/HR")

	_, err = svc.Register(ctx, RegisterInput{Name: "M", Email: "m@x.io", Password: "pw", Role: domain.RoleManager, InviteCode: "INVITE"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.io", Password: "pw", Role: "admin"})
	assert.EqualError(t, err, "Invalid role")

	_, err = svc.Register(ctx, RegisterInput{Name: "M2", Email: "M@x.io", Password: "pw", Role: domain.RoleIntern})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualError(t, err, "Email already registered")
}

func TestRegisterWithoutConfiguredInvite(t *testing.T) {
	db, err := database.NewMemory()
	require.NoError(t, err)
	defer database.Close(db)
	gate := auth.NewGate(&auth.JWTer{Secret: []byte("s"), TTL: time.Hour})
	svc := NewUserService(repo.NewUserRepo(db), gate, "", zap.NewNop())

	_, err = svc.Register(context.Background(), RegisterInput{Name: "H", Email: "h@x.io", Password: "pw", Role: domain.RoleHR})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	u, err := svc.Provision(context.Background(), RegisterInput{Name: "H", Email: "h@x.io", Password: "pw", Role: domain.RoleHR})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHR, u.Role)
}

func TestToggleActive(t *testing.T) {
	svc, gate := newUserService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "Ivy", Email: "ivy@x.io", Password: "pw", Role: domain.RoleIntern})
	require.NoError(t, err)
	tok, err := svc.Login(ctx, "ivy@x.io", "pw")
	require.NoError(t, err)

	_, err = svc.ToggleActive(ctx, auth.Identity{Email: "m@x.io", Role: domain.RoleManager}, "ivy@x.io")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	u, err := svc.ToggleActive(ctx, hr, "ivy@x.io")
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = svc.Login(ctx, "ivy@x.io", "pw")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.EqualError(t, err, "Account is deactivated. Contact HR.")

	// already issued credentials keep working until they expire
	_, err = gate.Authenticate(tok.AccessToken)
	assert.NoError(t, err)

	u, err = svc.ToggleActive(ctx, hr, "ivy@x.io")
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	_, err = svc.ToggleActive(ctx, hr, "ghost@x.io")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	users, err := svc.List(ctx, hr)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	_, err = svc.List(ctx, intern)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
