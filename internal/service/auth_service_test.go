package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehirent/internal/auth"
	"vehirent/internal/entities"
	apperrors "vehirent/internal/errors"
	"vehirent/internal/testutil/memstore"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	issuer := auth.NewTokenIssuer("jwt-secret", time.Hour)
	svc := NewAuthService(memstore.New(), issuer, []string{"Boss@Example.com"}, env.log)
	ctx := context.Background()

	resp, err := svc.Register(ctx, entities.RegisterRequest{Name: "Ravi", Email: " Ravi@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", resp.User.Email)
	assert.False(t, resp.User.IsAdmin)

	claims, err := issuer.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = svc.Register(ctx, entities.RegisterRequest{Name: "Ravi", Email: "ravi@example.com", Password: "another one"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	login, err := svc.Login(ctx, entities.LoginRequest{Email: "RAVI@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)

	_, err = svc.Login(ctx, entities.LoginRequest{Email: "ravi@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Login(ctx, entities.LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	admin, err := svc.Register(ctx, entities.RegisterRequest{Name: "Boss", Email: "boss@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.True(t, admin.User.IsAdmin)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(memstore.New(), auth.NewTokenIssuer("s", time.Hour), nil, env.log)

	tests := []struct {
		name string
		req  entities.RegisterRequest
	}{
		{"missing name", entities.RegisterRequest{Email: "a@example.com", Password: "password1"}},
		{"bad email", entities.RegisterRequest{Name: "A", Email: "not-an-email", Password: "password1"}},
		{"short password", entities.RegisterRequest{Name: "A", Email: "a@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}
