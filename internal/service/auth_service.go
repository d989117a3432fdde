package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"vehirent/internal/auth"
	"vehirent/internal/db"
	"vehirent/internal/entities"
	apperrors "vehirent/internal/errors"
)

const minPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, req entities.RegisterRequest) (*entities.AuthResponse, error)
	Login(ctx context.Context, req entities.LoginRequest) (*entities.AuthResponse, error)
}

type authService struct {
	users       UserStore
	tokens      *auth.TokenIssuer
	adminEmails map[string]bool
	log         *logrus.Logger
}

// NewAuthService builds the auth service. Accounts registered with one of
// adminEmails are created as admins.
func NewAuthService(users UserStore, tokens *auth.TokenIssuer, adminEmails []string, log *logrus.Logger) AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = true
	}
	return &authService{users: users, tokens: tokens, adminEmails: admins, log: log}
}

func (s *authService) Register(ctx context.Context, req entities.RegisterRequest) (*entities.AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if req.Name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperrors.Validation("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &db.User{
		Name:         req.Name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		IsAdmin:      s.adminEmails[email],
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "admin": user.IsAdmin}).Info("user registered")
	return s.respond(user)
}

func (s *authService) Login(ctx context.Context, req entities.LoginRequest) (*entities.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !checkPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	return s.respond(user)
}

func (s *authService) respond(user *db.User) (*entities.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
