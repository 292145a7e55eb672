// Package services contains server-side business logic. This file implements
// AuthService: signup, login, session lookup and logout.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/auth"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/repomanager"
)

// SignupInput is the typed form of a signup submission.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginInput is the typed form of a login submission.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthService moves a caller between anonymous and authenticated.
// Signup never logs the new user in; Login is a separate call.
type AuthService struct {
	store      repomanager.Store
	hasher     *auth.Hasher
	log        logging.Logger
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService builds an AuthService. A zero sessionTTL keeps sessions
// valid until logout.
func NewAuthService(store repomanager.Store, hasher *auth.Hasher, log logging.Logger, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		store:      store,
		hasher:     hasher,
		log:        log.With("component", "auth"),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Signup registers a user. A taken email yields common.ErrConflict.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (u *models.User, err error) {
	defer func() { authEventsTotal.WithLabelValues("signup", resultLabel(err)).Inc() }()

	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	users := s.store.Users()
	if _, err := users.GetByEmail(ctx, in.Email); err == nil {
		return nil, common.ErrConflict
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, s.storageErr(ctx, "signup", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.log.Error(ctx, "hash password", "error", err)
		return nil, common.ErrStorage
	}

	u, err = users.Create(ctx, &models.User{Email: in.Email, PasswordHash: hash, Name: in.Name})
	if err != nil {
		return nil, s.storageErr(ctx, "signup", err)
	}

	s.log.Info(ctx, "user signed up", "user_id", u.ID)
	return u, nil
}

// Login checks credentials and opens a new session. Any mismatch, unknown
// email included, yields common.ErrAuth with the same message.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (token string, u *models.User, err error) {
	defer func() { authEventsTotal.WithLabelValues("login", resultLabel(err)).Inc() }()

	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return "", nil, err
	}

	u, err = s.store.Users().GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.VerifyNothing(in.Password)
			s.log.Info(ctx, "login rejected")
			return "", nil, common.ErrAuth
		}
		return "", nil, s.storageErr(ctx, "login", err)
	}

	if err := s.hasher.Verify(in.Password, u.PasswordHash); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.log.Error(ctx, "verify password", "user_id", u.ID, "error", err)
		}
		s.log.Info(ctx, "login rejected")
		return "", nil, common.ErrAuth
	}

	token, err = auth.GenerateSessionToken()
	if err != nil {
		s.log.Error(ctx, "generate session token", "error", err)
		return "", nil, common.ErrStorage
	}

	if _, err := s.store.Sessions().Create(ctx, &models.Session{Token: token, UserID: u.ID}); err != nil {
		return "", nil, s.storageErr(ctx, "login", err)
	}

	s.log.Info(ctx, "user logged in", "user_id", u.ID)
	return token, u, nil
}

// CurrentUser resolves a session token. It returns nil for a missing,
// malformed, unknown or expired token, and on storage failure.
func (s *AuthService) CurrentUser(ctx context.Context, token string) *models.User {
	if !auth.WellFormedToken(token) {
		return nil
	}

	sess, err := s.store.Sessions().FindByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Error(ctx, "find session", "error", err)
		}
		return nil
	}

	if sess.Expired(s.sessionTTL, s.now()) {
		if err := s.store.Sessions().DeleteByToken(ctx, token); err != nil {
			s.log.Warn(ctx, "delete expired session", "error", err)
		}
		return nil
	}

	u, err := s.store.Users().GetByID(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Error(ctx, "load session user", "user_id", sess.UserID, "error", err)
		}
		return nil
	}
	return u
}

// Logout deletes the session behind token. Unknown or empty tokens are fine.
func (s *AuthService) Logout(ctx context.Context, token string) (err error) {
	defer func() { authEventsTotal.WithLabelValues("logout", resultLabel(err)).Inc() }()

	if token == "" {
		return nil
	}
	if err := s.store.Sessions().DeleteByToken(ctx, token); err != nil {
		return s.storageErr(ctx, "logout", err)
	}
	return nil
}

func (s *AuthService) storageErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrConflict) || errors.Is(err, common.ErrNotFound) {
		return err
	}
	s.log.Error(ctx, "storage failure", "op", op, "error", err)
	return common.ErrStorage
}
