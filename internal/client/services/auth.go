// Package services contains the CLI's application services. This file holds
// the authentication service: signup, login, logout and resuming a saved
// session on start.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskboard/internal/client/client"
	"github.com/dmitrijs2005/taskboard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/taskboard/internal/client/repositories/tasks"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
)

// AuthService defines authentication operations for the CLI.
type AuthService interface {
	Signup(ctx context.Context, email string, password []byte, name string) error
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	Logout(ctx context.Context) error
	// Restore resumes the session saved by the last Login. It returns
	// (nil, nil) when there is none or the server no longer accepts it.
	// When the server cannot be reached it returns the saved user together
	// with an error wrapping client.ErrUnavailable.
	Restore(ctx context.Context) (*models.User, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client   client.Client
	metadata metadata.Repository
	tasks    tasks.Repository
	log      logging.Logger
}

func NewAuthService(c client.Client, meta metadata.Repository, tasks tasks.Repository, log logging.Logger) AuthService {
	return &authService{client: c, metadata: meta, tasks: tasks, log: log.With("component", "auth")}
}

func (a *authService) Signup(ctx context.Context, email string, password []byte, name string) error {
	if _, err := a.client.Signup(ctx, email, string(password), name); err != nil {
		return err
	}
	return nil
}

// Login authenticates and saves the session cookie locally.
func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	u, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, err
	}

	err = metadata.SaveSession(ctx, a.metadata, metadata.Session{
		Cookie: a.client.SessionCookie(),
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return u, nil
}

// Logout ends the server session and wipes the local session and mirror.
// Local data is cleared even when the server call fails.
func (a *authService) Logout(ctx context.Context) error {
	serverErr := a.client.Logout(ctx)
	if serverErr != nil {
		a.log.Warn(ctx, "server logout failed", "error", serverErr)
	}

	if err := a.forget(ctx); err != nil {
		return err
	}
	return serverErr
}

func (a *authService) Restore(ctx context.Context) (*models.User, error) {
	saved, err := metadata.LoadSession(ctx, a.metadata)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, nil
	}

	a.client.SetSessionCookie(saved.Cookie)

	u, err := a.client.CurrentUser(ctx)
	if errors.Is(err, client.ErrUnavailable) {
		return &models.User{ID: saved.UserID, Name: saved.Name, Email: saved.Email}, err
	}
	if err != nil {
		return nil, err
	}

	if u == nil {
		a.log.Info(ctx, "saved session is no longer valid")
		return nil, a.forget(ctx)
	}
	return u, nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) forget(ctx context.Context) error {
	if err := metadata.ForgetSession(ctx, a.metadata); err != nil {
		return err
	}
	return a.tasks.ReplaceAll(ctx, nil)
}
