package metadata

import (
	"context"
	"encoding/json"
	"fmt"
)

const sessionKey = "session"

// Session is what the CLI remembers about the last successful login.
type Session struct {
	Cookie string `json:"cookie"`
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// LoadSession returns the saved session, or nil when nobody is logged in.
func LoadSession(ctx context.Context, r Repository) (*Session, error) {
	raw, err := r.Get(ctx, sessionKey)
	if err != nil || raw == nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode saved session: %w", err)
	}
	if s.Cookie == "" {
		return nil, nil
	}
	return &s, nil
}

func SaveSession(ctx context.Context, r Repository, s Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Set(ctx, sessionKey, raw)
}

func ForgetSession(ctx context.Context, r Repository) error {
	return r.Delete(ctx, sessionKey)
}
