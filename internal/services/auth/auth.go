package auth

import (
	"context"
	"fmt"
	"log/slog"

	"tinyrisks_admin/internal/lib/logger/sl"
)

// LoginPath is where the browser goes once the admin session has ended.
const LoginPath = "/login"

type SessionEnder interface {
	Logout(ctx context.Context) error
}

type Auth struct {
	log      *slog.Logger
	sessions SessionEnder
}

func New(log *slog.Logger, sessions SessionEnder) *Auth {
	return &Auth{
		log:      log,
		sessions: sessions,
	}
}

// Logout ends the admin session on the API and returns the page to redirect
// to.
func (a *Auth) Logout(ctx context.Context) (string, error) {
	const op = "auth.Logout"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("logging out")

	if err := a.sessions.Logout(ctx); err != nil {
		log.Error("failed to end session", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("logged out")

	return LoginPath, nil
}
