package session

import (
	"context"

	"github.com/noah-isme/sma-dash-client/internal/models"
)

// State names the session lifecycle phase.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateBootstrapping   State = "bootstrapping"
	StateAuthenticated   State = "authenticated"
	// StateOffline keeps a persisted session alive when the server cannot be
	// reached to verify it. Distinct from an explicit rejection.
	StateOffline State = "authenticated_offline"
)

// Snapshot is a read-only view of the current session.
type Snapshot struct {
	User      *models.User
	Token     string
	State     State
	IsLoading bool
}

// IsAuthenticated is derived, never stored: true iff both identity parts exist.
func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// AuthAPI is the authentication API collaborator consumed by the Manager.
type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, token string, req models.UpdateProfileRequest) (*models.User, error)
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
}

// Notifier receives fire-and-forget user-visible outcome messages.
type Notifier interface {
	Notify(n models.Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n models.Notification)

func (f NotifierFunc) Notify(n models.Notification) { f(n) }
