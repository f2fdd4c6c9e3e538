package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dash-client/internal/models"
	"github.com/noah-isme/sma-dash-client/internal/store"
	apperrors "github.com/noah-isme/sma-dash-client/pkg/errors"
)

// Config tunes Manager behaviour.
type Config struct {
	// BootstrapTimeout bounds how long Bootstrap blocks the caller. The
	// in-flight verification is not cancelled when it fires.
	BootstrapTimeout time.Duration
}

// Manager owns the client-side authentication lifecycle. All session writes
// funnel through its operations; readers only ever see a Snapshot.
type Manager struct {
	api       AuthAPI
	store     store.Store
	notifier  Notifier
	validator *validator.Validate
	logger    *zap.Logger
	config    Config

	// opMu serializes mutating operations so a login racing a logout cannot
	// interleave their storage and memory writes.
	opMu sync.Mutex

	mu      sync.RWMutex
	user    *models.User
	token   string
	state   State
	loading bool
}

// NewManager constructs a Manager instance.
func NewManager(api AuthAPI, st store.Store, notifier Notifier, validate *validator.Validate, logger *zap.Logger, cfg Config) *Manager {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(models.Notification) {})
	}
	if cfg.BootstrapTimeout <= 0 {
		cfg.BootstrapTimeout = 10 * time.Second
	}
	return &Manager{
		api:       api,
		store:     st,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		config:    cfg,
		state:     StateUnauthenticated,
	}
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var user *models.User
	if m.user != nil {
		copied := *m.user
		user = &copied
	}
	return Snapshot{User: user, Token: m.token, State: m.state, IsLoading: m.loading}
}

// Bootstrap restores a persisted session and verifies it against the server.
// It runs once at startup. The caller is unblocked after BootstrapTimeout at
// the latest; a verification still in flight applies its outcome when it
// arrives.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.setBootstrapping()

	token, user, err := m.readPersisted()
	if err != nil {
		m.logger.Warn("persisted session unreadable, resetting", zap.Error(err))
		m.clearPersisted()
		m.apply(nil, "", StateUnauthenticated, false)
		return
	}
	if token == "" || user == nil {
		if token != "" || user != nil {
			// Half a session, e.g. an orphaned token. Storage must not
			// drift from the in-memory state.
			m.clearPersisted()
		}
		m.apply(nil, "", StateUnauthenticated, false)
		return
	}

	// Optimistic restore: unblock the UI with the persisted identity while
	// the server verifies the token.
	m.apply(user, token, StateAuthenticated, true)

	outcomeCh := make(chan func(), 1)
	go func() {
		outcomeCh <- m.verify(*user, token)
	}()

	timer := time.NewTimer(m.config.BootstrapTimeout)
	defer timer.Stop()

	select {
	case outcome := <-outcomeCh:
		outcome()
	case <-ctx.Done():
		m.forceLoadingFalse()
		go m.applyLate(outcomeCh, token)
	case <-timer.C:
		m.logger.Warn("session verification still pending at bootstrap timeout",
			zap.Duration("timeout", m.config.BootstrapTimeout))
		m.forceLoadingFalse()
		go m.applyLate(outcomeCh, token)
	}
}

// verify calls the profile endpoint and returns the classified outcome as a
// closure, so the caller controls when and under which lock it is applied. It
// deliberately runs on a background context so a bootstrap timeout does not
// cancel it.
func (m *Manager) verify(persisted models.User, token string) func() {
	profile, err := m.api.Profile(context.Background(), token)
	if err == nil {
		return func() {
			merged := persisted.Merge(*profile)
			if perr := m.persist(token, merged); perr != nil {
				m.logger.Warn("failed to persist verified profile", zap.Error(perr))
			}
			m.apply(&merged, token, StateAuthenticated, false)
		}
	}

	switch {
	case apperrors.IsNetwork(err):
		return func() {
			m.logger.Warn("session verification unreachable, staying offline", zap.Error(err))
			m.applyState(StateOffline, false)
			m.notifier.Notify(models.Notification{
				Title:       "Connection issue",
				Description: "Could not verify your session. Continuing with saved credentials.",
				Variant:     models.VariantDefault,
			})
		}
	case isRejectedStatus(err):
		return func() {
			m.logger.Info("server rejected persisted token, signing out")
			m.clearPersisted()
			m.apply(nil, "", StateUnauthenticated, false)
			m.notifier.Notify(models.Notification{
				Title:       "Session expired",
				Description: "Please sign in again.",
				Variant:     models.VariantDestructive,
			})
		}
	default:
		return func() {
			m.logger.Warn("session verification hit a server fault, staying offline", zap.Error(err))
			m.applyState(StateOffline, false)
			m.notifier.Notify(models.Notification{
				Title:       "Server issue",
				Description: "The server had a problem verifying your session. Continuing with saved credentials.",
				Variant:     models.VariantDefault,
			})
		}
	}
}

// applyLate waits for a verification that outlived its Bootstrap call and
// applies the outcome under the operation lock. If another operation replaced
// or cleared the session in the meantime, the stale outcome is discarded so a
// completed logout or fresh login is never overwritten.
func (m *Manager) applyLate(outcomeCh <-chan func(), token string) {
	outcome := <-outcomeCh
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if m.Snapshot().Token != token {
		m.logger.Info("discarding stale session verification")
		return
	}
	outcome()
}

// Login authenticates and establishes a session.
func (m *Manager) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := m.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrValidation.Kind, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid login payload")
	}

	m.setLoading(true)
	defer m.setLoading(false)

	res, err := m.api.Login(ctx, req)
	if err != nil {
		message := failureMessage(err, "Login failed")
		m.notifier.Notify(models.Notification{Title: "Login failed", Description: message, Variant: models.VariantDestructive})
		return nil, err
	}

	if perr := m.persist(res.Token, res.User); perr != nil {
		m.logger.Warn("failed to persist session after login", zap.Error(perr))
	}
	user := res.User
	m.apply(&user, res.Token, StateAuthenticated, true)

	m.notifier.Notify(models.Notification{
		Title:       "Login successful",
		Description: "Welcome back, " + user.FullName() + "!",
		Variant:     models.VariantDefault,
	})
	return &user, nil
}

// Register creates an account and establishes a session, mirroring Login.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := m.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrValidation.Kind, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid registration payload")
	}

	m.setLoading(true)
	defer m.setLoading(false)

	res, err := m.api.Register(ctx, req)
	if err != nil {
		message := failureMessage(err, "Registration failed")
		m.notifier.Notify(models.Notification{Title: "Registration failed", Description: message, Variant: models.VariantDestructive})
		return nil, err
	}

	if perr := m.persist(res.Token, res.User); perr != nil {
		m.logger.Warn("failed to persist session after registration", zap.Error(perr))
	}
	user := res.User
	m.apply(&user, res.Token, StateAuthenticated, true)

	m.notifier.Notify(models.Notification{
		Title:       "Registration successful",
		Description: "Welcome, " + user.FullName() + "!",
		Variant:     models.VariantDefault,
	})
	return &user, nil
}

// Logout clears the session. The server call is best effort; local logout
// always succeeds.
func (m *Manager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	token := m.Snapshot().Token
	if token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.logger.Debug("server-side logout failed, ignoring", zap.Error(err))
		}
	}

	m.clearPersisted()
	m.apply(nil, "", StateUnauthenticated, false)

	m.notifier.Notify(models.Notification{
		Title:       "Logged out",
		Description: "You have been signed out.",
		Variant:     models.VariantDefault,
	})
}

// UpdateProfile replaces the user record with the server's response.
func (m *Manager) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	snap := m.Snapshot()
	if !snap.IsAuthenticated() {
		return nil, apperrors.Clone(apperrors.ErrSessionRejected, "not signed in")
	}

	m.setLoading(true)
	defer m.setLoading(false)

	updated, err := m.api.UpdateProfile(ctx, snap.Token, req)
	if err != nil {
		message := failureMessage(err, "Profile update failed")
		m.notifier.Notify(models.Notification{Title: "Update failed", Description: message, Variant: models.VariantDestructive})
		return nil, err
	}

	if perr := m.persist(snap.Token, *updated); perr != nil {
		m.logger.Warn("failed to persist updated profile", zap.Error(perr))
	}
	user := *updated
	m.apply(&user, snap.Token, snap.State, true)

	m.notifier.Notify(models.Notification{
		Title:       "Profile updated",
		Description: "Your profile has been saved.",
		Variant:     models.VariantDefault,
	})
	return &user, nil
}

// ForgotPassword is a stateless pass-through to the reset-initiation endpoint.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	req := models.ForgotPasswordRequest{Email: email}
	if err := m.validator.Struct(req); err != nil {
		return apperrors.Wrap(err, apperrors.ErrValidation.Kind, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid email address")
	}
	if err := m.api.ForgotPassword(ctx, req); err != nil {
		message := failureMessage(err, "Could not send reset email")
		m.notifier.Notify(models.Notification{Title: "Reset failed", Description: message, Variant: models.VariantDestructive})
		return err
	}
	m.notifier.Notify(models.Notification{
		Title:       "Reset email sent",
		Description: "Check your inbox for the reset link.",
		Variant:     models.VariantDefault,
	})
	return nil
}

// ResetPassword is a stateless pass-through to the reset-completion endpoint.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	req := models.ResetPasswordRequest{Token: token, NewPassword: newPassword}
	if err := m.validator.Struct(req); err != nil {
		return apperrors.Wrap(err, apperrors.ErrValidation.Kind, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid reset payload")
	}
	if err := m.api.ResetPassword(ctx, req); err != nil {
		message := failureMessage(err, "Password reset failed")
		m.notifier.Notify(models.Notification{Title: "Reset failed", Description: message, Variant: models.VariantDestructive})
		return err
	}
	m.notifier.Notify(models.Notification{
		Title:       "Password reset",
		Description: "You can now sign in with your new password.",
		Variant:     models.VariantDefault,
	})
	return nil
}

// TokenInfo decodes the stored bearer token without verifying its signature.
// Display only: a locally expired token is never used to force a logout, the
// server stays the authority on token validity.
func (m *Manager) TokenInfo() (*models.TokenClaims, error) {
	snap := m.Snapshot()
	if snap.Token == "" {
		return nil, apperrors.Clone(apperrors.ErrNotFound, "no session token")
	}
	claims := &models.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(snap.Token, claims); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindDecode, "DECODE_TOKEN", 0, "token is not a readable JWT")
	}
	return claims, nil
}

// readPersisted loads the persisted credentials. Missing keys yield empty
// values; unreadable or unparseable data is an error.
func (m *Manager) readPersisted() (string, *models.User, error) {
	token, err := m.store.Get(store.KeyAuthToken)
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return "", nil, err
	}
	raw, err := m.store.Get(store.KeyAuthUser)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return token, nil, nil
		}
		return "", nil, err
	}
	user := &models.User{}
	if err := json.Unmarshal([]byte(raw), user); err != nil {
		return "", nil, apperrors.Wrap(err, apperrors.ErrCorruptedState.Kind, apperrors.ErrCorruptedState.Code, 0, "persisted user record unparseable")
	}
	return token, user, nil
}

// persist writes credentials to storage before any in-memory update, so a
// reader of the store never sees memory ahead of storage.
func (m *Manager) persist(token string, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindStorage, "ENCODE_USER", 0, "failed to encode user record")
	}
	if err := m.store.Set(store.KeyAuthToken, token); err != nil {
		return err
	}
	return m.store.Set(store.KeyAuthUser, string(raw))
}

func (m *Manager) clearPersisted() {
	if err := m.store.Delete(store.KeyAuthToken); err != nil {
		m.logger.Warn("failed to clear persisted token", zap.Error(err))
	}
	if err := m.store.Delete(store.KeyAuthUser); err != nil {
		m.logger.Warn("failed to clear persisted user", zap.Error(err))
	}
}

func (m *Manager) apply(user *models.User, token string, state State, keepLoading bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	m.token = token
	m.state = state
	if !keepLoading {
		m.loading = false
	}
}

func (m *Manager) applyState(state State, keepLoading bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	if !keepLoading {
		m.loading = false
	}
}

func (m *Manager) setBootstrapping() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateBootstrapping
	m.loading = true
}

func (m *Manager) setLoading(loading bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = loading
}

func (m *Manager) forceLoadingFalse() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
}

func isRejectedStatus(err error) bool {
	status, ok := apperrors.HTTPStatus(err)
	return ok && (status == http.StatusUnauthorized || status == http.StatusForbidden)
}

func failureMessage(err error, fallback string) string {
	appErr := apperrors.FromError(err)
	if appErr != nil && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
