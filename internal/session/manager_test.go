package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dash-client/internal/models"
	"github.com/noah-isme/sma-dash-client/internal/store"
	apperrors "github.com/noah-isme/sma-dash-client/pkg/errors"
)

type mockAPI struct {
	mu sync.Mutex

	loginRes  *models.AuthResponse
	loginErr  error
	loginHits int

	registerRes *models.AuthResponse
	registerErr error

	profileRes   *models.User
	profileErr   error
	profileDelay time.Duration
	profileDone  chan struct{}

	logoutErr  error
	logoutHits int

	updateRes *models.User
	updateErr error

	forgotErr error
	resetErr  error
}

func (m *mockAPI) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	m.mu.Lock()
	m.loginHits++
	m.mu.Unlock()
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginRes, nil
}

func (m *mockAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.registerRes, nil
}

func (m *mockAPI) Profile(ctx context.Context, token string) (*models.User, error) {
	if m.profileDelay > 0 {
		time.Sleep(m.profileDelay)
	}
	if m.profileDone != nil {
		defer close(m.profileDone)
	}
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profileRes, nil
}

func (m *mockAPI) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	m.logoutHits++
	m.mu.Unlock()
	return m.logoutErr
}

func (m *mockAPI) UpdateProfile(ctx context.Context, token string, req models.UpdateProfileRequest) (*models.User, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updateRes, nil
}

func (m *mockAPI) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	return m.forgotErr
}

func (m *mockAPI) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	return m.resetErr
}

type captureNotifier struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (c *captureNotifier) Notify(n models.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func (c *captureNotifier) titles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	titles := make([]string, 0, len(c.notes))
	for _, n := range c.notes {
		titles = append(titles, n.Title)
	}
	return titles
}

func newTestManager(t *testing.T, api AuthAPI) (*Manager, *store.MemoryStore, *captureNotifier) {
	t.Helper()
	st := store.NewMemoryStore()
	notifier := &captureNotifier{}
	m := NewManager(api, st, notifier, validator.New(), zap.NewNop(), Config{BootstrapTimeout: time.Second})
	return m, st, notifier
}

func seedSession(t *testing.T, st *store.MemoryStore, token string, user models.User) {
	t.Helper()
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, st.Set(store.KeyAuthToken, token))
	require.NoError(t, st.Set(store.KeyAuthUser, string(raw)))
}

// assertAuthInvariant checks that user and token are only ever set together.
func assertAuthInvariant(t *testing.T, m *Manager) {
	t.Helper()
	snap := m.Snapshot()
	assert.Equal(t, snap.User != nil && snap.Token != "", snap.IsAuthenticated())
	if snap.User == nil {
		assert.Empty(t, snap.Token)
	}
	if snap.Token == "" {
		assert.Nil(t, snap.User)
	}
}

func TestBootstrapWithoutPersistedSession(t *testing.T) {
	m, _, notifier := newTestManager(t, &mockAPI{})

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsAuthenticated())
	assert.Empty(t, notifier.titles())
	assertAuthInvariant(t, m)
}

func TestBootstrapVerifiedMergeKeepsNames(t *testing.T) {
	api := &mockAPI{profileRes: &models.User{Email: "new@school.test", Role: models.RoleTeacher}}
	m, st, notifier := newTestManager(t, api)
	seedSession(t, st, "tok-1", models.User{
		ID: "u1", Email: "old@school.test", FirstName: "Ada", LastName: "Obi", Role: models.RoleTeacher,
	})

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	require.True(t, snap.IsAuthenticated())
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.False(t, snap.IsLoading)
	// Server fields win, omitted fields keep the persisted values.
	assert.Equal(t, "new@school.test", snap.User.Email)
	assert.Equal(t, "Ada", snap.User.FirstName)
	assert.Equal(t, "Obi", snap.User.LastName)

	raw, err := st.Get(store.KeyAuthUser)
	require.NoError(t, err)
	persisted := models.User{}
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, "Ada", persisted.FirstName)

	// Silent success: no notification for a clean bootstrap.
	assert.Empty(t, notifier.titles())
	assertAuthInvariant(t, m)
}

func TestBootstrapNetworkFailureKeepsSessionOffline(t *testing.T) {
	api := &mockAPI{profileErr: apperrors.Clone(apperrors.ErrNetworkUnavailable, "dial tcp: connection refused")}
	m, st, notifier := newTestManager(t, api)
	seedSession(t, st, "tok-1", models.User{ID: "u1", Email: "ada@school.test", FirstName: "Ada"})

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateOffline, snap.State)
	require.True(t, snap.IsAuthenticated())
	assert.Equal(t, "tok-1", snap.Token)
	assert.Equal(t, "u1", snap.User.ID)

	token, err := st.Get(store.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	titles := notifier.titles()
	assert.Contains(t, titles, "Connection issue")
	assert.NotContains(t, titles, "Session expired")
	assertAuthInvariant(t, m)
}

func TestBootstrapRejectedTokenForcesLogout(t *testing.T) {
	api := &mockAPI{profileErr: apperrors.New(apperrors.KindHTTP, "UNAUTHORIZED", http.StatusUnauthorized, "token expired")}
	m, st, notifier := newTestManager(t, api)
	seedSession(t, st, "tok-1", models.User{ID: "u1", Email: "ada@school.test"})

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.IsAuthenticated())

	_, err := st.Get(store.KeyAuthToken)
	assert.True(t, errors.Is(err, store.ErrKeyNotFound))
	_, err = st.Get(store.KeyAuthUser)
	assert.True(t, errors.Is(err, store.ErrKeyNotFound))

	assert.Contains(t, notifier.titles(), "Session expired")
	assertAuthInvariant(t, m)
}

func TestBootstrapServerFaultKeepsSession(t *testing.T) {
	api := &mockAPI{profileErr: apperrors.New(apperrors.KindHTTP, "INTERNAL", http.StatusInternalServerError, "boom")}
	m, st, notifier := newTestManager(t, api)
	seedSession(t, st, "tok-1", models.User{ID: "u1", Email: "ada@school.test"})

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateOffline, snap.State)
	assert.True(t, snap.IsAuthenticated())

	token, err := st.Get(store.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	assert.Contains(t, notifier.titles(), "Server issue")
	assertAuthInvariant(t, m)
}

func TestBootstrapCorruptedUserRecordResets(t *testing.T) {
	m, st, notifier := newTestManager(t, &mockAPI{})
	require.NoError(t, st.Set(store.KeyAuthToken, "tok-1"))
	require.NoError(t, st.Set(store.KeyAuthUser, "{not json"))

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.IsAuthenticated())

	_, err := st.Get(store.KeyAuthToken)
	assert.Error(t, err)

	assert.Empty(t, notifier.titles())
	assertAuthInvariant(t, m)
}

func TestBootstrapTimeoutUnblocksWithoutFreezingState(t *testing.T) {
	done := make(chan struct{})
	api := &mockAPI{
		profileRes:   &models.User{ID: "u1", Email: "fresh@school.test", FirstName: "Ada"},
		profileDelay: 150 * time.Millisecond,
		profileDone:  done,
	}
	st := store.NewMemoryStore()
	notifier := &captureNotifier{}
	m := NewManager(api, st, notifier, validator.New(), zap.NewNop(), Config{BootstrapTimeout: 20 * time.Millisecond})
	seedSession(t, st, "tok-1", models.User{ID: "u1", Email: "stale@school.test", FirstName: "Ada"})

	start := time.Now()
	m.Bootstrap(context.Background())
	elapsed := time.Since(start)

	// The caller is unblocked by the timeout, not the slow verification.
	assert.Less(t, elapsed, 100*time.Millisecond)
	snap := m.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.True(t, snap.IsAuthenticated())

	// The in-flight verification still applies its outcome afterwards.
	<-done
	assert.Eventually(t, func() bool {
		return m.Snapshot().User.Email == "fresh@school.test"
	}, time.Second, 10*time.Millisecond)
	assertAuthInvariant(t, m)
}

func TestLateVerificationDoesNotResurrectLoggedOutSession(t *testing.T) {
	done := make(chan struct{})
	api := &mockAPI{
		profileRes:   &models.User{ID: "u1", Email: "fresh@school.test", FirstName: "Ada"},
		profileDelay: 150 * time.Millisecond,
		profileDone:  done,
	}
	st := store.NewMemoryStore()
	notifier := &captureNotifier{}
	m := NewManager(api, st, notifier, validator.New(), zap.NewNop(), Config{BootstrapTimeout: 20 * time.Millisecond})
	seedSession(t, st, "tok-1", models.User{ID: "u1", Email: "stale@school.test", FirstName: "Ada"})

	m.Bootstrap(context.Background())
	require.True(t, m.Snapshot().IsAuthenticated())

	// Logout wins the race against the still-running verification.
	m.Logout(context.Background())
	require.False(t, m.Snapshot().IsAuthenticated())

	// The stale outcome must be discarded, not applied over the logout.
	<-done
	time.Sleep(50 * time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.IsAuthenticated())
	_, err := st.Get(store.KeyAuthToken)
	assert.True(t, errors.Is(err, store.ErrKeyNotFound))
	_, err = st.Get(store.KeyAuthUser)
	assert.True(t, errors.Is(err, store.ErrKeyNotFound))
	assertAuthInvariant(t, m)
}

func TestBootstrapClearsOrphanedToken(t *testing.T) {
	m, st, notifier := newTestManager(t, &mockAPI{})
	require.NoError(t, st.Set(store.KeyAuthToken, "tok-1"))

	m.Bootstrap(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.IsAuthenticated())

	// Storage matches the in-memory state: the orphan key is gone.
	_, err := st.Get(store.KeyAuthToken)
	assert.True(t, errors.Is(err, store.ErrKeyNotFound))

	assert.Empty(t, notifier.titles())
	assertAuthInvariant(t, m)
}

func TestLoginSuccessPersistsAndNotifies(t *testing.T) {
	api := &mockAPI{loginRes: &models.AuthResponse{
		Token: "tok-9",
		User:  models.User{ID: "u9", Email: "ada@school.test", FirstName: "Ada", LastName: "Obi"},
	}}
	m, st, notifier := newTestManager(t, api)

	user, err := m.Login(context.Background(), models.LoginRequest{Email: "ada@school.test", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "u9", user.ID)

	snap := m.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, "tok-9", snap.Token)
	assert.False(t, snap.IsLoading)

	token, err := st.Get(store.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-9", token)

	assert.Contains(t, notifier.titles(), "Login successful")
	assertAuthInvariant(t, m)
}

func TestLoginFailureLeavesStateUnchanged(t *testing.T) {
	api := &mockAPI{loginErr: apperrors.Clone(apperrors.ErrInvalidCredentials, "invalid email or password")}
	m, st, notifier := newTestManager(t, api)

	_, err := m.Login(context.Background(), models.LoginRequest{Email: "ada@school.test", Password: "wrong"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")

	snap := m.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.IsAuthenticated())

	_, storeErr := st.Get(store.KeyAuthToken)
	assert.Error(t, storeErr)

	assert.Contains(t, notifier.titles(), "Login failed")
	assertAuthInvariant(t, m)
}

func TestLoginValidatesPayloadBeforeCalling(t *testing.T) {
	api := &mockAPI{}
	m, _, _ := newTestManager(t, api)

	_, err := m.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Zero(t, api.loginHits)
}

func TestRegisterEstablishesSession(t *testing.T) {
	api := &mockAPI{registerRes: &models.AuthResponse{
		Token: "tok-2",
		User:  models.User{ID: "u2", Email: "new@school.test", FirstName: "Ngozi", LastName: "Eze", Role: models.RoleParent},
	}}
	m, _, notifier := newTestManager(t, api)

	user, err := m.Register(context.Background(), models.RegisterRequest{
		Email: "new@school.test", Password: "secret1", FirstName: "Ngozi", LastName: "Eze", Role: models.RoleParent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleParent, user.Role)
	assert.True(t, m.Snapshot().IsAuthenticated())
	assert.Contains(t, notifier.titles(), "Registration successful")
	assertAuthInvariant(t, m)
}

func TestLogoutClearsLocallyEvenWhenServerFails(t *testing.T) {
	api := &mockAPI{
		profileRes: &models.User{ID: "u1", Email: "ada@school.test"},
		logoutErr:  apperrors.Clone(apperrors.ErrNetworkUnavailable, "offline"),
	}
	m, st, notifier := newTestManager(t, api)
	seedSession(t, st, "tok-1", models.User{ID: "u1", Email: "ada@school.test"})
	m.Bootstrap(context.Background())
	require.True(t, m.Snapshot().IsAuthenticated())

	m.Logout(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.IsAuthenticated())
	assert.Equal(t, 1, api.logoutHits)

	_, err := st.Get(store.KeyAuthToken)
	assert.Error(t, err)

	assert.Contains(t, notifier.titles(), "Logged out")
	assertAuthInvariant(t, m)
}

func TestUpdateProfileReplacesUserRecord(t *testing.T) {
	api := &mockAPI{
		profileRes: &models.User{ID: "u1", Email: "ada@school.test", FirstName: "Ada"},
		updateRes:  &models.User{ID: "u1", Email: "ada@school.test", FirstName: "Adaeze", Phone: "0800"},
	}
	m, st, notifier := newTestManager(t, api)
	seedSession(t, st, "tok-1", models.User{ID: "u1", Email: "ada@school.test", FirstName: "Ada"})
	m.Bootstrap(context.Background())

	user, err := m.UpdateProfile(context.Background(), models.UpdateProfileRequest{FirstName: "Adaeze", Phone: "0800"})
	require.NoError(t, err)
	assert.Equal(t, "Adaeze", user.FirstName)

	snap := m.Snapshot()
	assert.Equal(t, "Adaeze", snap.User.FirstName)
	assert.Equal(t, "tok-1", snap.Token)

	raw, err := st.Get(store.KeyAuthUser)
	require.NoError(t, err)
	persisted := models.User{}
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, "Adaeze", persisted.FirstName)

	assert.Contains(t, notifier.titles(), "Profile updated")
	assertAuthInvariant(t, m)
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	m, _, _ := newTestManager(t, &mockAPI{})
	_, err := m.UpdateProfile(context.Background(), models.UpdateProfileRequest{FirstName: "X"})
	require.Error(t, err)
}

func TestForgotAndResetPasswordAreStateless(t *testing.T) {
	m, _, notifier := newTestManager(t, &mockAPI{})

	require.NoError(t, m.ForgotPassword(context.Background(), "ada@school.test"))
	require.NoError(t, m.ResetPassword(context.Background(), "reset-tok", "newpass1"))

	snap := m.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.IsAuthenticated())

	titles := notifier.titles()
	assert.Contains(t, titles, "Reset email sent")
	assert.Contains(t, titles, "Password reset")
	assertAuthInvariant(t, m)
}

func TestResetPasswordSurfacesServerMessage(t *testing.T) {
	api := &mockAPI{resetErr: apperrors.New(apperrors.KindHTTP, "BAD_TOKEN", http.StatusBadRequest, "reset token invalid")}
	m, _, notifier := newTestManager(t, api)

	err := m.ResetPassword(context.Background(), "stale", "newpass1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset token invalid")
	assert.Contains(t, notifier.titles(), "Reset failed")
}

func TestTokenInfoDecodesWithoutVerification(t *testing.T) {
	claims := &models.TokenClaims{
		UserID: "u1",
		Email:  "ada@school.test",
		Role:   models.RoleTeacher,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-unknown-secret"))
	require.NoError(t, err)

	api := &mockAPI{loginRes: &models.AuthResponse{Token: signed, User: models.User{ID: "u1", Email: "ada@school.test"}}}
	m, _, _ := newTestManager(t, api)
	_, err = m.Login(context.Background(), models.LoginRequest{Email: "ada@school.test", Password: "secret"})
	require.NoError(t, err)

	decoded, err := m.TokenInfo()
	require.NoError(t, err)
	assert.Equal(t, "u1", decoded.UserID)
	remaining, ok := decoded.ExpiresIn(time.Now())
	require.True(t, ok)
	assert.Positive(t, remaining)
}
