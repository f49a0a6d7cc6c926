// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/teamstation/internal/audit"
	"github.com/angelamos/teamstation/internal/core"
)

// captureSink collects audit entries so tests can assert which actions a
// service call recorded.
type captureSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureSink) Record(_ context.Context, entry audit.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureSink) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeCredentialRepo keeps credentials in memory with the same consume
// semantics as the SQL repository: a rotation revokes the presented
// credential and a second rotation with the same hash fails.
type fakeCredentialRepo struct {
	mu    sync.Mutex
	creds map[string]*RefreshCredential
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{creds: make(map[string]*RefreshCredential)}
}

func (f *fakeCredentialRepo) Create(
	_ context.Context,
	cred *RefreshCredential,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.creds {
		if c.TokenHash == cred.TokenHash {
			return fmt.Errorf("create: %w", core.ErrDuplicateKey)
		}
	}

	stored := *cred
	stored.CreatedAt = time.Now()
	f.creds[cred.ID] = &stored
	return nil
}

func (f *fakeCredentialRepo) FindByHash(
	_ context.Context,
	tokenHash string,
) (*RefreshCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.creds {
		if c.TokenHash == tokenHash {
			copied := *c
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("find: %w", core.ErrNotFound)
}

func (f *fakeCredentialRepo) FindByID(
	_ context.Context,
	id string,
) (*RefreshCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.creds[id]
	if !ok {
		return nil, fmt.Errorf("find: %w", core.ErrNotFound)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCredentialRepo) Rotate(
	_ context.Context,
	tokenHash string,
	successor *RefreshCredential,
) (*RefreshCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var old *RefreshCredential
	for _, c := range f.creds {
		if c.TokenHash == tokenHash {
			old = c
			break
		}
	}
	if old == nil {
		return nil, fmt.Errorf("rotate: %w", core.ErrNotFound)
	}
	if old.IsRevoked() {
		return nil, fmt.Errorf("rotate: %w", core.ErrTokenRevoked)
	}
	if old.IsExpired() {
		return nil, fmt.Errorf("rotate: %w", core.ErrTokenExpired)
	}
	if old.UserID != successor.UserID {
		return nil, fmt.Errorf("rotate: %w", core.ErrTokenInvalid)
	}

	now := time.Now()
	old.RevokedAt = &now

	stored := *successor
	stored.CreatedAt = now
	f.creds[successor.ID] = &stored

	copied := *old
	return &copied, nil
}

func (f *fakeCredentialRepo) RevokeByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.creds[id]
	if !ok || c.IsRevoked() {
		return fmt.Errorf("revoke: %w", core.ErrNotFound)
	}
	now := time.Now()
	c.RevokedAt = &now
	return nil
}

func (f *fakeCredentialRepo) RevokeAllForUser(
	_ context.Context,
	userID string,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var revoked int64
	now := time.Now()
	for _, c := range f.creds {
		if c.UserID == userID && !c.IsRevoked() {
			c.RevokedAt = &now
			revoked++
		}
	}
	return revoked, nil
}

func (f *fakeCredentialRepo) ListActiveForUser(
	_ context.Context,
	userID string,
) ([]RefreshCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []RefreshCredential
	for _, c := range f.creds {
		if c.UserID == userID && c.IsActive() {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCredentialRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for id, c := range f.creds {
		if c.IsExpired() {
			delete(f.creds, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeUserProvider struct {
	mu      sync.Mutex
	byEmail map[string]*UserInfo
	nextID  int
}

func newFakeUserProvider() *fakeUserProvider {
	return &fakeUserProvider{byEmail: make(map[string]*UserInfo)}
}

func (f *fakeUserProvider) GetByEmail(
	_ context.Context,
	email string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserProvider) GetByID(
	_ context.Context,
	id string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byEmail {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeUserProvider) Create(
	_ context.Context,
	email, passwordHash, name string,
) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.byEmail[email]; exists {
		return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}

	f.nextID++
	u := &UserInfo{
		ID:           fmt.Sprintf("user-%d", f.nextID),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         "USER",
		CreatedAt:    time.Now(),
	}
	f.byEmail[email] = u
	copied := *u
	return &copied, nil
}

func (f *fakeUserProvider) IncrementTokenVersion(
	_ context.Context,
	userID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byEmail {
		if u.ID == userID {
			u.TokenVersion++
			return nil
		}
	}
	return fmt.Errorf("increment token version: %w", core.ErrNotFound)
}

func (f *fakeUserProvider) UpdatePassword(
	_ context.Context,
	userID, passwordHash string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byEmail {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return fmt.Errorf("update password: %w", core.ErrNotFound)
}

func newTestService(t *testing.T) (*Service, *fakeCredentialRepo, *fakeUserProvider) {
	t.Helper()

	svc, repo, users, _ := newAuditedService(t)
	return svc, repo, users
}

func newAuditedService(
	t *testing.T,
) (*Service, *fakeCredentialRepo, *fakeUserProvider, *captureSink) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newFakeCredentialRepo()
	users := newFakeUserProvider()
	manager := newTestJWTManager(t, 15*time.Minute)
	sink := &captureSink{}

	return NewService(repo, manager, users, client, sink), repo, users, sink
}

func registerTestUser(
	t *testing.T,
	svc *Service,
	email, password string,
) *AuthResponse {
	t.Helper()

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Test User",
	}, "go-test", "127.0.0.1")
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "alice@example.com", "s3cretpass")
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "USER", resp.User.Role)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	login, err := svc.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cretpass",
	}, "go-test", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "wrongpassword",
	}, "go-test", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cretpass",
	}, "go-test", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "alice@example.com", "s3cretpass")

	_, err := svc.Register(ctx, RegisterRequest{
		Email:    "alice@example.com",
		Password: "otherpass1",
		Name:     "Impostor",
	}, "go-test", "127.0.0.1")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRefreshRotatesCredential(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "alice@example.com", "s3cretpass")
	firstRefresh := resp.Tokens.RefreshToken

	rotated, err := svc.Refresh(ctx, firstRefresh, "go-test", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, firstRefresh, rotated.Tokens.RefreshToken)

	// the presented credential is now revoked, not deleted
	old, err := repo.FindByHash(ctx, core.HashToken(firstRefresh))
	require.NoError(t, err)
	assert.True(t, old.IsRevoked())

	// successor works
	_, err = svc.Refresh(
		ctx,
		rotated.Tokens.RefreshToken,
		"go-test",
		"127.0.0.1",
	)
	require.NoError(t, err)
}

func TestRefreshReplayFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "alice@example.com", "s3cretpass")
	firstRefresh := resp.Tokens.RefreshToken

	_, err := svc.Refresh(ctx, firstRefresh, "go-test", "127.0.0.1")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, firstRefresh, "go-test", "127.0.0.1")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "alice@example.com", "s3cretpass")

	_, err := svc.Refresh(ctx, "garbage-token", "go-test", "127.0.0.1")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRefreshAfterLogoutAllFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "alice@example.com", "s3cretpass")

	revoked, err := svc.LogoutAll(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), revoked)

	_, err = svc.Refresh(
		ctx,
		resp.Tokens.RefreshToken,
		"go-test",
		"127.0.0.1",
	)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "alice@example.com", "s3cretpass")

	revoked, err := svc.Logout(ctx, resp.Tokens.RefreshToken, resp.User.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	// second logout with the same token reports nothing revoked
	revoked, err = svc.Logout(ctx, resp.Tokens.RefreshToken, resp.User.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	// unknown token is also not an error
	revoked, err = svc.Logout(ctx, "unknown-token", resp.User.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	alice := registerTestUser(t, svc, "alice@example.com", "s3cretpass")
	bob := registerTestUser(t, svc, "bob@example.com", "s3cretpass")

	_, err := svc.Logout(ctx, alice.Tokens.RefreshToken, bob.User.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestLogoutAllBumpsTokenVersion(t *testing.T) {
	svc, _, users := newTestService(t)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "alice@example.com", "s3cretpass")

	// a second session
	_, err := svc.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cretpass",
	}, "go-test", "127.0.0.1")
	require.NoError(t, err)

	revoked, err := svc.LogoutAll(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), revoked)

	u, err := users.GetByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.TokenVersion)

	// access tokens minted before the bump are now rejected
	err = svc.ValidateTokenVersion(ctx, resp.User.ID, 0)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	err = svc.ValidateTokenVersion(ctx, resp.User.ID, 1)
	assert.NoError(t, err)
}

func TestAccessTokenBlacklist(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "alice@example.com", "s3cretpass")

	jti, _, err := svc.jwt.AccessTokenID(resp.Tokens.AccessToken)
	require.NoError(t, err)

	listed, err := svc.IsAccessTokenBlacklisted(ctx, jti)
	require.NoError(t, err)
	assert.False(t, listed)

	require.NoError(
		t,
		svc.BlacklistAccessToken(ctx, resp.Tokens.AccessToken),
	)

	listed, err = svc.IsAccessTokenBlacklisted(ctx, jti)
	require.NoError(t, err)
	assert.True(t, listed)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "alice@example.com", "s3cretpass")

	err := svc.ChangePassword(ctx, resp.User.ID, "wrongpass1", "newpass123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(
		t,
		svc.ChangePassword(ctx, resp.User.ID, "s3cretpass", "newpass123"),
	)

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cretpass",
	}, "go-test", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "newpass123",
	}, "go-test", "127.0.0.1")
	require.NoError(t, err)

	_, err = svc.Refresh(
		ctx,
		resp.Tokens.RefreshToken,
		"go-test",
		"127.0.0.1",
	)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestSessionListingAndRevocation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	alice := registerTestUser(t, svc, "alice@example.com", "s3cretpass")
	bob := registerTestUser(t, svc, "bob@example.com", "s3cretpass")

	sessions, err := svc.GetActiveSessions(ctx, alice.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "go-test", sessions[0].UserAgent)

	// bob cannot revoke alice's session
	err = svc.RevokeSession(ctx, bob.User.ID, sessions[0].ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, svc.RevokeSession(ctx, alice.User.ID, sessions[0].ID))

	sessions, err = svc.GetActiveSessions(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestAuthOperationsAreAudited(t *testing.T) {
	svc, _, _, sink := newAuditedService(t)
	ctx := context.Background()

	resp := registerTestUser(t, svc, "alice@example.com", "s3cretpass")

	login, err := svc.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cretpass",
	}, "go-test", "127.0.0.1")
	require.NoError(t, err)

	rotated, err := svc.Refresh(
		ctx,
		login.Tokens.RefreshToken,
		"go-test",
		"127.0.0.1",
	)
	require.NoError(t, err)

	revoked, err := svc.Logout(
		ctx,
		rotated.Tokens.RefreshToken,
		resp.User.ID,
	)
	require.NoError(t, err)
	require.True(t, revoked)

	require.NoError(
		t,
		svc.ChangePassword(ctx, resp.User.ID, "s3cretpass", "newpass123"),
	)

	assert.Equal(t, []string{
		audit.ActionUserRegister,
		audit.ActionUserLogin,
		audit.ActionTokenRotate,
		audit.ActionUserLogout,
		audit.ActionUserLogoutAll,
		audit.ActionPasswordChange,
	}, sink.actions())

	// the rotation entry points at the successor credential
	var rotate audit.Entry
	for _, e := range sink.entries {
		if e.Action == audit.ActionTokenRotate {
			rotate = e
		}
	}
	assert.Equal(t, "refresh_credential", rotate.EntityType)
	assert.NotEmpty(t, rotate.EntityID)
	assert.Equal(t, "127.0.0.1", rotate.IPAddress)
}

func TestFailedLoginIsNotAudited(t *testing.T) {
	svc, _, _, sink := newAuditedService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "alice@example.com", "s3cretpass")

	_, err := svc.Login(ctx, LoginRequest{
		Email:    "alice@example.com",
		Password: "wrongpassword",
	}, "go-test", "127.0.0.1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, []string{audit.ActionUserRegister}, sink.actions())
}
