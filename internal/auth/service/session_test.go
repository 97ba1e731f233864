package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rollcall-hq/rollcall/internal/auth/domain"
	"github.com/rollcall-hq/rollcall/internal/auth/revoke"
	"github.com/rollcall-hq/rollcall/internal/auth/service"
	"github.com/rollcall-hq/rollcall/internal/auth/store/drivers/sqlite"
	"github.com/rollcall-hq/rollcall/pkg/cryptox"
	"github.com/rollcall-hq/rollcall/pkg/idx"
	"github.com/rollcall-hq/rollcall/pkg/jwtx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "rollcall-auth"

type sessionFixture struct {
	sessions *service.SessionService
	users    *service.UserService
	store    *sqlite.Store
	signer   *jwtx.HS256
	revoked  *revoke.Memory
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewHS256([]byte("test-secret-do-not-use"), testIssuer)
	require.NoError(t, err)

	revoked := revoke.NewMemory()
	sessions := service.NewSessionService(
		signer, signer, st, revoked, testIssuer,
		15*time.Minute, 7*24*time.Hour,
	)

	return &sessionFixture{
		sessions: sessions,
		users:    service.NewUserService(st),
		store:    st,
		signer:   signer,
		revoked:  revoked,
	}
}

func (f *sessionFixture) seedUser(t *testing.T, email, password string, role domain.Role) domain.User {
	t.Helper()

	user, err := f.users.CreateUser(context.Background(), email, "Seeded User", password, role)
	require.NoError(t, err)
	return user
}

func TestLogin_Success(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	user := f.seedUser(t, "coach@example.com", "Sw0rdfish!", domain.RoleCoach)

	pair, err := f.sessions.Login(ctx, "coach@example.com", "Sw0rdfish!")
	require.NoError(t, err)

	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)
	assert.Equal(t, int64(604800), pair.RefreshExpiresIn)

	access, err := f.signer.Verify(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := f.signer.Verify(pair.RefreshToken)
	require.NoError(t, err)

	// Same identity in both tokens, different jtis.
	assert.Equal(t, user.ID, access.UserID)
	assert.Equal(t, access.Identity(), refresh.Identity())
	assert.NotEqual(t, access.ID, refresh.ID)
	assert.Equal(t, string(domain.RoleCoach), access.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.seedUser(t, "coach@example.com", "Sw0rdfish!", domain.RoleCoach)

	// Case matters.
	_, err := f.sessions.Login(ctx, "coach@example.com", "sw0rdfish!")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.sessions.Login(context.Background(), "nobody@example.com", "whatever1")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLogin_LegacyPasswordUpgrade(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	legacy := "imported-plaintext"
	user := domain.User{
		ID:             idx.New().String(),
		Email:          "old@example.com",
		DisplayName:    "Imported",
		Role:           domain.RoleStudent,
		LegacyPassword: &legacy,
	}
	require.NoError(t, f.store.Users().CreateUser(ctx, user))

	// Wrong password against the legacy credential still fails closed.
	_, err := f.sessions.Login(ctx, "old@example.com", "imported-Plaintext")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.sessions.Login(ctx, "old@example.com", legacy)
	require.NoError(t, err)

	// The plaintext is gone and a real record took its place.
	upgraded, err := f.store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, upgraded.LegacyPassword)
	assert.True(t, cryptox.VerifyPassword(legacy, upgraded.PasswordHash))

	// Subsequent logins use the hash path.
	_, err = f.sessions.Login(ctx, "old@example.com", legacy)
	require.NoError(t, err)
}

func TestRefresh_MintsNewAccessToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.seedUser(t, "student@example.com", "Sw0rdfish!", domain.RoleStudent)
	pair, err := f.sessions.Login(ctx, "student@example.com", "Sw0rdfish!")
	require.NoError(t, err)

	access, expiresIn, err := f.sessions.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(900), expiresIn)

	oldClaims, err := f.signer.Verify(pair.AccessToken)
	require.NoError(t, err)
	newClaims, err := f.signer.Verify(access)
	require.NoError(t, err)

	assert.Equal(t, oldClaims.Identity(), newClaims.Identity())
	assert.NotEqual(t, oldClaims.ID, newClaims.ID, "each refresh must mint a fresh jti")
}

func TestRefresh_RejectsAccessTokenShapeErrors(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, _, err := f.sessions.Refresh(ctx, token)
		require.ErrorIs(t, err, service.ErrInvalidRefresh)
	}
}

func TestRefresh_RejectsRevokedToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.seedUser(t, "student@example.com", "Sw0rdfish!", domain.RoleStudent)
	pair, err := f.sessions.Login(ctx, "student@example.com", "Sw0rdfish!")
	require.NoError(t, err)

	f.sessions.Logout(ctx, pair.RefreshToken)

	_, _, err = f.sessions.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefresh)
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.seedUser(t, "coach@example.com", "Sw0rdfish!", domain.RoleCoach)
	pair, err := f.sessions.Login(ctx, "coach@example.com", "Sw0rdfish!")
	require.NoError(t, err)

	f.sessions.Logout(ctx, pair.AccessToken, pair.RefreshToken)

	for _, token := range []string{pair.AccessToken, pair.RefreshToken} {
		claims, err := jwtx.DecodeUnverified(token)
		require.NoError(t, err)

		revoked, err := f.revoked.Contains(ctx, claims.ID)
		require.NoError(t, err)
		assert.True(t, revoked)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.seedUser(t, "coach@example.com", "Sw0rdfish!", domain.RoleCoach)
	pair, err := f.sessions.Login(ctx, "coach@example.com", "Sw0rdfish!")
	require.NoError(t, err)

	// Garbage and repeats never error; Logout has no failure surface.
	f.sessions.Logout(ctx, pair.AccessToken)
	f.sessions.Logout(ctx, pair.AccessToken)
	f.sessions.Logout(ctx, "", "not-a-token")
}

func TestChangePassword(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	user := f.seedUser(t, "admin@example.com", "Sw0rdfish!", domain.RoleAdmin)

	err := f.users.ChangePassword(ctx, user.ID, "wrong-current", "NewPass123")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	err = f.users.ChangePassword(ctx, user.ID, "Sw0rdfish!", "short")
	require.ErrorIs(t, err, service.ErrWeakPassword)

	require.NoError(t, f.users.ChangePassword(ctx, user.ID, "Sw0rdfish!", "NewPass123"))

	_, err = f.sessions.Login(ctx, "admin@example.com", "Sw0rdfish!")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.sessions.Login(ctx, "admin@example.com", "NewPass123")
	require.NoError(t, err)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.seedUser(t, "taken@example.com", "Sw0rdfish!", domain.RoleStudent)

	_, err := f.users.CreateUser(ctx, "taken@example.com", "Other", "Sw0rdfish!", domain.RoleStudent)
	require.ErrorIs(t, err, service.ErrEmailTaken)
}
