package services

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"library-catalog/internal/models"
	"library-catalog/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T, hash bool) (*AuthService, *SessionStore, *store.AccountStore) {
	t.Helper()
	accounts, err := store.NewAccountStore(filepath.Join(t.TempDir(), "users.json"), zerolog.Nop())
	require.NoError(t, err)
	sessions := NewSessionStore()
	return NewAuthService(accounts, sessions, "test-secret", hash, zerolog.Nop()), sessions, accounts
}

func strPtr(s string) *string { return &s }

func TestLogin_VerifyLogout(t *testing.T) {
	auth, sessions, _ := newAuth(t, false)

	session, err := auth.Login("admin", "admin123")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, models.PublicUser{Username: "admin", DisplayName: "Administrator", Role: "admin"}, session.User)
	assert.WithinDuration(t, time.Now(), session.IssuedAt, time.Minute)

	verified := auth.Verify(session.Token)
	require.NotNil(t, verified)
	assert.Equal(t, "admin", verified.User.Role)
	assert.Equal(t, 1, sessions.Len())

	auth.Logout(session.Token)
	assert.Nil(t, auth.Verify(session.Token))

	auth.Logout(session.Token)
	auth.Logout("")
	assert.Zero(t, sessions.Len())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	auth, sessions, _ := newAuth(t, false)

	_, wrongPassword := auth.Login("admin", "wrong")
	_, unknownUser := auth.Login("nobody", "admin123")
	_, blank := auth.Login("", "")

	for _, err := range []error{wrongPassword, unknownUser, blank} {
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		assert.Equal(t, models.ErrUnauthenticated.Error(), err.Error())
	}
	assert.Zero(t, sessions.Len())
}

func TestLogin_PasswordIsExactMatch(t *testing.T) {
	auth, _, _ := newAuth(t, false)

	_, err := auth.Login("admin", "admin123 ")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = auth.Login("ADMIN", "admin123")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = auth.Login("  admin ", "admin123")
	assert.NoError(t, err)
}

func TestLogin_IssuesDistinctTokens(t *testing.T) {
	auth, sessions, _ := newAuth(t, false)

	first, err := auth.Login("guest", "guest")
	require.NoError(t, err)
	second, err := auth.Login("guest", "guest")
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, 2, sessions.Len())
}

func TestVerify_RejectsForeignAndForgedTokens(t *testing.T) {
	auth, sessions, _ := newAuth(t, false)

	assert.Nil(t, auth.Verify(""))
	assert.Nil(t, auth.Verify("not-a-token"))

	// Correctly signed but never issued.
	token, err := auth.GenerateToken("admin")
	require.NoError(t, err)
	assert.Nil(t, auth.Verify(token))

	// Live session, but signed with another key.
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "admin"}).SignedString([]byte("other"))
	require.NoError(t, err)
	sessions.Put(models.Session{Token: forged, User: models.PublicUser{Username: "admin", Role: "admin"}})
	assert.Nil(t, auth.Verify(forged))
}

func TestRegister(t *testing.T) {
	auth, _, accounts := newAuth(t, false)

	user, err := auth.Register(models.RegisterRequest{Username: " carol ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.PublicUser{Username: "carol", DisplayName: "carol", Role: "user"}, *user)

	stored, err := accounts.Find("carol")
	require.NoError(t, err)
	assert.Equal(t, "pw", stored.Password)

	_, err = auth.Register(models.RegisterRequest{Username: "carol", Password: "x"})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = auth.Register(models.RegisterRequest{Username: "dave"})
	assert.ErrorIs(t, err, models.ErrValidation)

	session, err := auth.Login("carol", "pw")
	require.NoError(t, err)
	assert.Equal(t, "user", session.User.Role)
}

func TestRegister_HashedPasswords(t *testing.T) {
	auth, _, accounts := newAuth(t, true)

	_, err := auth.Register(models.RegisterRequest{Username: "erin", Password: "secret"})
	require.NoError(t, err)

	stored, err := accounts.Find("erin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Password, "$2"))
	assert.NotEqual(t, "secret", stored.Password)

	_, err = auth.Login("erin", "secret")
	assert.NoError(t, err)
	_, err = auth.Login("erin", stored.Password)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	// Seeded plaintext accounts keep working with hashing enabled.
	_, err = auth.Login("admin", "admin123")
	assert.NoError(t, err)
}

func TestLogin_HashShapedPlaintextPassword(t *testing.T) {
	auth, _, _ := newAuth(t, false)
	password := "$2a$10$" + strings.Repeat("x", 53)
	require.Len(t, password, 60)

	_, err := auth.Register(models.RegisterRequest{Username: "frank", Password: password})
	require.NoError(t, err)

	_, err = auth.Login("frank", password)
	assert.NoError(t, err)
	_, err = auth.Login("frank", "x")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestUpdateUser_RefreshesLiveSessions(t *testing.T) {
	auth, _, _ := newAuth(t, false)
	admin := models.PublicUser{Username: "admin", Role: "admin"}

	guest, err := auth.Login("guest", "guest")
	require.NoError(t, err)

	updated, err := auth.UpdateUser(admin, "guest", models.AccountChanges{Role: strPtr("admin"), DisplayName: strPtr("Promoted")})
	require.NoError(t, err)
	assert.Equal(t, "admin", updated.Role)

	verified := auth.Verify(guest.Token)
	require.NotNil(t, verified)
	assert.Equal(t, "admin", verified.User.Role)
	assert.Equal(t, "Promoted", verified.User.DisplayName)

	_, err = auth.UpdateUser(admin, "guest", models.AccountChanges{Role: strPtr("owner")})
	require.NoError(t, err)
	assert.Equal(t, "user", auth.Verify(guest.Token).User.Role)

	_, err = auth.UpdateUser(admin, "nobody", models.AccountChanges{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateUser_PasswordReset(t *testing.T) {
	auth, _, _ := newAuth(t, false)
	admin := models.PublicUser{Username: "admin", Role: "admin"}

	_, err := auth.UpdateUser(admin, "guest", models.AccountChanges{Password: strPtr("fresh")})
	require.NoError(t, err)

	_, err = auth.Login("guest", "guest")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
	_, err = auth.Login("guest", "fresh")
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	auth, _, _ := newAuth(t, false)
	admin := models.PublicUser{Username: "admin", Role: "admin"}

	guest, err := auth.Login("guest", "guest")
	require.NoError(t, err)

	err = auth.DeleteUser(admin, "admin")
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, auth.DeleteUser(admin, "guest"))
	assert.Nil(t, auth.Verify(guest.Token))

	_, err = auth.Login("guest", "guest")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	assert.ErrorIs(t, auth.DeleteUser(admin, "guest"), models.ErrNotFound)

	users, err := auth.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestShutdown_ClearsSessions(t *testing.T) {
	auth, sessions, _ := newAuth(t, false)

	session, err := auth.Login("admin", "admin123")
	require.NoError(t, err)

	auth.Shutdown()
	assert.Zero(t, sessions.Len())
	assert.Nil(t, auth.Verify(session.Token))
}
