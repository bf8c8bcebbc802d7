package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/terzoomedia/hasad-go/internal/models"
)

func tempCredsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "credentials.json")
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestLoginPersistsAndRehydrates(t *testing.T) {
	path := tempCredsPath(t)

	store := New(path, time.Hour, nil)
	user := &models.User{ID: 1, Name: "Admin", Email: "admin@example.com"}
	require.NoError(t, store.Login("opaque-token", user))

	fresh := New(path, time.Hour, nil)
	require.NoError(t, fresh.Rehydrate())
	require.True(t, fresh.Authenticated())
	require.Equal(t, "opaque-token", fresh.Token())
	require.Equal(t, "Admin", fresh.User().Name)
}

func TestLogoutClearsStateButKeepsLanguage(t *testing.T) {
	path := tempCredsPath(t)

	store := New(path, time.Hour, nil)
	require.NoError(t, store.SetPreferredLanguage("ar"))
	require.NoError(t, store.Login("tok", &models.User{ID: 1}))

	store.Logout()
	require.False(t, store.Authenticated())
	require.Nil(t, store.User())
	require.Equal(t, "ar", store.PreferredLanguage())

	fresh := New(path, time.Hour, nil)
	require.NoError(t, fresh.Rehydrate())
	require.False(t, fresh.Authenticated())
	require.Equal(t, "ar", fresh.PreferredLanguage())
}

func TestRehydrateDiscardsExpiredJWT(t *testing.T) {
	path := tempCredsPath(t)

	store := New(path, time.Hour, nil)
	require.NoError(t, store.Login(signedToken(t, time.Now().Add(-time.Minute)), &models.User{ID: 1}))

	fresh := New(path, time.Hour, nil)
	require.NoError(t, fresh.Rehydrate())
	require.False(t, fresh.Authenticated())
	require.Nil(t, fresh.User())
}

func TestRehydrateKeepsLiveJWT(t *testing.T) {
	path := tempCredsPath(t)

	store := New(path, time.Hour, nil)
	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Login(token, nil))

	fresh := New(path, time.Hour, nil)
	require.NoError(t, fresh.Rehydrate())
	require.Equal(t, token, fresh.Token())
}

func TestOpaqueTokenFallsBackToSavedAtTTL(t *testing.T) {
	path := tempCredsPath(t)

	stale := credentials{Token: "opaque", SavedAt: time.Now().Add(-48 * time.Hour)}
	raw, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	store := New(path, 24*time.Hour, nil)
	require.NoError(t, store.Rehydrate())
	require.False(t, store.Authenticated())
}

func TestRehydrateRemovesCorruptFile(t *testing.T) {
	path := tempCredsPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := New(path, time.Hour, nil)
	require.NoError(t, store.Rehydrate())
	require.False(t, store.Authenticated())

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestEmptyPathDisablesPersistence(t *testing.T) {
	store := New("", time.Hour, nil)
	require.NoError(t, store.Login("tok", nil))
	require.NoError(t, store.Rehydrate())
	require.True(t, store.Authenticated())
}
