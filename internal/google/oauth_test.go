package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/inboxagent/internal/instrumentation"
)

const installedCredentials = `{
  "installed": {
    "client_id": "client-id.apps.googleusercontent.com",
    "client_secret": "secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	conf, err := LoadConfig(writeFile(t, "credentials.json", installedCredentials))
	require.NoError(t, err)
	assert.Equal(t, "client-id.apps.googleusercontent.com", conf.ClientID)
	assert.Equal(t, DefaultOAuthScopes, conf.Scopes)
	assert.Contains(t, conf.Scopes[0], "gmail.readonly")
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, ErrNoCredentialsFile)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.json", "{not json"))
	assert.Error(t, err)
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gmail_token.json")
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).Round(time.Second)}

	require.NoError(t, SaveToken(path, tok))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, tok.Expiry.Equal(loaded.Expiry))
}

func TestLoadToken_Errors(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "none.json"))
	assert.True(t, errors.Is(err, ErrTokenNotFound))

	_, err = LoadToken(writeFile(t, "empty.json", "{}"))
	assert.Error(t, err)

	_, err = LoadToken(writeFile(t, "garbage.json", "nope"))
	assert.Error(t, err)
}

func TestNewHTTPClient_PersistsRefreshedToken(t *testing.T) {
	var refreshes atomic.Int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	var seenAuth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	tokenFile := filepath.Join(t.TempDir(), "gmail_token.json")
	require.NoError(t, SaveToken(tokenFile, &oauth2.Token{
		AccessToken:  "stale-access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	conf := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenServer.URL, AuthStyle: oauth2.AuthStyleInParams},
	}
	client, err := NewHTTPClient(context.Background(), conf, tokenFile, &instrumentation.Metrics{})
	require.NoError(t, err)

	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer fresh-access", seenAuth.Load())
	assert.Equal(t, int32(1), refreshes.Load())

	saved, err := LoadToken(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", saved.AccessToken)
	assert.Equal(t, "refresh", saved.RefreshToken, "refresh token must survive a refresh response without one")
}

func TestNewHTTPClient_NoToken(t *testing.T) {
	_, err := NewHTTPClient(context.Background(), &oauth2.Config{}, filepath.Join(t.TempDir(), "x.json"), nil)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  string
	}{
		{"ok", "state=s1&code=abc", "abc", ""},
		{"denied", "error=access_denied&state=s1", "", "denied"},
		{"wrong state", "state=other&code=abc", "", "state mismatch"},
		{"no code", "state=s1", "", "no code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			res := parseCallback(r, "s1")
			if tt.wantErr != "" {
				require.Error(t, res.err)
				assert.True(t, strings.Contains(res.err.Error(), tt.wantErr), res.err.Error())
				return
			}
			require.NoError(t, res.err)
			assert.Equal(t, tt.wantCode, res.code)
		})
	}
}
