package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/logging"
)

var (
	// ErrNoCredentialsFile is returned when no client secret path is configured.
	ErrNoCredentialsFile = errors.New("no Google client credentials file configured, set GMAIL_APP_CREDENTIALS_FILE")

	// ErrTokenNotFound is returned when the token cache does not exist yet.
	ErrTokenNotFound = errors.New("no cached Google OAuth token, run the auth command first")
)

// LoadConfig reads a client secret JSON file (installed or web application)
// and returns an OAuth2 config for scopes, defaulting to DefaultOAuthScopes.
func LoadConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	if credentialsFile == "" {
		return nil, ErrNoCredentialsFile
	}
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	conf, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return conf, nil
}

// LoadToken reads a cached token.
func LoadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no access or refresh token", path)
	}
	return tok, nil
}

// SaveToken writes tok to path with owner-only permissions. The file is
// replaced atomically so a crash never leaves a truncated cache.
func SaveToken(path string, tok *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".token-*")
	if err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// persistingTokenSource saves every token it has not seen before back to
// the cache file. Tokens are only new after a refresh.
type persistingTokenSource struct {
	ctx     context.Context
	base    oauth2.TokenSource
	path    string
	metrics *instrumentation.Metrics
	logger  *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		s.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to refresh Google token: %w", err)
	}
	if tok.AccessToken == s.last {
		return tok, nil
	}

	s.last = tok.AccessToken
	s.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultSuccess)
	if err := SaveToken(s.path, tok); err != nil {
		// The token still works in memory; the next refresh retries the write.
		s.logger.Warn("failed to persist refreshed token", logging.Err(err))
	} else {
		s.logger.Debug("persisted refreshed token", slog.String("token", logging.SanitizeToken(tok.AccessToken)))
	}
	return tok, nil
}

// TokenSource returns a token source for the cached token at tokenFile
// that persists refreshed tokens. ctx is used for refresh requests and
// must outlive the returned source.
func TokenSource(ctx context.Context, conf *oauth2.Config, tokenFile string, metrics *instrumentation.Metrics) (oauth2.TokenSource, error) {
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		ctx:     ctx,
		base:    conf.TokenSource(ctx, tok),
		path:    tokenFile,
		metrics: metrics,
		logger:  logging.WithOperation(slog.Default(), "google.token"),
		last:    tok.AccessToken,
	}, nil
}

// NewHTTPClient returns an HTTP client authenticated with the cached token.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, tokenFile string, metrics *instrumentation.Metrics) (*http.Client, error) {
	ts, err := TokenSource(ctx, conf, tokenFile, metrics)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, ts),
			Base:   &http.Transport{ForceAttemptHTTP2: false, Proxy: http.ProxyFromEnvironment},
		},
	}, nil
}
