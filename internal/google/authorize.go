package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// AuthorizeInteractive runs the installed-app flow on a loopback
// redirect: it prints the consent URL to out, waits for Google to redirect
// the browser back with a code, exchanges it and saves the token.
func AuthorizeInteractive(ctx context.Context, conf *oauth2.Config, tokenFile string, out io.Writer) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to open loopback listener: %w", err)
	}
	defer ln.Close()

	c := *conf
	c.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state, err := randomState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	authURL := c.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	fmt.Fprintf(out, "Open the following URL in your browser to grant read-only Gmail access:\n\n%s\n\n", authURL)

	code, err := waitForCode(ctx, ln, state)
	if err != nil {
		return nil, err
	}

	tok, err := c.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := SaveToken(tokenFile, tok); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Token saved to %s\n", tokenFile)
	return tok, nil
}

type callbackResult struct {
	code string
	err  error
}

func waitForCode(ctx context.Context, ln net.Listener, state string) (string, error) {
	results := make(chan callbackResult, 1)

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := parseCallback(r, state)
			if res.err != nil {
				http.Error(w, res.err.Error(), http.StatusBadRequest)
			} else {
				fmt.Fprintln(w, "Authorization complete, you can close this window.")
			}
			select {
			case results <- res:
			default:
			}
		}),
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func parseCallback(r *http.Request, state string) callbackResult {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return callbackResult{err: fmt.Errorf("authorization denied: %s", e)}
	}
	if q.Get("state") != state {
		return callbackResult{err: errors.New("authorization state mismatch")}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: errors.New("authorization response has no code")}
	}
	return callbackResult{code: code}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
