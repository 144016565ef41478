// Package auth obtains and refreshes YouTube OAuth tokens for the local user.
package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/term"
	"google.golang.org/api/youtube/v3"

	"github.com/mmcdole/tubeshelf/internal/config"
	"github.com/mmcdole/tubeshelf/internal/domain"
)

const (
	loginTimeout    = 5 * time.Minute
	callbackTimeout = 10 * time.Second
)

// ErrNoClient means no OAuth client ID/secret is configured
var ErrNoClient = errors.New("no OAuth client configured")

// Authenticator implements domain.TokenSource on top of an oauth2.Config,
// persisting the token through the store.
type Authenticator struct {
	oauth  *oauth2.Config
	store  domain.Store
	in     io.Reader
	out    io.Writer
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures an Authenticator
type Option func(*Authenticator)

// WithPrompt sets where the interactive flow prints the URL and reads the code
func WithPrompt(in io.Reader, out io.Writer) Option {
	return func(a *Authenticator) {
		a.in, a.out = in, out
	}
}

// WithEndpoint overrides Google's OAuth endpoint
func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(a *Authenticator) {
		a.oauth.Endpoint = ep
	}
}

// New creates an Authenticator for the configured OAuth client
func New(cfg config.YouTubeConfig, store domain.Store, logger *slog.Logger, opts ...Option) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{youtube.YoutubeReadonlyScope},
		},
		store:  store,
		in:     os.Stdin,
		out:    os.Stdout,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetToken returns a valid access token. The stored token is refreshed when
// expired. Without a stored token, interactive runs the browser login;
// otherwise the result is domain.ErrNoToken. A manual sign-out suppresses
// non-interactive logins until the next interactive one.
func (a *Authenticator) GetToken(ctx context.Context, interactive bool) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !interactive && a.store.GetAuthFlags().SignedOut {
		return "", fmt.Errorf("%w: signed out", domain.ErrNoToken)
	}

	if tok, ok := a.load(); ok {
		fresh, err := a.oauth.TokenSource(ctx, tok).Token()
		if err == nil {
			if fresh.AccessToken != tok.AccessToken {
				a.logger.Debug("access token refreshed", "expiry", fresh.Expiry)
				a.save(fresh)
			}
			return fresh.AccessToken, nil
		}
		a.logger.Warn("stored token could not be refreshed", "error", err)
		if !interactive {
			return "", fmt.Errorf("%w: %v", domain.ErrNoToken, err)
		}
	} else if !interactive {
		return "", domain.ErrNoToken
	}

	tok, err := a.login(ctx)
	if err != nil {
		return "", err
	}
	a.save(tok)
	if err := a.store.SaveAuthFlags(domain.AuthFlags{}); err != nil {
		a.logger.Warn("failed to clear signed-out flag", "error", err)
	}
	return tok.AccessToken, nil
}

// SignOut forgets the token and blocks silent re-login
func (a *Authenticator) SignOut() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.ClearAuthToken(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if err := a.store.SaveAuthFlags(domain.AuthFlags{SignedOut: true, SignedOutAt: a.now()}); err != nil {
		return fmt.Errorf("save auth flags: %w", err)
	}
	a.logger.Info("signed out")
	return nil
}

// codeResult is one answer to the authorization request
type codeResult struct {
	code string
	err  error
}

// login runs the authorization-code flow with PKCE. With no redirect URL
// configured, Google redirects to a loopback listener; the redirected
// address (or just its code) may also be pasted for browsers on another
// machine. A configured redirect URL means the code is always pasted.
func (a *Authenticator) login(ctx context.Context) (*oauth2.Token, error) {
	if a.oauth.ClientID == "" {
		return nil, ErrNoClient
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	conf := *a.oauth
	verifier := oauth2.GenerateVerifier()
	state := oauth2.GenerateVerifier()
	codes := make(chan codeResult, 2)

	loopback := conf.RedirectURL == ""
	if loopback {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("failed to listen for the OAuth redirect: %w", err)
		}
		conf.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr())
		srv := &http.Server{Handler: callbackHandler(state, codes), ReadHeaderTimeout: callbackTimeout}
		go srv.Serve(ln)
		defer srv.Close()
	}

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(a.out, "  Open this URL and approve access:")
	fmt.Fprintf(a.out, "  %s\n", authURL)
	fmt.Fprintln(a.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if loopback {
		fmt.Fprintln(a.out, "Waiting for the browser to finish...")
		fmt.Fprint(a.out, "Browser on another machine? Paste the address it was sent to: ")
		go func() {
			line, _ := bufio.NewReader(a.in).ReadString('\n')
			if line = strings.TrimSpace(line); line != "" {
				codes <- parsePasted(line, state)
			}
		}()
	} else {
		fmt.Fprint(a.out, "Paste the authorization code: ")
		code, err := a.readCode()
		if err != nil {
			return nil, fmt.Errorf("failed to read authorization code: %w", err)
		}
		codes <- parsePasted(code, state)
	}

	var res codeResult
	select {
	case res = <-codes:
	case <-ctx.Done():
		return nil, fmt.Errorf("timed out waiting for authorization: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		a.logger.Error("code exchange failed", "error", err)
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Authentication successful!")
	a.logger.Info("signed in", "expiry", tok.Expiry)
	return tok, nil
}

// callbackHandler answers Google's redirect to the loopback listener.
// Requests without our state, such as a favicon fetch, are ignored.
func callbackHandler(state string, codes chan<- codeResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "Unexpected request.", http.StatusBadRequest)
			return
		}

		res := codeResult{code: q.Get("code")}
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
			http.Error(w, "Access was not granted. You can close this window.", http.StatusForbidden)
		case res.code == "":
			res.err = errors.New("empty authorization code")
			http.Error(w, "No authorization code received.", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "tubeshelf is signed in. You can close this window.")
		}

		select {
		case codes <- res:
		default:
		}
	})
}

// parsePasted accepts a bare code or the full redirected address
func parsePasted(input, state string) codeResult {
	if input == "" {
		return codeResult{err: errors.New("empty authorization code")}
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return codeResult{code: input}
	}

	u, err := url.Parse(input)
	if err != nil {
		return codeResult{err: fmt.Errorf("invalid redirect address: %w", err)}
	}
	q := u.Query()
	switch {
	case q.Get("error") != "":
		return codeResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))}
	case q.Get("state") != state:
		return codeResult{err: errors.New("redirect address does not belong to this login")}
	case q.Get("code") == "":
		return codeResult{err: errors.New("redirect address has no authorization code")}
	}
	return codeResult{code: q.Get("code")}
}

// readCode hides the pasted code when reading from a terminal
func (a *Authenticator) readCode() (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		return strings.TrimSpace(string(b)), err
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *Authenticator) load() (*oauth2.Token, bool) {
	data, ok := a.store.GetAuthToken()
	if !ok {
		return nil, false
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		a.logger.Warn("discarding malformed stored token", "error", err)
		return nil, false
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, false
	}
	return &tok, true
}

func (a *Authenticator) save(tok *oauth2.Token) {
	data, err := json.Marshal(tok)
	if err != nil {
		a.logger.Warn("failed to encode token", "error", err)
		return
	}
	if err := a.store.SaveAuthToken(data); err != nil {
		a.logger.Warn("failed to persist token", "error", err)
	}
}
