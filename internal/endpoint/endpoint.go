// Package endpoint decides, per connect attempt, how the bridge reaches
// the remote shell: a direct connection to the regional terminal host
// using a short-lived token, or a same-origin proxy path when no token
// can be obtained.
package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentuity/termbridge/internal/logx"
)

// Transport identifies which of the two connection strategies was chosen.
type Transport string

const (
	// TransportDirect connects straight to the terminal backend with an
	// ephemeral token.
	TransportDirect Transport = "direct"
	// TransportProxy tunnels through the session API origin.
	TransportProxy Transport = "proxy"
)

// Terminal backend hosts for the direct transport.
const (
	devHost         = "ion.agentuity.io"
	defaultProdHost = "ion.agentuity.cloud"
	regionHostFmt   = "ion-%s.agentuity.cloud"
)

// Target is a resolved connection descriptor. It is immutable once
// produced; every connect attempt resolves a fresh one because a
// previously issued token may have expired.
type Target struct {
	Transport Transport
	URL       string
}

// tokenResponse is the token-issuance payload. A null region routes to
// the default production host.
type tokenResponse struct {
	Token  string `json:"token"`
	Region string `json:"region"`
}

// Resolver obtains connection targets for sessions served from BaseURL
// (the origin the session API lives on, e.g. "https://app.agentuity.com"
// or "http://localhost:3000").
type Resolver struct {
	BaseURL string
	Client  *http.Client
}

// New returns a resolver with a request timeout suited to an interactive
// connect path: a slow token endpoint should fail fast into the proxy
// fallback rather than stall the terminal.
func New(baseURL string) *Resolver {
	return &Resolver{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Resolve picks exactly one transport for this attempt. It asks the
// session's token endpoint for a direct-transport credential and, on any
// failure at all, falls back to the proxy path. Failure here is the
// fallback signal, never an error to propagate; nothing is cached across
// attempts.
func (r *Resolver) Resolve(ctx context.Context, sessionID string, cols, rows uint16) Target {
	tok, err := r.issueToken(ctx, sessionID)
	if err != nil {
		logx.Log.Debug().Err(err).Str("session_id", sessionID).Msg("direct transport unavailable; using proxy")
		return Target{Transport: TransportProxy, URL: r.proxyURL(sessionID)}
	}
	// Query order is part of the wire contract consumed by the backend's
	// access logs; keep token first.
	u := fmt.Sprintf("wss://%s/ssh?token=%s&cols=%d&rows=%d",
		r.directHost(tok.Region), url.QueryEscape(tok.Token), cols, rows)
	return Target{Transport: TransportDirect, URL: u}
}

func (r *Resolver) issueToken(ctx context.Context, sessionID string) (tokenResponse, error) {
	var tok tokenResponse
	endpoint := fmt.Sprintf("%s/api/sessions/%s/terminal/token", r.BaseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return tok, err
	}
	resp, err := r.client().Do(req)
	if err != nil {
		return tok, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tok, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return tok, fmt.Errorf("decode token response: %w", err)
	}
	if tok.Token == "" {
		return tok, fmt.Errorf("token endpoint returned empty token")
	}
	return tok, nil
}

// directHost selects the terminal backend host. A loopback origin means a
// development stack, which has its own host. Empty and absent regions are
// treated identically and route to the default production host.
func (r *Resolver) directHost(region string) string {
	if isLoopback(r.BaseURL) {
		return devHost
	}
	if region = strings.TrimSpace(region); region != "" {
		return fmt.Sprintf(regionHostFmt, region)
	}
	return defaultProdHost
}

// proxyURL builds the same-origin WebSocket path scoped to the session.
func (r *Resolver) proxyURL(sessionID string) string {
	scheme := "wss"
	host := r.BaseURL
	if u, err := url.Parse(r.BaseURL); err == nil && u.Host != "" {
		if u.Scheme == "http" || u.Scheme == "ws" {
			scheme = "ws"
		}
		host = u.Host
	}
	return fmt.Sprintf("%s://%s/api/sessions/%s/terminal", scheme, host, sessionID)
}

func (r *Resolver) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

func isLoopback(baseURL string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
