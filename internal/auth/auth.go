// Package auth authenticates callers of the inventory API. Reads may be
// opened to anonymous callers by the middleware; changing stock and
// advancing days always go through an Authenticator.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AuthMethod names how a caller proved its identity.
type AuthMethod string

const (
	AuthMethodNone   AuthMethod = "none"
	AuthMethodMTLS   AuthMethod = "mtls"
	AuthMethodBasic  AuthMethod = "basic"
	AuthMethodAPIKey AuthMethod = "apikey"
	AuthMethodMulti  AuthMethod = "multi"
)

// ParseMethod maps a configured mode onto an AuthMethod.
func ParseMethod(mode string) (AuthMethod, error) {
	m := AuthMethod(strings.ToLower(strings.TrimSpace(mode)))
	switch m {
	case AuthMethodNone, AuthMethodMTLS, AuthMethodBasic, AuthMethodAPIKey, AuthMethodMulti:
		return m, nil
	case "":
		return AuthMethodNone, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, mode)
	}
}

// AuthInfo is the identity attached to an authenticated request.
type AuthInfo struct {
	Method  AuthMethod
	Subject string
	// Organizations is only filled for client certificates.
	Organizations []string
}

// Authenticator validates a request and returns auth info.
type Authenticator interface {
	Authenticate(r *http.Request) (*AuthInfo, error)
	Method() AuthMethod
}

// Sentinel errors for authentication failures.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidCert        = errors.New("invalid client certificate")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownMethod      = errors.New("unknown auth method")
)

type contextKey string

const authInfoKey contextKey = "auth_info"

// FromContext retrieves AuthInfo from the context.
func FromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey).(*AuthInfo)
	return info, ok
}

// WithAuthInfo stores AuthInfo in the context.
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}

// parsePairs splits "left:right,left2:right2" on the first colon of each
// entry. Blank entries are skipped; blank halves are rejected.
func parsePairs(kind, config string) (map[string]string, error) {
	trimmed := strings.TrimSpace(config)
	if trimmed == "" {
		return nil, fmt.Errorf("%s auth: config must not be empty", kind)
	}

	pairs := make(map[string]string)
	for entry := range strings.SplitSeq(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		left, right, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("%s auth: entry %q has no colon", kind, entry)
		}

		left, right = strings.TrimSpace(left), strings.TrimSpace(right)
		if left == "" || right == "" {
			return nil, fmt.Errorf("%s auth: entry %q has an empty half", kind, entry)
		}

		pairs[left] = right
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%s auth: no entries found", kind)
	}

	return pairs, nil
}
