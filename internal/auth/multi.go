package auth

import (
	"errors"
	"net/http"
)

// MultiAuthenticator tries authenticators in order. A caller that sent no
// credentials for one method moves on to the next; a caller whose
// credentials were rejected stops there.
type MultiAuthenticator struct {
	authenticators []Authenticator
}

// NewMultiAuthenticator creates a MultiAuthenticator over authenticators.
func NewMultiAuthenticator(authenticators ...Authenticator) *MultiAuthenticator {
	return &MultiAuthenticator{authenticators: authenticators}
}

// Authenticate returns the first success, the first rejection, or
// ErrUnauthenticated when no method found credentials.
func (a *MultiAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	for _, authenticator := range a.authenticators {
		info, err := authenticator.Authenticate(r)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
	}
	return nil, ErrUnauthenticated
}

// Method returns AuthMethodMulti.
func (a *MultiAuthenticator) Method() AuthMethod {
	return AuthMethodMulti
}
