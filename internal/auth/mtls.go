package auth

import "net/http"

// MTLSAuthenticator identifies callers by the client certificate the TLS
// listener already verified against the configured CA.
type MTLSAuthenticator struct{}

// NewMTLSAuthenticator creates a new mTLS authenticator.
func NewMTLSAuthenticator() *MTLSAuthenticator {
	return &MTLSAuthenticator{}
}

// Authenticate uses the leaf certificate's common name as the subject,
// falling back to its first DNS name.
func (a *MTLSAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	if r.TLS == nil {
		return nil, ErrUnauthenticated
	}

	if len(r.TLS.PeerCertificates) == 0 {
		return nil, ErrInvalidCert
	}

	cert := r.TLS.PeerCertificates[0]
	subject := cert.Subject.CommonName
	if subject == "" && len(cert.DNSNames) > 0 {
		subject = cert.DNSNames[0]
	}
	if subject == "" {
		return nil, ErrInvalidCert
	}

	return &AuthInfo{
		Method:        AuthMethodMTLS,
		Subject:       subject,
		Organizations: cert.Subject.Organization,
	}, nil
}

// Method returns AuthMethodMTLS.
func (a *MTLSAuthenticator) Method() AuthMethod {
	return AuthMethodMTLS
}
