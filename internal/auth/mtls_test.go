package auth_test

import (
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
)

func requestWithCerts(certs ...*x509.Certificate) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.TLS = &tls.ConnectionState{PeerCertificates: certs}
	return req
}

func TestMTLSAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	plain := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	plain.TLS = nil

	tests := []struct {
		name        string
		req         *http.Request
		wantSubject string
		wantOrgs    []string
		wantErr     error
	}{
		{
			name:    "plain HTTP",
			req:     plain,
			wantErr: auth.ErrUnauthenticated,
		},
		{
			name:    "TLS without client cert",
			req:     requestWithCerts(),
			wantErr: auth.ErrInvalidCert,
		},
		{
			name: "common name",
			req: requestWithCerts(&x509.Certificate{
				Subject: pkix.Name{CommonName: "till-1", Organization: []string{"Gilded Rose"}},
			}),
			wantSubject: "till-1",
			wantOrgs:    []string{"Gilded Rose"},
		},
		{
			name:        "DNS name fallback",
			req:         requestWithCerts(&x509.Certificate{DNSNames: []string{"till-2.inn.local"}}),
			wantSubject: "till-2.inn.local",
		},
		{
			name:    "no usable identity",
			req:     requestWithCerts(&x509.Certificate{}),
			wantErr: auth.ErrInvalidCert,
		},
	}

	a := auth.NewMTLSAuthenticator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Act
			info, err := a.Authenticate(tt.req)

			// Assert
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() unexpected error: %v", err)
			}
			if info.Subject != tt.wantSubject {
				t.Errorf("Subject = %s, want %s", info.Subject, tt.wantSubject)
			}
			if !slices.Equal(info.Organizations, tt.wantOrgs) {
				t.Errorf("Organizations = %v, want %v", info.Organizations, tt.wantOrgs)
			}
		})
	}

	if a.Method() != auth.AuthMethodMTLS {
		t.Errorf("Method() = %s", a.Method())
	}
}
