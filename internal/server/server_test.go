package server

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
	"github.com/vyrodovalexey/gildedrose/internal/config"
	"github.com/vyrodovalexey/gildedrose/internal/model"
	"github.com/vyrodovalexey/gildedrose/internal/seed"
	"github.com/vyrodovalexey/gildedrose/internal/store"
)

// testAuthenticator accepts requests carrying the "let-me-in" API key.
type testAuthenticator struct{}

func (testAuthenticator) Authenticate(r *http.Request) (*auth.AuthInfo, error) {
	switch r.Header.Get(auth.APIKeyHeader) {
	case "":
		return nil, auth.ErrUnauthenticated
	case "let-me-in":
		return &auth.AuthInfo{Method: auth.AuthMethodAPIKey, Subject: "innkeeper"}, nil
	default:
		return nil, auth.ErrInvalidAPIKey
	}
}

func (testAuthenticator) Method() auth.AuthMethod {
	return auth.AuthMethodAPIKey
}

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:      8080,
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		MetricsEnabled:  true,
		CORSOrigins:     []string{"*"},
		AuthMode:        "none",
		MaxAdvanceDays:  config.DefaultMaxAdvanceDays,
	}
}

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()

	s := store.NewMemoryStore()
	if err := seed.Populate(context.Background(), s, seed.Default()); err != nil {
		t.Fatalf("Populate() error = %v", err)
	}
	return s
}

func serve(t *testing.T, s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

// writeSelfSigned writes a self-signed certificate and its key into dir.
func writeSelfSigned(t *testing.T, dir, name string) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: name},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	certPath = filepath.Join(dir, name+".pem")
	keyPath = filepath.Join(dir, name+"-key.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		t.Fatalf("failed to write cert: %v", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}

	return certPath, keyPath
}

func TestNew(t *testing.T) {
	// Arrange
	cfg := testConfig()

	// Act
	s := New(cfg, zap.NewNop(), store.NewMemoryStore(), nil)

	// Assert
	if s.Router() == nil || s.Updater() == nil {
		t.Fatal("router and updater must be set")
	}
	if s.httpServer.Addr != ":8080" {
		t.Errorf("Addr = %s, want :8080", s.httpServer.Addr)
	}
	if s.httpServer.ReadHeaderTimeout != 5*time.Second {
		t.Errorf("ReadHeaderTimeout = %v, want 5s", s.httpServer.ReadHeaderTimeout)
	}
	if s.httpServer.TLSConfig != nil {
		t.Error("TLSConfig should be nil without TLS")
	}
	if s.initErr != nil {
		t.Errorf("initErr = %v", s.initErr)
	}
}

func TestServer_Routes(t *testing.T) {
	s := New(testConfig(), zap.NewNop(), seededStore(t), nil)

	tests := []struct {
		method     string
		target     string
		wantStatus int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/api/v1/items", http.StatusOK},
		{http.MethodGet, "/api/v1/items/missing", http.StatusNotFound},
		{http.MethodGet, "/api/v1/inventory/day", http.StatusOK},
		{http.MethodGet, "/api/v1/categories/Aged%20Brie", http.StatusOK},
		{http.MethodPost, "/api/v1/inventory/advance?days=0", http.StatusBadRequest},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := serve(t, s, tt.method, tt.target, nil)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	s := New(cfg, zap.NewNop(), store.NewMemoryStore(), nil)

	rr := serve(t, s, http.MethodGet, "/metrics", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("/metrics status = %d, want 404 when disabled", rr.Code)
	}
}

func TestServer_AdvanceAppliesRules(t *testing.T) {
	// Arrange
	s := New(testConfig(), zap.NewNop(), seededStore(t), nil)

	// Act
	rr := serve(t, s, http.MethodPost, "/api/v1/inventory/advance?days=2", nil)

	// Assert
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp model.APIResponse[model.AdvanceResult]
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Data.Day != 2 || resp.Data.Days != 2 {
		t.Errorf("day/days = %d/%d, want 2/2", resp.Data.Day, resp.Data.Days)
	}

	byName := make(map[string]model.StockItem)
	for _, item := range resp.Data.Items {
		if _, seen := byName[item.Name]; !seen {
			byName[item.Name] = item
		}
	}
	want := map[string][2]int{
		"+5 Dexterity Vest":  {8, 18},
		"Aged Brie":          {0, 2},
		"Conjured Mana Cake": {1, 2},
	}
	for name, sq := range want {
		got := byName[name]
		if got.SellIn != sq[0] || got.Quality != sq[1] {
			t.Errorf("%s = %d/%d, want %d/%d", name, got.SellIn, got.Quality, sq[0], sq[1])
		}
	}
	if got := byName["Sulfuras, Hand of Ragnaros"]; got.Quality != 80 || got.SellIn != 0 {
		t.Errorf("Sulfuras = %d/%d, want 0/80", got.SellIn, got.Quality)
	}

	day := serve(t, s, http.MethodGet, "/api/v1/inventory/day", nil)
	if !strings.Contains(day.Body.String(), `"day":2`) {
		t.Errorf("day body = %s, want day 2", day.Body.String())
	}
}

func TestServer_AdvanceBroadcastsToWebSocket(t *testing.T) {
	// Arrange
	s := New(testConfig(), zap.NewNop(), seededStore(t), nil)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// Dialing returns before the server registers the client.
	deadline := time.Now().Add(2 * time.Second)
	for s.wsHandler.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// Act
	resp, err := http.Post(ts.URL+"/api/v1/inventory/advance", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	_ = resp.Body.Close()

	// Assert
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg model.WebSocketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != model.WSMessageTypeDayAdvanced || msg.Day != 1 || len(msg.Items) != len(seed.Default()) {
		t.Errorf("message = %s day %d with %d items", msg.Type, msg.Day, len(msg.Items))
	}
}

func TestServer_Auth(t *testing.T) {
	tests := []struct {
		name           string
		anonymousReads bool
		method         string
		target         string
		key            string
		wantStatus     int
	}{
		{name: "health is public", method: http.MethodGet, target: "/health", wantStatus: http.StatusOK},
		{name: "list needs key", method: http.MethodGet, target: "/api/v1/items", wantStatus: http.StatusUnauthorized},
		{name: "list with key", method: http.MethodGet, target: "/api/v1/items", key: "let-me-in", wantStatus: http.StatusOK},
		{name: "wrong key", method: http.MethodGet, target: "/api/v1/items", key: "nope", wantStatus: http.StatusUnauthorized},
		{name: "anonymous list", anonymousReads: true, method: http.MethodGet, target: "/api/v1/items", wantStatus: http.StatusOK},
		{name: "anonymous advance refused", anonymousReads: true, method: http.MethodPost, target: "/api/v1/inventory/advance", wantStatus: http.StatusUnauthorized},
		{name: "advance with key", anonymousReads: true, method: http.MethodPost, target: "/api/v1/inventory/advance", key: "let-me-in", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := testConfig()
			cfg.AuthMode = "apikey"
			cfg.AuthAnonymousReads = tt.anonymousReads
			s := New(cfg, zap.NewNop(), seededStore(t), testAuthenticator{})
			header := http.Header{}
			if tt.key != "" {
				header.Set(auth.APIKeyHeader, tt.key)
			}

			// Act
			rr := serve(t, s, tt.method, tt.target, header)

			// Assert
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	s := New(testConfig(), zap.NewNop(), store.NewMemoryStore(), testAuthenticator{})

	rr := serve(t, s, http.MethodOptions, "/api/v1/inventory/advance", http.Header{
		"Origin":                        {"https://shop.example"},
		"Access-Control-Request-Method": {"POST"},
	})

	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), auth.APIKeyHeader) {
		t.Errorf("Allow-Headers = %q, want %s listed", rr.Header().Get("Access-Control-Allow-Headers"), auth.APIKeyHeader)
	}
}

func TestBuildTLSConfig(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeSelfSigned(t, dir, "server")
	caPath, _ := writeSelfSigned(t, dir, "ca")
	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name           string
		certPath       string
		clientAuth     string
		caPath         string
		wantClientAuth tls.ClientAuthType
		wantCAs        bool
		wantErr        string
	}{
		{name: "no client auth", certPath: certPath, clientAuth: "none", wantClientAuth: tls.NoClientCert},
		{name: "default client auth", certPath: certPath, wantClientAuth: tls.NoClientCert},
		{name: "request verifies given certs", certPath: certPath, clientAuth: "request", caPath: caPath, wantClientAuth: tls.VerifyClientCertIfGiven, wantCAs: true},
		{name: "require", certPath: certPath, clientAuth: "require", caPath: caPath, wantClientAuth: tls.RequireAndVerifyClientCert, wantCAs: true},
		{name: "missing key pair", certPath: filepath.Join(dir, "absent.pem"), wantErr: "loading TLS key pair"},
		{name: "missing CA", certPath: certPath, clientAuth: "require", caPath: filepath.Join(dir, "absent-ca.pem"), wantErr: "reading TLS CA cert"},
		{name: "garbage CA", certPath: certPath, clientAuth: "require", caPath: garbage, wantErr: "parsing TLS CA cert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := testConfig()
			cfg.TLSEnabled = true
			cfg.TLSCertPath = tt.certPath
			cfg.TLSKeyPath = keyPath
			cfg.TLSClientAuth = tt.clientAuth
			cfg.TLSCAPath = tt.caPath
			s := &Server{config: cfg, logger: zap.NewNop()}

			// Act
			tlsConfig, err := s.buildTLSConfig()

			// Assert
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("buildTLSConfig() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildTLSConfig() error = %v", err)
			}
			if len(tlsConfig.Certificates) != 1 || tlsConfig.MinVersion != tls.VersionTLS12 {
				t.Errorf("certificates = %d, min version = %d", len(tlsConfig.Certificates), tlsConfig.MinVersion)
			}
			if tlsConfig.ClientAuth != tt.wantClientAuth {
				t.Errorf("ClientAuth = %v, want %v", tlsConfig.ClientAuth, tt.wantClientAuth)
			}
			if (tlsConfig.ClientCAs != nil) != tt.wantCAs {
				t.Errorf("ClientCAs set = %v, want %v", tlsConfig.ClientCAs != nil, tt.wantCAs)
			}
		})
	}
}

func TestServer_Start_WithInitErr(t *testing.T) {
	// Arrange
	cfg := testConfig()
	cfg.TLSEnabled = true
	cfg.TLSCertPath = "/nonexistent/cert.pem"
	cfg.TLSKeyPath = "/nonexistent/key.pem"
	s := New(cfg, zap.NewNop(), store.NewMemoryStore(), nil)

	// Act
	err := s.Start()

	// Assert
	if err == nil || !strings.Contains(err.Error(), "server initialization") {
		t.Fatalf("Start() error = %v, want server initialization failure", err)
	}
	if s.Updater().Running() {
		t.Error("updater must not run when the server cannot start")
	}
}

func TestServer_StartShutdown(t *testing.T) {
	tests := []struct {
		name string
		tls  bool
	}{
		{name: "plain"},
		{name: "tls", tls: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := testConfig()
			cfg.ServerPort = 0
			cfg.MetricsEnabled = false
			cfg.DayInterval = time.Hour
			if tt.tls {
				cfg.TLSEnabled = true
				cfg.TLSCertPath, cfg.TLSKeyPath = writeSelfSigned(t, t.TempDir(), "server")
			}
			s := New(cfg, zap.NewNop(), store.NewMemoryStore(), nil)

			errCh := make(chan error, 1)
			go func() {
				errCh <- s.Start()
			}()

			deadline := time.Now().Add(2 * time.Second)
			for !s.Updater().Running() && time.Now().Before(deadline) {
				time.Sleep(10 * time.Millisecond)
			}
			if !s.Updater().Running() {
				t.Fatal("updater should run when a day interval is set")
			}

			// Act
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownErr := s.Shutdown(ctx)

			// Assert
			if shutdownErr != nil {
				t.Errorf("Shutdown() error = %v", shutdownErr)
			}
			if err := <-errCh; err != nil {
				t.Errorf("Start() error = %v, want nil", err)
			}
			if s.Updater().Running() {
				t.Error("updater should stop on shutdown")
			}
		})
	}
}
