package scan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/lockscan/pkg/cache"
	lserrors "github.com/matzehuels/lockscan/pkg/errors"
)

var sampleResponse = `{
  "findings": [{
    "id": "F-1",
    "type": "prototype-pollution",
    "severity": "CRITICAL",
    "cvss": 9.8,
    "sourcePackage": "merge-deep@1.0.0",
    "sinkPackage": "child_process-wrapper@2.0.0",
    "description": "Polluted options reach spawn",
    "shimUrl": "https://shims.example/F-1.js"
  }],
  "skeletonKeyMatches": [],
  "compositionalRisk": {
    "sourcePackages": ["merge-deep"],
    "sinkPackages": ["child_process-wrapper"],
    "spawnPackages": [],
    "riskLevel": "HIGH",
    "enabledAttacks": ["RCE"]
  },
  "zombieWarnings": [],
  "integrityAlerts": [],
  "meta": {"packagesScanned": 2, "durationMs": 120, "tier": "free"}
}`

func testConfig(url string) Config {
	return Config{
		BaseURL:    url,
		APIKey:     "secret-key",
		RetryDelay: time.Millisecond,
	}
}

func testRequest() Request {
	return Request{Dependencies: []RequestDependency{
		{Name: "child_process-wrapper", Version: "2.0.0"},
		{Name: "merge-deep", Version: "1.0.0", Hash: "sha512-M"},
	}}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"https", Config{BaseURL: "https://api.example.com", APIKey: "k"}, false},
		{"loopback http", Config{BaseURL: "http://127.0.0.1:8080", APIKey: "k"}, false},
		{"remote http", Config{BaseURL: "http://api.example.com", APIKey: "k"}, true},
		{"missing url", Config{APIKey: "k"}, true},
		{"missing key", Config{BaseURL: "https://api.example.com"}, true},
		{"blank key", Config{BaseURL: "https://api.example.com", APIKey: "  "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.WithDefaults().Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !lserrors.Is(err, lserrors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() code = %q, want %q", lserrors.GetCode(err), lserrors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{BaseURL: "https://api.example.com/"}.WithDefaults()
	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q, trailing slash not trimmed", cfg.BaseURL)
	}
	if cfg.Timeout != DefaultTimeout || cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Cache == nil || cfg.Keyer == nil || cfg.Logger == nil || cfg.HTTPClient == nil {
		t.Error("WithDefaults should fill every dependency")
	}
	if neg := (Config{MaxRetries: -1}).WithDefaults(); neg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0 for negative input", neg.MaxRetries)
	}
}

func TestClientScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/scan" {
			t.Errorf("request = %s %s, want POST /v1/scan", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("Authorization = %q", got)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "lockscan/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if len(req.Dependencies) != 2 || req.Dependencies[1].Hash != "sha512-M" {
			t.Errorf("request body = %+v", req)
		}
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	resp, err := client.Scan(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(resp.Findings) != 1 || resp.Findings[0].Severity != SeverityCritical || resp.Findings[0].CVSS != 9.8 {
		t.Errorf("findings = %+v", resp.Findings)
	}
	if resp.CompositionalRisk.RiskLevel != RiskHigh {
		t.Errorf("risk level = %q", resp.CompositionalRisk.RiskLevel)
	}
	if resp.Meta.PackagesScanned != 2 || resp.Meta.Tier != "free" {
		t.Errorf("meta = %+v", resp.Meta)
	}
}

func TestClientScanNormalizesNulls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"packagesScanned":1}}`))
	}))
	defer srv.Close()

	client, _ := NewClient(testConfig(srv.URL))
	resp, err := client.Scan(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if resp.Findings == nil || resp.IntegrityAlerts == nil || resp.CompositionalRisk.EnabledAttacks == nil {
		t.Error("nil slices should be normalized to empty")
	}
	if resp.CompositionalRisk.RiskLevel != RiskNone {
		t.Errorf("risk level = %q, want NONE", resp.CompositionalRisk.RiskLevel)
	}
}

func TestClientScanEmptyRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client, _ := NewClient(testConfig(srv.URL))
	resp, err := client.Scan(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if calls.Load() != 0 {
		t.Error("empty request should not contact the API")
	}
	if len(resp.Findings) != 0 {
		t.Errorf("findings = %v, want none", resp.Findings)
	}
}

func TestClientScanCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(srv.URL)
	cfg.Cache = fc
	client, _ := NewClient(cfg)
	ctx := context.Background()

	for range 2 {
		if _, err := client.Scan(ctx, testRequest()); err != nil {
			t.Fatalf("Scan: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("API called %d times, want 1", n)
	}

	key := cache.NewDefaultKeyer().ScanKey(CacheDigest(testRequest()), cache.ScanKeyOpts{Endpoint: client.Endpoint()})
	if _, hit, err := fc.Get(ctx, key); err != nil || !hit {
		t.Errorf("cache entry under %q: hit = %v, err = %v", key, hit, err)
	}
	fpKey := cache.NewDefaultKeyer().ScanKey(Fingerprint(testRequest()), cache.ScanKeyOpts{Endpoint: client.Endpoint()})
	if _, hit, _ := fc.Get(ctx, fpKey); hit {
		t.Error("response cached under the short log fingerprint")
	}

	resp, err := client.Rescan(ctx, testRequest())
	if err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("API called %d times after Rescan, want 2", n)
	}
	if len(resp.Findings) != 1 {
		t.Errorf("Rescan findings = %d, want 1", len(resp.Findings))
	}
}

func TestClientScanRetries(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		maxRetries int
		wantCalls  int32
		wantCode   lserrors.Code
	}{
		{"server error exhausts retries", http.StatusInternalServerError, 2, 3, lserrors.ErrCodeNetwork},
		{"rate limit exhausts retries", http.StatusTooManyRequests, 1, 2, lserrors.ErrCodeRateLimited},
		{"unauthorized is not retried", http.StatusUnauthorized, 3, 1, lserrors.ErrCodeUnauthorized},
		{"forbidden is not retried", http.StatusForbidden, 3, 1, lserrors.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			cfg := testConfig(srv.URL)
			cfg.MaxRetries = tt.maxRetries
			client, _ := NewClient(cfg)

			_, err := client.Scan(context.Background(), testRequest())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
			if got := lserrors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
			if strings.Contains(err.Error(), "secret-key") {
				t.Error("error leaks the API key")
			}
		})
	}
}

func TestClientScanRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client, _ := NewClient(testConfig(srv.URL))
	resp, err := client.Scan(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(resp.Findings) != 1 {
		t.Errorf("findings = %d, want 1", len(resp.Findings))
	}
}

func TestClientScanAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"too many dependencies"}`))
	}))
	defer srv.Close()

	client, _ := NewClient(testConfig(srv.URL))
	_, err := client.Scan(context.Background(), testRequest())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Retryable {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestNewClientRejectsPlainHTTP(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://scanner.example.com", APIKey: "k"})
	if !lserrors.Is(err, lserrors.ErrCodeInvalidConfig) {
		t.Errorf("NewClient() error = %v, want INVALID_CONFIG", err)
	}
}
