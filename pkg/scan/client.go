package scan

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lockscan/pkg/buildinfo"
	"github.com/matzehuels/lockscan/pkg/cache"
	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/integrations"
)

// Defaults applied by [Config.WithDefaults].
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	DefaultCacheTTL   = time.Hour
)

// scanPath is appended to the base URL.
const scanPath = "/v1/scan"

// APIError describes a non-success response from the scan API.
type APIError = integrations.APIError

// Config configures a [Client].
type Config struct {
	BaseURL string
	APIKey  string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	RetryDelay time.Duration

	// Cache stores responses by dependency fingerprint. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration
	Keyer    cache.Keyer

	HTTPClient *http.Client
	Logger     *log.Logger
}

// WithDefaults returns a copy of c with zero fields filled in.
func (c Config) WithDefaults() Config {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.Cache == nil {
		c.Cache = cache.NewNullCache()
	}
	if c.Keyer == nil {
		c.Keyer = cache.NewDefaultKeyer()
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return c
}

// Validate checks that the endpoint and credentials are usable. The base
// URL must be https unless it points at the local machine.
func (c Config) Validate() error {
	if err := lserrors.ValidateAPIURL(c.BaseURL); err != nil {
		return err
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return lserrors.New(lserrors.ErrCodeInvalidConfig, "API key is required (set LOCKSCAN_API_KEY)")
	}
	return nil
}

// Client submits dependency sets to the scan API.
type Client struct {
	*integrations.Client
	endpoint string
	keyer    cache.Keyer
	logger   *log.Logger
}

// NewClient validates cfg and creates a client.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Authorization": "Bearer " + cfg.APIKey,
		"User-Agent":    buildinfo.UserAgent(),
	}
	return &Client{
		Client: integrations.NewClient(cfg.Cache, cfg.CacheTTL, headers,
			integrations.WithHTTPClient(cfg.HTTPClient),
			integrations.WithRetry(cfg.MaxRetries+1, cfg.RetryDelay),
		),
		endpoint: cfg.BaseURL + scanPath,
		keyer:    cfg.Keyer,
		logger:   cfg.Logger,
	}, nil
}

// Endpoint returns the URL scans are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Scan submits req and returns the analysis. Identical dependency sets are
// answered from the cache. An empty request is answered locally.
func (c *Client) Scan(ctx context.Context, req Request) (*Response, error) {
	return c.scan(ctx, req, false)
}

// Rescan is [Client.Scan] without the cache lookup; the fresh response
// still replaces any cached one.
func (c *Client) Rescan(ctx context.Context, req Request) (*Response, error) {
	return c.scan(ctx, req, true)
}

func (c *Client) scan(ctx context.Context, req Request, refresh bool) (*Response, error) {
	if len(req.Dependencies) == 0 {
		return normalize(&Response{CompositionalRisk: CompositionalRisk{RiskLevel: RiskNone}}), nil
	}

	key := c.keyer.ScanKey(CacheDigest(req), cache.ScanKeyOpts{Endpoint: c.endpoint})
	c.logger.Debug("submitting scan", "packages", len(req.Dependencies), "fingerprint", Fingerprint(req))

	start := time.Now()
	var resp Response
	err := c.Cached(ctx, key, "scan", refresh, &resp, func() error {
		resp = Response{}
		return c.PostJSON(ctx, c.endpoint, req, &resp)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("scan complete",
		"findings", len(resp.Findings),
		"scanned", resp.Meta.PackagesScanned,
		"duration", time.Since(start).Round(time.Millisecond))
	return normalize(&resp), nil
}

// normalize replaces nil slices so callers can range and encode without
// nil checks.
func normalize(r *Response) *Response {
	if r.Findings == nil {
		r.Findings = []Finding{}
	}
	if r.SkeletonKeyMatches == nil {
		r.SkeletonKeyMatches = []SkeletonKeyMatch{}
	}
	if r.ZombieWarnings == nil {
		r.ZombieWarnings = []ZombieWarning{}
	}
	if r.IntegrityAlerts == nil {
		r.IntegrityAlerts = []IntegrityAlert{}
	}
	cr := &r.CompositionalRisk
	for _, s := range []*[]string{&cr.SourcePackages, &cr.SinkPackages, &cr.SpawnPackages, &cr.EnabledAttacks} {
		if *s == nil {
			*s = []string{}
		}
	}
	if cr.RiskLevel == "" {
		cr.RiskLevel = RiskNone
	}
	return r
}
