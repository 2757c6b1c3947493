package cache

import "github.com/matzehuels/lockscan/pkg/buildinfo"

// Keyer derives cache keys for each kind of cached value.
type Keyer interface {
	// ScanKey keys a vulnerability scan response by the SHA-256 digest of
	// the submitted dependency list.
	ScanKey(digest string, opts ScanKeyOpts) string

	// ParseKey keys a parse result by the hash of the lockfile content and
	// the build that produced it.
	ParseKey(contentHash, filename string) string
}

// ScanKeyOpts holds the request settings that change a scan response.
type ScanKeyOpts struct {
	Endpoint string `json:"endpoint"`
	Tier     string `json:"tier,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct {
	// Build identifies the parser build in parse keys, so a persistent
	// cache never serves results from an older engine.
	Build string
}

// NewDefaultKeyer returns the standard keyer for the running binary.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{Build: buildinfo.Version + "+" + buildinfo.Commit}
}

// ScanKey returns "scan:<hash>".
func (DefaultKeyer) ScanKey(digest string, opts ScanKeyOpts) string {
	return hashKey("scan", digest, opts)
}

// ParseKey returns "parse:<hash>". The filename takes part because it
// biases format detection.
func (k DefaultKeyer) ParseKey(contentHash, filename string) string {
	return hashKey("parse", k.Build, contentHash, filename)
}

// ScopedKeyer prefixes every key, isolating tenants or environments that
// share one backend:
//
//	keyer := cache.NewScopedKeyer(nil, "ci:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ScanKey(digest string, opts ScanKeyOpts) string {
	return k.prefix + k.inner.ScanKey(digest, opts)
}

func (k *ScopedKeyer) ParseKey(contentHash, filename string) string {
	return k.prefix + k.inner.ParseKey(contentHash, filename)
}
