package scan

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/matzehuels/lockscan/pkg/cache"
	"github.com/matzehuels/lockscan/pkg/lockfile"
)

// NewRequest builds a scan request from parsed dependencies. Integrity
// values become hashes. The list is sorted by name then version so equal
// dependency sets always produce byte-identical requests.
func NewRequest(deps []lockfile.Dependency) Request {
	out := make([]RequestDependency, 0, len(deps))
	for _, d := range deps {
		out = append(out, RequestDependency{Name: d.Name, Version: d.Version, Hash: d.Integrity})
	}
	slices.SortFunc(out, func(a, b RequestDependency) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Version, b.Version), cmp.Compare(a.Hash, b.Hash))
	})
	return Request{Dependencies: out}
}

// Fingerprint returns a short, stable digest of the request's dependency
// set, independent of input order. It is for log lines only; 64 bits are
// too few to key a shared cache.
func Fingerprint(r Request) string {
	h := xxhash.New()
	for _, d := range sorted(r) {
		// Length prefixes keep ("ab","c") distinct from ("a","bc").
		for _, field := range [...]string{d.Name, d.Version, d.Hash} {
			h.WriteString(strconv.Itoa(len(field)))
			h.WriteString(":")
			h.WriteString(field)
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// CacheDigest returns the SHA-256 of the request's canonical JSON encoding
// (dependencies sorted). It keys the response cache.
func CacheDigest(r Request) string {
	data, _ := json.Marshal(Request{Dependencies: sorted(r)})
	return cache.Hash(data)
}

func sorted(r Request) []RequestDependency {
	deps := slices.Clone(r.Dependencies)
	slices.SortFunc(deps, func(a, b RequestDependency) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Version, b.Version), cmp.Compare(a.Hash, b.Hash))
	})
	if deps == nil {
		deps = []RequestDependency{}
	}
	return deps
}
