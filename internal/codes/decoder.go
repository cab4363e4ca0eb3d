package codes

import (
	"fmt"
	"io"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/cgps-group/AMRIE/internal/domain"
)

// DefaultCacheSize is used when a non-positive cache size is configured.
const DefaultCacheSize = 4096

type decoded struct {
	id  domain.AntibioticIdentifier
	err error
}

// Decoder memoizes Decompose. Batches repeat the same handful of codes, so
// each distinct code is only parsed once while it stays in the cache.
type Decoder struct {
	cache  *lru.Cache[string, decoded]
	logger *logrus.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// DecoderStats reports cache effectiveness.
type DecoderStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// NewDecoder creates a decoder holding up to size decoded codes.
func NewDecoder(size int, logger *logrus.Logger) (*Decoder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, decoded](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create decode cache: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Decoder{cache: cache, logger: logger}, nil
}

// Decode returns the identifier for a compound code, consulting the cache
// first. Failures are cached as well since decoding is deterministic.
func (d *Decoder) Decode(full string) (domain.AntibioticIdentifier, error) {
	if v, ok := d.cache.Get(full); ok {
		d.hits.Add(1)
		return v.id, v.err
	}
	d.misses.Add(1)

	id, err := Decompose(full)
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"antibiotic_code": full,
			"error":           err.Error(),
		}).Debug("Antibiotic code did not decode")
	}
	d.cache.Add(full, decoded{id: id, err: err})
	return id, err
}

// Stats returns a snapshot of cache counters.
func (d *Decoder) Stats() DecoderStats {
	return DecoderStats{
		Hits:   d.hits.Load(),
		Misses: d.misses.Load(),
		Size:   d.cache.Len(),
	}
}

// Purge empties the cache and resets its counters.
func (d *Decoder) Purge() {
	d.cache.Purge()
	d.hits.Store(0)
	d.misses.Store(0)
}
