// Package cache persists fetched OHLCV series on disk, keyed by symbol,
// vendor and date window. Exact-key semantics only: a sub-range of a
// cached window is still a miss. Entries are immutable once written and
// never evicted; concurrent first-fetches for one key may both write,
// last write wins, which is wasted work but not a correctness hazard.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"trading-dataflows/internal/model"
	"trading-dataflows/internal/service"
)

// Store is a directory of cached series files.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates a store rooted at dir. The directory is created lazily on
// first write.
func New(dir string, logger *zap.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Path returns the cache file for one (symbol, vendor, window) key:
// {symbol}-{vendor}-data-{start}-{end}.csv
func (s *Store) Path(symbol, vendor string, start, end time.Time) string {
	name := fmt.Sprintf("%s-%s-data-%s-%s.csv",
		symbol, vendor, start.Format(service.DateLayout), end.Format(service.DateLayout))
	return filepath.Join(s.dir, name)
}

// GetOrFetch returns the cached series for the key when present, otherwise
// runs fetch, persists its result and returns it. A fetch error is
// returned unchanged and nothing is written. A corrupt cache file is
// treated as a miss.
func (s *Store) GetOrFetch(symbol, vendor string, start, end time.Time, fetch func() ([]model.Bar, error)) ([]model.Bar, error) {
	path := s.Path(symbol, vendor, start, end)

	if data, err := os.ReadFile(path); err == nil {
		bars, perr := model.UnmarshalSeries(string(data))
		if perr == nil {
			s.logger.Debug("cache hit", zap.String("file", path), zap.Int("bars", len(bars)))
			return bars, nil
		}
		s.logger.Warn("cache file unreadable, refetching", zap.String("file", path), zap.Error(perr))
	}

	bars, err := fetch()
	if err != nil {
		return nil, err
	}

	if werr := s.write(path, symbol, vendor, start, end, bars); werr != nil {
		// A failed write only costs the next request a refetch.
		s.logger.Warn("cache write failed", zap.String("file", path), zap.Error(werr))
	} else {
		s.logger.Info("cached series", zap.String("file", path), zap.Int("bars", len(bars)))
	}
	return bars, nil
}

func (s *Store) write(path, symbol, vendor string, start, end time.Time, bars []model.Bar) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	header := fmt.Sprintf("# schema: %s\n# symbol: %s\n# vendor: %s\n# range: %s..%s\n",
		model.SchemaOHLCV, symbol, vendor,
		start.Format(service.DateLayout), end.Format(service.DateLayout))
	return os.WriteFile(path, []byte(header+model.MarshalSeries(bars)), 0o644)
}
