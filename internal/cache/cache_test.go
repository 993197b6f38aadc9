package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trading-dataflows/internal/model"
)

func day(s string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02", s, time.UTC)
	return t
}

func sampleBars() []model.Bar {
	return []model.Bar{
		{Date: day("2025-01-02"), Open: 100.5, High: 103.25, Low: 99.75, Close: 102.0, Volume: 1500},
		{Date: day("2025-01-03"), Open: 102.0, High: 104.0, Low: 101.5, Close: 103.5, Volume: 900},
	}
}

func TestPathNaming(t *testing.T) {
	store := New("/tmp/dataflows", zap.NewNop())
	path := store.Path("BTCUSDT", "Binance", day("2025-01-02"), day("2025-01-31"))
	assert.Equal(t, "/tmp/dataflows/BTCUSDT-Binance-data-2025-01-02-2025-01-31.csv", path)
}

func TestGetOrFetchCachesFirstResult(t *testing.T) {
	store := New(t.TempDir(), zap.NewNop())
	start, end := day("2025-01-02"), day("2025-01-03")

	calls := 0
	fetch := func() ([]model.Bar, error) {
		calls++
		return sampleBars(), nil
	}

	first, err := store.GetOrFetch("BTCUSDT", "Binance", start, end, fetch)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	assert.Equal(t, sampleBars(), first)

	second, err := store.GetOrFetch("BTCUSDT", "Binance", start, end, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second lookup must be served from disk")
	assert.Equal(t, first, second)
}

func TestGetOrFetchDifferentWindowIsMiss(t *testing.T) {
	store := New(t.TempDir(), zap.NewNop())

	calls := 0
	fetch := func() ([]model.Bar, error) {
		calls++
		return sampleBars(), nil
	}

	_, err := store.GetOrFetch("BTCUSDT", "Binance", day("2025-01-02"), day("2025-01-03"), fetch)
	require.NoError(t, err)
	// A sub-range of a cached window is a distinct key.
	_, err = store.GetOrFetch("BTCUSDT", "Binance", day("2025-01-02"), day("2025-01-02"), fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetOrFetchErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zap.NewNop())
	start, end := day("2025-01-02"), day("2025-01-03")

	want := errors.New("vendor down")
	_, err := store.GetOrFetch("BTCUSDT", "Binance", start, end, func() ([]model.Bar, error) {
		return nil, want
	})
	require.ErrorIs(t, err, want)

	_, statErr := os.Stat(store.Path("BTCUSDT", "Binance", start, end))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGetOrFetchCorruptFileRefetches(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zap.NewNop())
	start, end := day("2025-01-02"), day("2025-01-03")

	path := store.Path("BTCUSDT", "Binance", start, end)
	require.NoError(t, os.WriteFile(path, []byte("# schema: something-else\nDate,Open\n"), 0o644))

	calls := 0
	bars, err := store.GetOrFetch("BTCUSDT", "Binance", start, end, func() ([]model.Bar, error) {
		calls++
		return sampleBars(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, sampleBars(), bars)

	// The refetch must have replaced the corrupt file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# schema: "+model.SchemaOHLCV)
}

func TestWrittenFileCarriesHeader(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zap.NewNop())
	start, end := day("2025-01-02"), day("2025-01-03")

	_, err := store.GetOrFetch("AAPL", "YFin", start, end, func() ([]model.Bar, error) {
		return sampleBars(), nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "AAPL-YFin-data-2025-01-02-2025-01-03.csv"))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# symbol: AAPL\n")
	assert.Contains(t, text, "# vendor: YFin\n")
	assert.Contains(t, text, "# range: 2025-01-02..2025-01-03\n")
	assert.Contains(t, text, "Date,Open,High,Low,Close,Volume\n")
}
