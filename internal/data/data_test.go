package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etf-grid-backtest/internal/model"
)

func sampleSeries(t *testing.T) model.Series {
	t.Helper()
	dates := []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	}
	bars, err := model.SeriesFromColumns(dates,
		[]float64{10, 10.1, 9.9},
		[]float64{10.2, 10.3, 10.0},
		[]float64{9.9, 10.0, 9.7},
		[]float64{10.1, 10.0, 9.8},
	)
	require.NoError(t, err)
	return bars
}

func TestHistoryRoundTrip(t *testing.T) {
	bars := sampleSeries(t)
	h := HistoryFromSeries("510300", bars)
	got, err := h.Series()
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}

func TestHistoryRaggedColumns(t *testing.T) {
	h := &History{
		Dates: []string{"2024-01-02", "2024-01-03"},
		Open:  []float64{10},
		High:  []float64{10, 10},
		Low:   []float64{10, 10},
		Close: []float64{10, 10},
	}
	_, err := h.Series()
	assert.ErrorIs(t, err, model.ErrBadData)
}

func TestHistoryBadDate(t *testing.T) {
	h := &History{
		Dates: []string{"01/02/2024"},
		Open:  []float64{10},
		High:  []float64{10},
		Low:   []float64{10},
		Close: []float64{10},
	}
	_, err := h.Series()
	assert.ErrorIs(t, err, model.ErrBadData)
}

func TestReadCSV(t *testing.T) {
	in := strings.NewReader(
		"date,open,high,low,close\n" +
			"2024-01-02,10,10.2,9.9,10.1\n" +
			"2024-01-03,10.1,10.3,10.0,10.0\n")
	bars, err := ReadCSV(in)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.1, bars[0].Close)
	assert.Equal(t, "2024-01-03", bars[1].Date.Format("2006-01-02"))
}

func TestReadCSVShuffledHeader(t *testing.T) {
	in := strings.NewReader(
		"close,low,high,open,date\n" +
			"10.1,9.9,10.2,10,2024-01-02\n")
	bars, err := ReadCSV(in)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 10.0, bars[0].Open)
	assert.Equal(t, 10.1, bars[0].Close)
}

func TestReadCSVRejectsMissingColumn(t *testing.T) {
	in := strings.NewReader("date,open,high,low\n2024-01-02,10,10.2,9.9\n")
	_, err := ReadCSV(in)
	assert.ErrorIs(t, err, model.ErrBadData)
}

func TestReadCSVRejectsUnorderedDates(t *testing.T) {
	in := strings.NewReader(
		"date,open,high,low,close\n" +
			"2024-01-03,10,10.2,9.9,10.1\n" +
			"2024-01-02,10,10.2,9.9,10.1\n")
	_, err := ReadCSV(in)
	assert.ErrorIs(t, err, model.ErrBadData)
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	defer store.Close()

	bars := sampleSeries(t)
	require.NoError(t, store.SaveBars("510300", bars))

	got, err := store.LoadBars("510300", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, bars, got)

	syms, err := store.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"510300"}, syms)
}

func TestStoreDateRange(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	defer store.Close()

	bars := sampleSeries(t)
	require.NoError(t, store.SaveBars("510300", bars))

	got, err := store.LoadBars("510300",
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-03", got[0].Date.Format("2006-01-02"))
}

func TestStoreUpsertOverwrites(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "bars.db"))
	require.NoError(t, err)
	defer store.Close()

	bars := sampleSeries(t)
	require.NoError(t, store.SaveBars("510300", bars))

	revised := append(model.Series{}, bars...)
	revised[0].Close = 11.5
	require.NoError(t, store.SaveBars("510300", revised))

	got, err := store.LoadBars("510300", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 11.5, got[0].Close)
}

func TestLoadHistoryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	body := `{"symbol":"510300","dates":["2024-01-02","2024-01-03"],"open":[10,10.1],"high":[10.2,10.3],"low":[9.9,10.0],"close":[10.1,10.0]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	bars, err := LoadHistoryJSON(path)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.1, bars[0].Close)
}

func TestSeriesCache(t *testing.T) {
	c := NewSeriesCache(time.Minute)
	key := CacheKey("510300", time.Time{}, time.Time{})

	_, ok := c.Get(key)
	assert.False(t, ok)

	bars := sampleSeries(t)
	c.Set(key, bars)
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, bars, got)

	c.Clear()
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestCacheKeyDistinguishesRanges(t *testing.T) {
	a := CacheKey("510300", time.Time{}, time.Time{})
	b := CacheKey("510300", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Time{})
	c := CacheKey("159915", time.Time{}, time.Time{})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}
