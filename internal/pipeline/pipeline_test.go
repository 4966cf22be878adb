package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/cold-temp-correction/internal/domain"
	"github.com/couchcryptid/cold-temp-correction/internal/observability"
	"github.com/couchcryptid/cold-temp-correction/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockFetcher struct {
	mu       sync.Mutex
	payloads []string
	errs     []error
	calls    atomic.Int64
}

// FetchReports returns the i-th payload or error; the last entry repeats.
func (m *mockFetcher) FetchReports(_ context.Context) (string, error) {
	i := int(m.calls.Add(1) - 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := max(len(m.payloads), len(m.errs))
	if i >= n {
		i = n - 1
	}
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return "", err
	}
	return m.payloads[i], nil
}

type mockPublisher struct {
	mu      sync.Mutex
	batches [][]domain.AirportView
	err     error
}

func (m *mockPublisher) PublishViews(_ context.Context, views []domain.AirportView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, views)
	return nil
}

type tableSource []domain.AirportTables

func (s tableSource) Airports() []domain.AirportTables { return s }

func (s tableSource) Airport(id string) (domain.AirportTables, bool) {
	for _, at := range s {
		if at.Airport.Identifier == id {
			return at, true
		}
	}
	return domain.AirportTables{}, false
}

func newTables(t *testing.T) tableSource {
	t.Helper()
	refs := []domain.AirportRef{
		{Identifier: "EFHK", Name: "HELSINKI-VANTAA", ElevationFt: 180,
			CorrectionPoints: []domain.CorrectionPoint{{Name: "IAF 04L", PublishedAltitudeFt: 2300}}},
		{Identifier: "EFJO", Name: "JOENSUU", ElevationFt: 399,
			CorrectionPoints: []domain.CorrectionPoint{{Name: "IAF", PublishedAltitudeFt: 2900}}},
	}
	src := make(tableSource, len(refs))
	for i, a := range refs {
		table, err := domain.BuildBandTable(a.CorrectionPoints[0].PublishedAltitudeFt, a.ElevationFt, a.CorrectionPoints[0].Clearance())
		require.NoError(t, err)
		src[i] = domain.AirportTables{Airport: a, Tables: []domain.BandTable{table}}
	}
	return src
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

const (
	testInterval = 10 * time.Minute
	feedText     = "EFHK 141020Z 22012KT 9999 FEW020 M07/M10 Q1012=\n" +
		"EFHK 141050Z 22012KT 9999 FEW020 M09/M13 Q1012 NOSIG=\n" +
		"EFJO 141050Z 00000KT 9999 NSC Q1020=\n"
)

var fetchedAt = time.Date(2026, time.January, 14, 10, 52, 0, 0, time.UTC)

// --- tests ---

func TestRefresher_NotReadyBeforeFirstRefresh(t *testing.T) {
	r := pipeline.New(&mockFetcher{payloads: []string{feedText}}, newTables(t), nil,
		clockwork.NewFakeClockAt(fetchedAt), testInterval, discardLogger(), observability.NewMetricsForTesting())

	require.Error(t, r.CheckReadiness(context.Background()))
	assert.False(t, r.Observations().Available)

	for _, v := range r.Views() {
		assert.False(t, v.FeedAvailable)
		assert.False(t, v.Temperature.Known)
	}
}

func TestRefresher_Refresh_Success(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	r := pipeline.New(&mockFetcher{payloads: []string{feedText}}, newTables(t), nil,
		clockwork.NewFakeClockAt(fetchedAt), testInterval, discardLogger(), metrics)

	require.NoError(t, r.Refresh(context.Background()))
	require.NoError(t, r.CheckReadiness(context.Background()))

	obs := r.Observations()
	assert.True(t, obs.Available)
	assert.Equal(t, fetchedAt, obs.FetchedAt)
	assert.Equal(t, domain.KnownTemperature(-9), obs.Temperature("EFHK"))
	assert.Equal(t, domain.UnknownTemperature, obs.Temperature("EFJO"))

	assert.InDelta(t, 2, gaugeValue(t, metrics.StationsReporting), 0)
	assert.InDelta(t, 1, gaugeValue(t, metrics.StationsUnknown), 0)

	efhk, ok := r.View("EFHK")
	require.True(t, ok)
	assert.True(t, efhk.FeedAvailable)
	assert.Equal(t, fetchedAt, efhk.ObservedAt)
	require.Len(t, efhk.Points, 1)
	require.NotNil(t, efhk.Points[0].ActiveBand)
	// -9 °C falls in the baseline band [0, -9].
	assert.Equal(t, 0, *efhk.Points[0].ActiveBand)

	efjo, ok := r.View("EFJO")
	require.True(t, ok)
	require.NotNil(t, efjo.Points[0].ActiveBand)
	assert.Equal(t, 0, *efjo.Points[0].ActiveBand)

	_, ok = r.View("ESSA")
	assert.False(t, ok)
}

func TestRefresher_Refresh_ColdTemperatureHighlightsBand(t *testing.T) {
	feed := "EFHK 141050Z 22012KT CAVOK M23/M26 Q1032=\n"
	r := pipeline.New(&mockFetcher{payloads: []string{feed}}, newTables(t), nil,
		clockwork.NewFakeClockAt(fetchedAt), testInterval, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, r.Refresh(context.Background()))

	view, ok := r.View("EFHK")
	require.True(t, ok)
	require.NotNil(t, view.Points[0].ActiveBand)
	band := view.Points[0].Bands[*view.Points[0].ActiveBand]
	assert.True(t, band.Active)
	assert.Equal(t, 2700, band.CorrectedAltitudeFt)
	assert.Equal(t, "-19.1 … -29", band.Range)
}

func TestRefresher_Refresh_FetchFailure(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	fetcher := &mockFetcher{payloads: []string{feedText, ""}, errs: []error{nil, errors.New("connection refused")}}
	r := pipeline.New(fetcher, newTables(t), nil,
		clockwork.NewFakeClockAt(fetchedAt), testInterval, discardLogger(), metrics)

	require.NoError(t, r.Refresh(context.Background()))
	require.Error(t, r.Refresh(context.Background()))

	// A failed fetch replaces earlier observations rather than serving them stale.
	obs := r.Observations()
	assert.False(t, obs.Available)
	require.Error(t, obs.Err)
	assert.NoError(t, r.CheckReadiness(context.Background()))
	assert.InDelta(t, 2, gaugeValue(t, metrics.StationsUnknown), 0)

	for _, v := range r.Views() {
		assert.False(t, v.FeedAvailable)
		assert.True(t, v.ObservedAt.IsZero())
		for _, p := range v.Points {
			require.NotNil(t, p.ActiveBand)
			assert.Equal(t, 0, *p.ActiveBand)
		}
	}
}

func TestRefresher_Refresh_ReadyAfterFailedFirstAttempt(t *testing.T) {
	r := pipeline.New(&mockFetcher{errs: []error{errors.New("dns")}}, newTables(t), nil,
		clockwork.NewFakeClockAt(fetchedAt), testInterval, discardLogger(), observability.NewMetricsForTesting())

	require.Error(t, r.Refresh(context.Background()))
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

func TestRefresher_Refresh_Publishes(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	pub := &mockPublisher{}
	r := pipeline.New(&mockFetcher{payloads: []string{feedText}}, newTables(t), pub,
		clockwork.NewFakeClockAt(fetchedAt), testInterval, discardLogger(), metrics)

	require.NoError(t, r.Refresh(context.Background()))

	require.Len(t, pub.batches, 1)
	if diff := cmp.Diff(r.Views(), pub.batches[0]); diff != "" {
		t.Errorf("published views mismatch (-want +got):\n%s", diff)
	}
}

func TestRefresher_Refresh_PublishErrorIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	r := pipeline.New(&mockFetcher{payloads: []string{feedText}}, newTables(t), pub,
		clockwork.NewFakeClockAt(fetchedAt), testInterval, discardLogger(), observability.NewMetricsForTesting())

	require.NoError(t, r.Refresh(context.Background()))
	assert.True(t, r.Observations().Available)
}

func TestRefresher_Run_RefreshesEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(fetchedAt)
	metrics := observability.NewMetricsForTesting()
	fetcher := &mockFetcher{payloads: []string{feedText}}
	r := pipeline.New(fetcher, newTables(t), nil, clock, testInterval, discardLogger(), metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.InDelta(t, 1, gaugeValue(t, metrics.RefresherRunning), 0)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(testInterval - time.Second)
	assert.Equal(t, int64(1), fetcher.calls.Load())

	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		return r.Observations().FetchedAt.Equal(fetchedAt.Add(testInterval))
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), fetcher.calls.Load())

	cancel()
	require.NoError(t, <-done)
	assert.InDelta(t, 0, gaugeValue(t, metrics.RefresherRunning), 0)
}

func TestRefresher_Run_BacksOffAfterFailure(t *testing.T) {
	clock := clockwork.NewFakeClockAt(fetchedAt)
	fetcher := &mockFetcher{
		payloads: []string{"", "", feedText},
		errs:     []error{errors.New("timeout"), errors.New("timeout"), nil},
	}
	r := pipeline.New(fetcher, newTables(t), nil, clock, testInterval, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// First retry after 5s.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	// Second retry after 10s.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Second)
	assert.Equal(t, int64(2), fetcher.calls.Load())
	clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return r.Observations().Available }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRefresher_Run_ContextCancellation(t *testing.T) {
	fetcher := &mockFetcher{payloads: []string{feedText}}
	r := pipeline.New(fetcher, newTables(t), nil, clockwork.NewFakeClock(), testInterval, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Run(ctx))
}
