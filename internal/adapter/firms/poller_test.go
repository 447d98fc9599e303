package firms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock fetcher ---

type mockFetcher struct {
	bodies [][]byte
	errs   []error
	calls  int
}

func (m *mockFetcher) FetchCSV(_ context.Context) ([]byte, error) {
	i := m.calls
	m.calls++
	var body []byte
	var err error
	if i < len(m.bodies) {
		body = m.bodies[i]
	}
	if i < len(m.errs) {
		err = m.errs[i]
	}
	return body, err
}

var testStart = time.Date(2025, 2, 24, 12, 0, 0, 0, time.UTC)

func newTestPoller(f Fetcher, clock clockwork.Clock, m *observability.Metrics) *Poller {
	return NewPoller(f, PollerConfig{
		Source:        testSource,
		Interval:      10 * time.Minute,
		FlushInterval: 500 * time.Millisecond,
		Clock:         clock,
	}, m, discardLogger())
}

// --- tests ---

func TestPoller_FetchesAndBatches(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	m := observability.NewMetricsForTesting()
	f := &mockFetcher{bodies: [][]byte{[]byte(sampleCSV)}}
	p := newTestPoller(f, clock, m)

	first, err := p.ExtractBatch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, p.Pending())

	second, err := p.ExtractBatch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, f.calls, "queued rows are served without refetching")

	fetchID := first[0].Headers[HeaderFetchID]
	assert.NotEmpty(t, fetchID)
	assert.Equal(t, fetchID, second[0].Headers[HeaderFetchID])
	assert.Equal(t, testSource, first[0].Headers[HeaderSource])
	assert.Equal(t, int64(2), second[0].Offset)
	assert.Equal(t, testStart, first[0].Timestamp)
	assert.Nil(t, first[0].Commit)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.FIRMSRowsFetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FIRMSFetches.WithLabelValues("success")))
}

func TestPoller_RowsParseAsDetections(t *testing.T) {
	p := newTestPoller(&mockFetcher{bodies: [][]byte{[]byte(sampleCSV)}}, clockwork.NewFakeClockAt(testStart), observability.NewMetricsForTesting())

	batch, err := p.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)

	d, err := domain.ParseRawEvent(batch[1])
	require.NoError(t, err)
	assert.Equal(t, -25.0, d.Geo.Lat)
	assert.Equal(t, 345.0, d.Brightness)
}

func TestPoller_WaitsForFlushIntervalWhenIdle(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	f := &mockFetcher{bodies: [][]byte{[]byte(sampleCSV), []byte(sampleCSV)}}
	p := newTestPoller(f, clock, observability.NewMetricsForTesting())

	_, err := p.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan []domain.RawEvent, 1)
	go func() {
		batch, err := p.ExtractBatch(ctx, 10)
		assert.NoError(t, err)
		done <- batch
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(500 * time.Millisecond)

	select {
	case batch := <-done:
		assert.Empty(t, batch)
	case <-ctx.Done():
		t.Fatal("ExtractBatch did not return after the flush interval")
	}
	assert.Equal(t, 1, f.calls)
}

func TestPoller_RefetchesAfterInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	f := &mockFetcher{bodies: [][]byte{[]byte(sampleCSV), []byte(sampleCSV)}}
	p := newTestPoller(f, clock, observability.NewMetricsForTesting())

	_, err := p.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)

	batch, err := p.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, batch, 3)
	assert.Equal(t, 2, f.calls)
}

func TestPoller_EmptySnapshotIsNotAnError(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	m := observability.NewMetricsForTesting()
	f := &mockFetcher{bodies: [][]byte{[]byte("latitude,longitude,bright_ti4\n")}}
	p := newTestPoller(f, clock, m)

	batch, err := p.ExtractBatch(context.Background(), 10)

	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Equal(t, testStart.Add(10*time.Minute), p.nextFetch)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FIRMSFetches.WithLabelValues("empty")))
}

func TestPoller_FetchErrorRetriesSooner(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	m := observability.NewMetricsForTesting()
	f := &mockFetcher{errs: []error{&StatusError{Code: 500}}}
	p := newTestPoller(f, clock, m)

	_, err := p.ExtractBatch(context.Background(), 10)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, testStart.Add(defaultRetryDelay), p.nextFetch)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FIRMSFetches.WithLabelValues("status")))
}

func TestPoller_SchemaErrorSurfaces(t *testing.T) {
	f := &mockFetcher{bodies: [][]byte{[]byte("latitude,longitude,brightness\n1,2,300\n")}}
	p := newTestPoller(f, clockwork.NewFakeClockAt(testStart), observability.NewMetricsForTesting())

	_, err := p.ExtractBatch(context.Background(), 10)

	assert.ErrorIs(t, err, domain.ErrMissingBrightness)
}

func TestPoller_ContextCancelledWhileWaiting(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testStart)
	p := newTestPoller(&mockFetcher{bodies: [][]byte{[]byte(sampleCSV)}}, clock, observability.NewMetricsForTesting())
	_, err := p.ExtractBatch(context.Background(), 10)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.ExtractBatch(ctx, 10)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewPoller_RetryDelayBoundedByInterval(t *testing.T) {
	p := NewPoller(&mockFetcher{}, PollerConfig{Interval: 10 * time.Second}, observability.NewMetricsForTesting(), discardLogger())

	assert.Equal(t, 10*time.Second, p.cfg.RetryDelay)
	assert.NotNil(t, p.cfg.Clock)
}
