package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secflow/secflow/internal/metrics"
	"github.com/secflow/secflow/internal/models"
	"github.com/secflow/secflow/internal/services"
)

func static(name string, v any) Fetcher {
	return Fetcher{Name: name, Fetch: func(context.Context) (any, error) { return v, nil }}
}

func failing(name string, err error) Fetcher {
	return Fetcher{Name: name, Fetch: func(context.Context) (any, error) { return nil, err }}
}

func TestClampInterval(t *testing.T) {
	assert.Equal(t, MinInterval, ClampInterval(time.Second))
	assert.Equal(t, MaxInterval, ClampInterval(time.Minute))
	assert.Equal(t, 15*time.Second, ClampInterval(15*time.Second))
}

func TestRefreshCommitsSlices(t *testing.T) {
	c := NewController("p", time.Second, []Fetcher{static("a", 1), static("b", "two")})
	assert.Equal(t, MinInterval, c.Interval())
	assert.Equal(t, StateIdle, c.Snapshot().State)

	snap := c.Refresh(context.Background())

	assert.Equal(t, StateSuccess, snap.State)
	assert.JSONEq(t, `1`, string(snap.Views["a"]))
	assert.JSONEq(t, `"two"`, string(snap.Views["b"]))
	assert.Equal(t, uint64(1), snap.Tick)
	assert.Empty(t, snap.Error)
}

func TestUnchangedViewKeepsRevision(t *testing.T) {
	c := NewController("p", time.Second, []Fetcher{static("a", map[string]int{"x": 1})})

	first := c.Refresh(context.Background())
	second := c.Refresh(context.Background())

	assert.Equal(t, first.Revision, second.Revision)
	assert.Equal(t, uint64(2), second.Tick)
}

func TestErrorKeepsOtherSlices(t *testing.T) {
	c := NewController("p", time.Second, []Fetcher{static("a", 1), failing("b", errors.New("backend down"))})

	snap := c.Refresh(context.Background())

	assert.Equal(t, StateError, snap.State)
	assert.False(t, snap.Fatal)
	assert.Equal(t, "backend down", snap.Error)
	assert.Contains(t, snap.Views, "a")
	assert.NotContains(t, snap.Views, "b")
}

func TestFatalErrorClearsViews(t *testing.T) {
	var fail atomic.Bool
	f := Fetcher{Name: "threatAnalysis", Fatal: true, Fetch: func(context.Context) (any, error) {
		if fail.Load() {
			return nil, errors.New("fetching threat analysis data: " + "bad")
		}
		return "ok", nil
	}}
	c := NewController("threat-analysis", time.Second, []Fetcher{f})

	require.Equal(t, StateSuccess, c.Refresh(context.Background()).State)

	fail.Store(true)
	snap := c.Refresh(context.Background())
	assert.Equal(t, StateError, snap.State)
	assert.True(t, snap.Fatal)
	assert.Empty(t, snap.Views)

	fail.Store(false)
	snap = c.Refresh(context.Background())
	assert.Equal(t, StateSuccess, snap.State)
	assert.False(t, snap.Fatal)
	assert.Contains(t, snap.Views, "threatAnalysis")
}

func TestErrorMessageMapping(t *testing.T) {
	dataErr := errors.Join(errors.New("context"), &services.DataError{Endpoint: "threat analysis"})
	c := NewController("threat-analysis", time.Second,
		[]Fetcher{{Name: "threatAnalysis", Fatal: true, Fetch: func(context.Context) (any, error) { return nil, dataErr }}},
		WithErrorMessage(services.UserMessage))

	snap := c.Refresh(context.Background())

	assert.Equal(t, "Invalid data structure received from server", snap.Error)
}

func TestOlderTickIsDiscardedAfterNewerLands(t *testing.T) {
	const page = "discard-test"
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	f := Fetcher{Name: "slow", Fetch: func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	}}
	c := NewController(page, time.Second, []Fetcher{f})
	before := testutil.ToFloat64(metrics.PollDiscarded.WithLabelValues(page))

	done := make(chan struct{})
	go func() {
		c.Refresh(context.Background())
		close(done)
	}()
	<-started
	c.Refresh(context.Background())
	close(release)
	<-done

	snap := c.Snapshot()
	assert.Equal(t, StateSuccess, snap.State)
	assert.JSONEq(t, `"fresh"`, string(snap.Views["slow"]))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PollDiscarded.WithLabelValues(page)))
}

func TestOverlappingTicksAreNotCancelled(t *testing.T) {
	first := make(chan struct{})
	second := make(chan struct{})
	var calls atomic.Int32
	f := Fetcher{Name: "a", Fetch: func(ctx context.Context) (any, error) {
		n := calls.Add(1)
		if n == 1 {
			<-first
		} else {
			<-second
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return n, nil
	}}
	c := NewController("p", time.Second, []Fetcher{f})

	done1 := make(chan Snapshot)
	go func() { done1 <- c.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	done2 := make(chan Snapshot)
	go func() { done2 <- c.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)

	close(first)
	snap := <-done1
	assert.Equal(t, StateSuccess, snap.State)
	assert.JSONEq(t, `1`, string(snap.Views["a"]))

	close(second)
	snap = <-done2
	assert.Equal(t, StateSuccess, snap.State)
	assert.JSONEq(t, `2`, string(snap.Views["a"]))
}

func TestSlowBackendStillRenders(t *testing.T) {
	const page = "slow-backend"
	var running, overlaps, calls atomic.Int32
	f := Fetcher{Name: "a", Fetch: func(ctx context.Context) (any, error) {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		defer running.Add(-1)
		select {
		case <-time.After(60 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return calls.Add(1), nil
	}}
	c := NewController(page, time.Second, []Fetcher{f})
	c.interval = 20 * time.Millisecond
	skipped := testutil.ToFloat64(metrics.PollSkipped.WithLabelValues(page))

	require.NoError(t, c.Mount(context.Background()))
	require.Eventually(t, func() bool {
		return c.Snapshot().State == StateSuccess && calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
	c.Unmount()

	assert.Zero(t, overlaps.Load())
	assert.Greater(t, testutil.ToFloat64(metrics.PollSkipped.WithLabelValues(page)), skipped)
}

func TestNetworkFetchersShareScanWithinTick(t *testing.T) {
	network := &fakeNetwork{}
	c := NewController(PageNetworkMonitoring, time.Second, networkFetchers(network, "192.168.1.1"))

	c.Refresh(context.Background())
	first := network.calls.Load()
	c.Refresh(context.Background())

	assert.GreaterOrEqual(t, first, int32(1))
	assert.Greater(t, network.calls.Load(), first)
}

func TestMountSubscribeUnmount(t *testing.T) {
	c := NewController("p", time.Second, []Fetcher{static("a", 1)})
	sub, cancel := c.Subscribe()
	defer cancel()

	initial := <-sub
	assert.Equal(t, StateIdle, initial.State)

	require.NoError(t, c.Mount(context.Background()))
	require.NoError(t, c.Mount(context.Background()))

	deadline := time.After(2 * time.Second)
	for {
		var snap Snapshot
		select {
		case snap = <-sub:
		case <-deadline:
			t.Fatal("no success snapshot")
		}
		if snap.State == StateSuccess {
			break
		}
	}

	c.Unmount()
	c.Unmount()

	for range sub {
	}
	assert.Equal(t, StateUnmounted, c.Snapshot().State)
	assert.ErrorIs(t, c.Mount(context.Background()), ErrUnmounted)

	late, _ := c.Subscribe()
	_, open := <-late
	assert.False(t, open)
}

func TestResultAfterUnmountIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	f := Fetcher{Name: "slow", Fetch: func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "late", nil
	}}
	c := NewController("p", time.Second, []Fetcher{f})

	done := make(chan Snapshot)
	go func() { done <- c.Refresh(context.Background()) }()
	<-started

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	c.Unmount()
	snap := <-done

	assert.Equal(t, StateUnmounted, snap.State)
	assert.Empty(t, snap.Views)
}

type fakeDashboard struct{}

func (fakeDashboard) NetworkHealth(context.Context) (*models.NetworkHealth, error) {
	return nil, &services.UpstreamError{StatusCode: 503, Message: "Service Unavailable"}
}

func (fakeDashboard) Threats(context.Context) (*models.ThreatCounts, error) {
	return &models.ThreatCounts{LowRisk: 85, MediumRisk: 12, HighRisk: 3}, nil
}

func (fakeDashboard) Alerts(context.Context) (*models.AlertsData, error) {
	return &models.AlertsData{
		Total:  1,
		Alerts: []models.Alert{{ID: "1", Type: "security", Severity: "Warning", Timestamp: "2024-03-01T11:55:00Z"}},
	}, nil
}

func (fakeDashboard) SecurityScore(context.Context) (*models.SecurityScore, error) {
	return &models.SecurityScore{Secure: 85, AtRisk: 15}, nil
}

type fakeThreats struct{ err error }

func (f fakeThreats) All(context.Context) (*models.ThreatAnalysis, error) {
	return nil, f.err
}

type fakeNetwork struct{ calls atomic.Int32 }

func (f *fakeNetwork) Scan(_ context.Context, ip string) (*models.ScanResult, error) {
	f.calls.Add(1)
	return &models.ScanResult{
		Devices:     []models.Device{{Name: "Router", IP: ip, Status: "Online"}},
		NetworkData: &models.NetworkData{TrafficData: &models.TrafficData{Inbound: []float64{1, 2, 3}, Outbound: []float64{1, 1, 1}}},
	}, nil
}

func newTestRegistry(t *testing.T, threatErr error) (*Registry, *fakeNetwork) {
	t.Helper()
	network := &fakeNetwork{}
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRegistry(ctx,
		Pages(fakeDashboard{}, fakeThreats{err: threatErr}, network),
		WithIntervals(map[string]time.Duration{PageDashboard: time.Hour}),
		WithControllerOptions(WithErrorMessage(services.UserMessage)))
	t.Cleanup(func() {
		r.Close()
		cancel()
	})
	return r, network
}

func TestRegistryPagesAndIntervals(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	assert.Equal(t, []string{PageDashboard, PageNetworkMonitoring, PageThreatAnalysis}, r.Pages())
	assert.Equal(t, MaxInterval, r.Interval(PageDashboard))
	assert.Equal(t, 5*time.Second, r.Interval(PageThreatAnalysis))
	assert.Equal(t, 15*time.Second, r.Interval(PageNetworkMonitoring))
}

func TestRegistrySnapshotDashboard(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	snap, err := r.Snapshot(context.Background(), PageDashboard, nil)
	require.NoError(t, err)

	assert.Equal(t, StateError, snap.State)
	assert.False(t, snap.Fatal)
	assert.Equal(t, "Service Unavailable", snap.Error)
	assert.Len(t, snap.Views, 3)

	var score struct {
		Center string `json:"center"`
	}
	require.NoError(t, json.Unmarshal(snap.Views["securityScore"], &score))
	assert.Equal(t, "85%", score.Center)
}

func TestRegistryThreatAnalysisFatal(t *testing.T) {
	r, _ := newTestRegistry(t, &services.DataError{Endpoint: "threat analysis"})

	snap, err := r.Snapshot(context.Background(), PageThreatAnalysis, nil)
	require.NoError(t, err)

	assert.True(t, snap.Fatal)
	assert.Empty(t, snap.Views)
	assert.Equal(t, "Invalid data structure received from server", snap.Error)
}

func TestRegistryNetworkMonitoring(t *testing.T) {
	r, network := newTestRegistry(t, nil)

	_, err := r.Snapshot(context.Background(), PageNetworkMonitoring, nil)
	assert.ErrorIs(t, err, ErrMissingParam)

	snap, err := r.Snapshot(context.Background(), PageNetworkMonitoring, map[string]string{"ip": "192.168.1.1"})
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, snap.State)
	assert.Contains(t, snap.Views, "devices")
	assert.Contains(t, snap.Views, "traffic")
	assert.Contains(t, snap.Views, "topology")
	assert.LessOrEqual(t, network.calls.Load(), int32(3))
}

func TestRegistryAcquireRefCounts(t *testing.T) {
	r, _ := newTestRegistry(t, nil)

	_, _, err := r.Acquire("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownPage)

	a, releaseA, err := r.Acquire(PageDashboard, nil)
	require.NoError(t, err)
	b, releaseB, err := r.Acquire(PageDashboard, nil)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Mounted())

	releaseA()
	releaseA()
	assert.Equal(t, 1, r.Mounted())

	releaseB()
	assert.Equal(t, 0, r.Mounted())
	assert.Equal(t, StateUnmounted, a.Snapshot().State)

	c, releaseC, err := r.Acquire(PageDashboard, nil)
	require.NoError(t, err)
	defer releaseC()
	assert.NotSame(t, a, c)
}

func TestClockStampsUpdatedAt(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewController("p", time.Second, []Fetcher{static("a", 1)}, WithClock(func() time.Time { return at }))

	snap := c.Refresh(context.Background())
	assert.Equal(t, at, snap.UpdatedAt)
}

func TestDashboardRefreshIgnoresWallClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return at }
	c := NewController(PageDashboard, time.Second, Pages(fakeDashboard{}, fakeThreats{}, &fakeNetwork{})[0].Fetchers(nil), WithClock(clock))

	first := c.Refresh(context.Background())
	at = at.Add(2 * time.Minute)
	second := c.Refresh(context.Background())

	assert.Equal(t, first.Revision, second.Revision)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.Equal(t, string(first.Views["recentAlerts"]), string(second.Views["recentAlerts"]))
	assert.Contains(t, string(second.Views["recentAlerts"]), `"timestamp":"2024-03-01T11:55:00Z"`)
}
