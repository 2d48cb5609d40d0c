package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railway-gateway/internal/common/config"
	toolerr "railway-gateway/internal/common/errors"
	"railway-gateway/internal/common/logger"
	"railway-gateway/internal/normalize"
	"railway-gateway/internal/stations"
)

// ==========================
// Fake provider
// ==========================

// fakeProvider records every upstream call and answers from a script keyed
// by "source->destination" for fan-out ops, or a single canned response for
// single-target ops. It also tracks the in-flight high-water mark so tests
// can assert the fan-out concurrency bound.
type fakeProvider struct {
	mu         sync.Mutex
	calls      int
	inFlight   int
	maxSeen    int
	perPair    map[string][]byte // "SRC->DST" -> raw body
	pairErrs   map[string]error  // "SRC->DST" -> forced error
	blockPairs map[string]bool   // "SRC->DST" -> hold until ctx done
	single     []byte
	singleErr  error
	block      bool // hold every call until its context is done
}

func (f *fakeProvider) record() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProvider) enter() {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
}

func (f *fakeProvider) leave() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeProvider) maxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}

func (f *fakeProvider) pair(ctx context.Context, src, dst string) ([]byte, error) {
	f.enter()
	defer f.leave()
	key := src + "->" + dst
	if f.block || f.blockPairs[key] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.pairErrs[key]; ok {
		return nil, err
	}
	if body, ok := f.perPair[key]; ok {
		return body, nil
	}
	return []byte(`{"data":{"source":"` + src + `","destination":"` + dst + `","trains":[]}}`), nil
}

func (f *fakeProvider) simple(context.Context) ([]byte, error) {
	f.record()
	return f.single, f.singleErr
}

func (f *fakeProvider) PNRStatus(ctx context.Context, _ string) ([]byte, error) {
	return f.simple(ctx)
}

func (f *fakeProvider) LiveStation(ctx context.Context, src, dst string, _ int) ([]byte, error) {
	return f.pair(ctx, src, dst)
}

func (f *fakeProvider) TrainSchedule(ctx context.Context, _ string) ([]byte, error) {
	return f.simple(ctx)
}

func (f *fakeProvider) Fare(ctx context.Context, _, _, _, _ string) ([]byte, error) {
	return f.simple(ctx)
}

func (f *fakeProvider) LiveTrainStatus(ctx context.Context, _, _ string) ([]byte, error) {
	return f.simple(ctx)
}

func (f *fakeProvider) SeatAvailability(ctx context.Context, src, dst, _, _ string) ([]byte, error) {
	return f.pair(ctx, src, dst)
}

func (f *fakeProvider) SearchTrains(ctx context.Context, src, dst, _ string) ([]byte, error) {
	return f.pair(ctx, src, dst)
}

// ==========================
// Helpers
// ==========================

func testConfig() config.GatewayConfig {
	return config.GatewayConfig{MaxInFlight: 4, DefaultWindow: 4, DispatchTimeout: 5000}
}

func newTestDispatcher(t *testing.T, f *fakeProvider) *Dispatcher {
	t.Helper()
	return New(stations.NewDirectory(nil, nil), f, testConfig(), logger.NewTestLogger(t))
}

func liveBoardBody(src, dst string, trains ...normalize.LiveTrain) []byte {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"source":      src,
			"destination": dst,
			"trains":      trains,
		},
	}
	b, _ := json.Marshal(payload)
	return b
}

// ==========================
// Resolver-only operation
// ==========================

func TestDispatch_ResolveStationCode_NoNetwork(t *testing.T) {
	f := &fakeProvider{}
	d := newTestDispatcher(t, f)

	res, err := d.Dispatch(context.Background(), &Request{Op: OpResolveStationCode, Name: "Delhi"})
	require.NoError(t, err)

	list := res.Data.(*StationCodeList)
	assert.Equal(t, []string{"NDLS", "ANVT", "DLI", "DEE", "DEC", "SZM"}, list.Codes)
	assert.Equal(t, 0, f.callCount(), "resolver operation must not call upstream")
}

func TestDispatch_ResolveStationCode_Unknown(t *testing.T) {
	f := &fakeProvider{}
	d := newTestDispatcher(t, f)

	_, err := d.Dispatch(context.Background(), &Request{Op: OpResolveStationCode, Name: "Atlantis"})
	require.Error(t, err)
	assert.Equal(t, toolerr.ErrCodeStationResolutionFailed, toolerr.Kind(err))
	assert.Equal(t, 0, f.callCount(), "resolution failure must abort before any upstream call")
}

func TestDispatch_ValidationBeforeIO(t *testing.T) {
	f := &fakeProvider{}
	d := newTestDispatcher(t, f)

	_, err := d.Dispatch(context.Background(), &Request{Op: OpGetPNRStatus, PNR: "12345"})
	require.Error(t, err)
	assert.Equal(t, toolerr.ErrCodeValidationFailed, toolerr.Kind(err))
	assert.Equal(t, 0, f.callCount())
}

// ==========================
// Single-target operations
// ==========================

func TestDispatch_PNRStatus(t *testing.T) {
	f := &fakeProvider{single: []byte(`{"data":{"trainName":"Shram Shakti","trainNumber":"12452",
		"doj":"15-09-2026","departureTime":"23:55","arrivalTime":"06:05","from":"CNB","to":"NDLS",
		"duration":"6h 10m","passengers":[{"currentStatus":"CNF/B2/32"}]}}`)}
	d := newTestDispatcher(t, f)

	res, err := d.Dispatch(context.Background(), &Request{Op: OpGetPNRStatus, PNR: "1234567890"})
	require.NoError(t, err)

	rec := res.Data.(*normalize.PNRRecord)
	assert.Equal(t, "12452", rec.TrainNumber)
	assert.Equal(t, []string{"CNF/B2/32"}, rec.PassengerStatus)
	assert.False(t, res.Partial)
	assert.Equal(t, 1, f.callCount())
}

func TestDispatch_Fare_CityCollapsesToFirstRankedCode(t *testing.T) {
	f := &fakeProvider{single: []byte(`{"data":{"fares":[{"classType":"3A","fare":"1245"}]}}`)}
	d := newTestDispatcher(t, f)

	res, err := d.Dispatch(context.Background(), &Request{
		Op: OpGetFare, TrainNumber: "12452", Source: "Delhi", Destination: "Kanpur",
	})
	require.NoError(t, err)

	table := res.Data.(*normalize.FareTable)
	assert.Equal(t, "NDLS", table.Source, "city resolves to first-ranked code only")
	assert.Equal(t, "CNB", table.Destination)
	assert.Equal(t, 1, f.callCount(), "single-target op issues exactly one call")
}

// ==========================
// Fan-out operations
// ==========================

func TestDispatch_LiveStationTrains_FanoutDedup(t *testing.T) {
	// Delhi (6 codes) x CNB (1 code) = 6 branches. Train 12034 shows up at
	// two stations; the merged result must carry it once, keeping the more
	// complete sighting.
	f := &fakeProvider{perPair: map[string][]byte{
		"NDLS->CNB": liveBoardBody("NDLS", "CNB",
			normalize.LiveTrain{TrainNumber: "12034", TrainName: "Shatabdi", ScheduledDeparture: "11:00", Platform: "3"},
			normalize.LiveTrain{TrainNumber: "12004", TrainName: "LJN Swarn Shatabdi", ScheduledDeparture: "12:10"},
		),
		"ANVT->CNB": liveBoardBody("ANVT", "CNB",
			normalize.LiveTrain{TrainNumber: "12034", ScheduledDeparture: "11:00"},
		),
	}}
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	d := newTestDispatcher(t, f).WithClock(func() time.Time { return now })

	res, err := d.Dispatch(context.Background(), &Request{
		Op: OpGetLiveStationTrains, Source: "Delhi", Destination: "CNB", Hours: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, f.callCount(), "one branch per source/destination pair")

	board := res.Data.(*normalize.LiveTrainBoard)
	require.Len(t, board.Trains, 2)
	assert.Equal(t, "12034", board.Trains[0].TrainNumber)
	assert.Equal(t, "Shatabdi", board.Trains[0].TrainName, "more complete duplicate wins")
	assert.False(t, res.Partial)
}

func TestDispatch_LiveStationTrains_WindowApplied(t *testing.T) {
	f := &fakeProvider{perPair: map[string][]byte{
		"NDLS->CNB": liveBoardBody("NDLS", "CNB",
			normalize.LiveTrain{TrainNumber: "12001", ScheduledDeparture: "13:59"},
			normalize.LiveTrain{TrainNumber: "12002", ScheduledDeparture: "14:01"},
		),
	}}
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	d := newTestDispatcher(t, f).WithClock(func() time.Time { return now })

	res, err := d.Dispatch(context.Background(), &Request{
		Op: OpGetLiveStationTrains, Source: "NDLS", Destination: "CNB", Hours: 4,
	})
	require.NoError(t, err)

	board := res.Data.(*normalize.LiveTrainBoard)
	require.Len(t, board.Trains, 1)
	assert.Equal(t, "12001", board.Trains[0].TrainNumber)
}

func TestDispatch_Fanout_PartialSuccess(t *testing.T) {
	f := &fakeProvider{
		perPair: map[string][]byte{
			"NDLS->CNB": liveBoardBody("NDLS", "CNB",
				normalize.LiveTrain{TrainNumber: "12001", ScheduledDeparture: "11:00"}),
		},
		pairErrs: map[string]error{
			"ANVT->CNB": toolerr.NewUpstreamError("provider returned 500", 500, true),
		},
	}
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	d := newTestDispatcher(t, f).WithClock(func() time.Time { return now })

	res, err := d.Dispatch(context.Background(), &Request{
		Op: OpGetLiveStationTrains, Source: "Delhi", Destination: "CNB",
	})
	require.NoError(t, err, "one healthy branch keeps the request alive")

	assert.True(t, res.Partial)
	require.Len(t, res.FailedBranches, 1)
	assert.Equal(t, "ANVT", res.FailedBranches[0].Source)
	assert.Equal(t, toolerr.ErrCodeUpstreamError, res.FailedBranches[0].Error.Code)

	board := res.Data.(*normalize.LiveTrainBoard)
	assert.Len(t, board.Trains, 1)
}

func TestDispatch_Fanout_AllBranchesFail(t *testing.T) {
	f := &fakeProvider{pairErrs: map[string]error{}}
	for _, src := range []string{"NDLS", "ANVT", "DLI", "DEE", "DEC", "SZM"} {
		f.pairErrs[src+"->CNB"] = toolerr.NewUpstreamError(fmt.Sprintf("%s down", src), 503, true)
	}
	d := newTestDispatcher(t, f)

	_, err := d.Dispatch(context.Background(), &Request{
		Op: OpSearchTrains, Source: "Delhi", Destination: "CNB",
	})
	require.Error(t, err)

	te, ok := toolerr.AsToolError(err)
	require.True(t, ok)
	// Aggregate failure is the first branch in issue order, not whichever
	// finished first.
	assert.Contains(t, te.Details, "NDLS down")
}

func TestDispatch_Fanout_BadPayloadIsBranchDataError(t *testing.T) {
	f := &fakeProvider{perPair: map[string][]byte{
		"NDLS->CNB": []byte(`{"data":{"source":"NDLS"}}`), // no trains list
		"ANVT->CNB": liveBoardBody("ANVT", "CNB",
			normalize.LiveTrain{TrainNumber: "12001", ScheduledDeparture: "11:00"}),
	}}
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	d := newTestDispatcher(t, f).WithClock(func() time.Time { return now })

	res, err := d.Dispatch(context.Background(), &Request{
		Op: OpGetLiveStationTrains, Source: "Delhi", Destination: "CNB",
	})
	require.NoError(t, err)

	assert.True(t, res.Partial)
	require.NotEmpty(t, res.FailedBranches)
	assert.Equal(t, toolerr.ErrCodeUpstreamDataInvalid, res.FailedBranches[0].Error.Code)
}

func TestDispatch_DeadlineReturnsPartial(t *testing.T) {
	f := &fakeProvider{block: true}
	d := newTestDispatcher(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := d.Dispatch(ctx, &Request{
		Op: OpSearchTrains, Source: "Delhi", Destination: "CNB",
	})
	// Every branch blocked until the deadline, so nothing was collected and
	// the aggregate is the first branch's error.
	require.Error(t, err)
	te, ok := toolerr.AsToolError(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.ErrCodeUpstreamError, te.Code)
	assert.False(t, te.Retryable)
	assert.Contains(t, te.Details, "context deadline exceeded")
}

func TestDispatch_DeadlinePartialKeepsCollectedSuccesses(t *testing.T) {
	// Delhi -> CNB is 6 branches. NDLS answers immediately; the other five
	// hold until the deadline. The collected success must come back as a
	// partial result with the stalled branches reported, not as an error.
	f := &fakeProvider{
		perPair: map[string][]byte{
			"NDLS->CNB": []byte(`{"data":{"trains":[{"trainNumber":"12004",
				"trainName":"LJN Swarn Shatabdi","departureTime":"06:10"}]}}`),
		},
		blockPairs: map[string]bool{
			"ANVT->CNB": true, "DLI->CNB": true, "DEE->CNB": true,
			"DEC->CNB": true, "SZM->CNB": true,
		},
	}
	d := newTestDispatcher(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	res, err := d.Dispatch(ctx, &Request{
		Op: OpSearchTrains, Source: "Delhi", Destination: "CNB",
	})
	require.NoError(t, err, "a collected success survives the deadline")

	assert.True(t, res.Partial)
	assert.Len(t, res.FailedBranches, 5)
	for _, bf := range res.FailedBranches {
		assert.NotEqual(t, "NDLS", bf.Source)
		assert.False(t, bf.Error.Retryable)
	}

	result := res.Data.(*normalize.TrainSearchResult)
	require.Len(t, result.Trains, 1)
	assert.Equal(t, "12004", result.Trains[0].TrainNumber)
}

func TestDispatch_Fanout_BoundsInFlightBranches(t *testing.T) {
	f := &fakeProvider{block: true}
	d := newTestDispatcher(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	_, _ = d.Dispatch(ctx, &Request{
		Op: OpSearchTrains, Source: "Delhi", Destination: "CNB",
	})

	// 6 branches, but the semaphore admits at most 4 at once. Blocking
	// every call holds tokens to the deadline, so the high-water mark is
	// exactly the bound here.
	assert.LessOrEqual(t, f.maxInFlight(), 4)
	assert.Equal(t, 4, f.maxInFlight())
}

func TestDispatch_SeatAvailability_DedupByTrainAndDate(t *testing.T) {
	body := func(src string) []byte {
		payload := map[string]interface{}{
			"data": map[string]interface{}{
				"trains": []map[string]interface{}{{
					"trainNumber": "12452",
					"trainName":   "Shram Shakti",
					"availability": []map[string]string{
						{"classType": "3A", "date": "15-09-2026", "status": "AVAILABLE 24"},
					},
				}},
			},
		}
		b, _ := json.Marshal(payload)
		return b
	}
	f := &fakeProvider{perPair: map[string][]byte{
		"NDLS->CNB": body("NDLS"),
		"ANVT->CNB": body("ANVT"),
	}}
	d := newTestDispatcher(t, f)

	res, err := d.Dispatch(context.Background(), &Request{
		Op: OpCheckSeatAvailability, Source: "Delhi", Destination: "CNB", Date: "15-09-2026",
	})
	require.NoError(t, err)

	table := res.Data.(*normalize.SeatAvailabilityTable)
	assert.Len(t, table.Options, 1, "same train+date+class from two branches merges to one entry")
}
