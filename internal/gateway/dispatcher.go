package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"railway-gateway/internal/common/config"
	toolerr "railway-gateway/internal/common/errors"
	"railway-gateway/internal/common/logger"
	"railway-gateway/internal/common/metrics"
	"railway-gateway/internal/common/observability"
	"railway-gateway/internal/normalize"
	"railway-gateway/internal/stations"
)

// Provider is the upstream call surface the dispatcher fans out over.
// provider.Client implements it; tests substitute fakes.
type Provider interface {
	PNRStatus(ctx context.Context, pnr string) ([]byte, error)
	LiveStation(ctx context.Context, source, destination string, hours int) ([]byte, error)
	TrainSchedule(ctx context.Context, trainNumber string) ([]byte, error)
	Fare(ctx context.Context, trainNumber, source, destination, date string) ([]byte, error)
	LiveTrainStatus(ctx context.Context, trainNumber, date string) ([]byte, error)
	SeatAvailability(ctx context.Context, source, destination, date, trainNumber string) ([]byte, error)
	SearchTrains(ctx context.Context, source, destination, date string) ([]byte, error)
}

// Result is the success side of a dispatch. Data holds the operation's
// normalized record; a Result and an error are never returned together.
type Result struct {
	Operation      Operation       `json:"operation"`
	RequestID      string          `json:"requestId"`
	Data           interface{}     `json:"data"`
	Partial        bool            `json:"partial,omitempty"`
	FailedBranches []BranchFailure `json:"failedBranches,omitempty"`
}

// BranchFailure reports one fan-out branch that did not contribute to the
// merged result. Degraded results carry these rather than hiding them.
type BranchFailure struct {
	Source      string             `json:"source"`
	Destination string             `json:"destination"`
	Error       *toolerr.ToolError `json:"error"`
}

// StationCodeList is the resolve_station_code result payload.
type StationCodeList struct {
	Name  string   `json:"name"`
	Codes []string `json:"codes"`
}

type handlerFunc func(ctx context.Context, req *Request) (interface{}, []BranchFailure, error)

// Dispatcher validates, resolves, fans out, merges. It holds only
// read-only state after construction and is safe for concurrent use.
type Dispatcher struct {
	stations      *stations.Directory
	provider      Provider
	handlers      map[Operation]handlerFunc
	maxInFlight   int
	defaultWindow int
	timeout       time.Duration
	now           func() time.Time
	obs           *observability.Observability
	logger        logger.Logger
}

func New(dir *stations.Directory, prov Provider, cfg config.GatewayConfig, log logger.Logger) *Dispatcher {
	d := &Dispatcher{
		stations:      dir,
		provider:      prov,
		maxInFlight:   cfg.MaxInFlight,
		defaultWindow: cfg.DefaultWindow,
		timeout:       cfg.DispatchTimeoutDuration(),
		now:           time.Now,
		logger:        log.With(map[string]interface{}{"component": "dispatcher"}),
	}

	d.handlers = map[Operation]handlerFunc{
		OpGetPNRStatus:          d.handlePNRStatus,
		OpResolveStationCode:    d.handleResolveStationCode,
		OpGetLiveStationTrains:  d.handleLiveStationTrains,
		OpGetTrainSchedule:      d.handleTrainSchedule,
		OpGetFare:               d.handleFare,
		OpGetLiveTrainStatus:    d.handleLiveTrainStatus,
		OpCheckSeatAvailability: d.handleSeatAvailability,
		OpSearchTrains:          d.handleSearchTrains,
	}

	// The operation set is closed: every operation must have a handler and
	// a contract entry. A mismatch is a construction bug, caught here.
	for _, op := range Operations() {
		if _, ok := d.handlers[op]; !ok {
			panic(fmt.Sprintf("gateway: operation %s has no handler", op))
		}
		if _, ok := toolDefinitions[op]; !ok {
			panic(fmt.Sprintf("gateway: operation %s has no contract definition", op))
		}
	}

	return d
}

// WithClock fixes the dispatcher's notion of "now". Tests use it to pin the
// time-window filter.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// WithObservability attaches the otel meter.
func (d *Dispatcher) WithObservability(obs *observability.Observability) *Dispatcher {
	d.obs = obs
	return d
}

// Dispatch runs one validated request to completion: a typed Result or a
// typed error, never both, and never a panic across this boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		metrics.DispatchesTotal.WithLabelValues(string(req.Op), "validation_error").Inc()
		return nil, err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	log := d.logger.With(map[string]interface{}{
		"requestId": requestID,
		"operation": string(req.Op),
	})
	log.Info("dispatching request", nil)

	start := time.Now()
	data, failed, err := d.handlers[req.Op](ctx, req)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = string(toolerr.Kind(err))
	} else if len(failed) > 0 {
		status = "partial"
	}
	metrics.DispatchesTotal.WithLabelValues(string(req.Op), status).Inc()
	metrics.DispatchDuration.WithLabelValues(string(req.Op)).Observe(elapsed.Seconds())
	if d.obs != nil {
		d.obs.RecordDispatch(ctx, string(req.Op), status)
		d.obs.RecordDispatchDuration(ctx, elapsed, string(req.Op))
	}

	if err != nil {
		log.WithError(err).Warn("dispatch failed", map[string]interface{}{
			"errorCode": string(toolerr.Kind(err)),
		})
		return nil, err
	}

	log.Info("dispatch complete", map[string]interface{}{
		"durationMs":     elapsed.Milliseconds(),
		"failedBranches": len(failed),
	})

	return &Result{
		Operation:      req.Op,
		RequestID:      requestID,
		Data:           data,
		Partial:        len(failed) > 0,
		FailedBranches: failed,
	}, nil
}

// ==========================
// Single-target operations
// ==========================

func (d *Dispatcher) handlePNRStatus(ctx context.Context, req *Request) (interface{}, []BranchFailure, error) {
	raw, err := d.provider.PNRStatus(ctx, req.PNR)
	if err != nil {
		return nil, nil, err
	}
	rec, err := normalize.PNRStatus(req.PNR, raw)
	if err != nil {
		return nil, nil, err
	}
	return rec, nil, nil
}

func (d *Dispatcher) handleResolveStationCode(_ context.Context, req *Request) (interface{}, []BranchFailure, error) {
	// Resolver only. This operation never touches the network.
	codes, err := d.stations.Resolve(req.Name)
	if err != nil {
		return nil, nil, err
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return &StationCodeList{Name: req.Name, Codes: out}, nil, nil
}

func (d *Dispatcher) handleTrainSchedule(ctx context.Context, req *Request) (interface{}, []BranchFailure, error) {
	raw, err := d.provider.TrainSchedule(ctx, req.TrainNumber)
	if err != nil {
		return nil, nil, err
	}
	sched, err := normalize.Schedule(raw)
	if err != nil {
		return nil, nil, err
	}
	return sched, nil, nil
}

func (d *Dispatcher) handleFare(ctx context.Context, req *Request) (interface{}, []BranchFailure, error) {
	// Single-target: a city name collapses to its first-ranked code.
	src, err := d.stations.ResolveFirst(req.Source)
	if err != nil {
		return nil, nil, err
	}
	dst, err := d.stations.ResolveFirst(req.Destination)
	if err != nil {
		return nil, nil, err
	}

	raw, err := d.provider.Fare(ctx, req.TrainNumber, string(src), string(dst), req.Date)
	if err != nil {
		return nil, nil, err
	}
	table, err := normalize.Fare(req.TrainNumber, string(src), string(dst), req.Date, raw)
	if err != nil {
		return nil, nil, err
	}
	return table, nil, nil
}

func (d *Dispatcher) handleLiveTrainStatus(ctx context.Context, req *Request) (interface{}, []BranchFailure, error) {
	raw, err := d.provider.LiveTrainStatus(ctx, req.TrainNumber, req.Date)
	if err != nil {
		return nil, nil, err
	}
	rec, err := normalize.LiveStatus(raw)
	if err != nil {
		return nil, nil, err
	}
	return rec, nil, nil
}

// ==========================
// Fan-out operations
// ==========================

func (d *Dispatcher) handleLiveStationTrains(ctx context.Context, req *Request) (interface{}, []BranchFailure, error) {
	hours := req.Hours
	if hours == 0 {
		hours = d.defaultWindow
	}

	branches, err := d.pairBranches(req.Source, req.Destination)
	if err != nil {
		return nil, nil, err
	}

	outcomes := d.fanOut(ctx, OpGetLiveStationTrains, branches, func(ctx context.Context, b branch) ([]byte, error) {
		return d.provider.LiveStation(ctx, string(b.source), string(b.dest), hours)
	})

	boards := make([]*normalize.LiveTrainBoard, len(outcomes))
	failed := collectBranches(OpGetLiveStationTrains, outcomes, func(i int, raw []byte) error {
		board, nerr := normalize.LiveStation(raw)
		if nerr != nil {
			return nerr
		}
		boards[i] = board
		return nil
	})
	if err := aggregateError(outcomes, failed); err != nil {
		return nil, nil, err
	}

	merged := normalize.MergeLiveBoards(req.Source, req.Destination, boards)
	filtered := filterBoardByWindow(merged, d.now(), hours)
	return filtered, failed, nil
}

func (d *Dispatcher) handleSeatAvailability(ctx context.Context, req *Request) (interface{}, []BranchFailure, error) {
	branches, err := d.pairBranches(req.Source, req.Destination)
	if err != nil {
		return nil, nil, err
	}

	outcomes := d.fanOut(ctx, OpCheckSeatAvailability, branches, func(ctx context.Context, b branch) ([]byte, error) {
		return d.provider.SeatAvailability(ctx, string(b.source), string(b.dest), req.Date, req.TrainNumber)
	})

	tables := make([]*normalize.SeatAvailabilityTable, len(outcomes))
	failed := collectBranches(OpCheckSeatAvailability, outcomes, func(i int, raw []byte) error {
		table, nerr := normalize.SeatAvailability(string(outcomes[i].source), string(outcomes[i].dest), req.Date, raw)
		if nerr != nil {
			return nerr
		}
		tables[i] = table
		return nil
	})
	if err := aggregateError(outcomes, failed); err != nil {
		return nil, nil, err
	}

	return normalize.MergeSeatTables(req.Source, req.Destination, req.Date, tables), failed, nil
}

func (d *Dispatcher) handleSearchTrains(ctx context.Context, req *Request) (interface{}, []BranchFailure, error) {
	branches, err := d.pairBranches(req.Source, req.Destination)
	if err != nil {
		return nil, nil, err
	}

	outcomes := d.fanOut(ctx, OpSearchTrains, branches, func(ctx context.Context, b branch) ([]byte, error) {
		return d.provider.SearchTrains(ctx, string(b.source), string(b.dest), req.Date)
	})

	results := make([]*normalize.TrainSearchResult, len(outcomes))
	failed := collectBranches(OpSearchTrains, outcomes, func(i int, raw []byte) error {
		res, nerr := normalize.SearchTrains(string(outcomes[i].source), string(outcomes[i].dest), raw)
		if nerr != nil {
			return nerr
		}
		results[i] = res
		return nil
	})
	if err := aggregateError(outcomes, failed); err != nil {
		return nil, nil, err
	}

	return normalize.MergeSearchResults(req.Source, req.Destination, results), failed, nil
}

// ==========================
// Fan-out machinery
// ==========================

// branch is one upstream call against one resolved station pair. index is
// the fixed issue-order position that the merge tie-break keys on.
type branch struct {
	index  int
	source stations.Code
	dest   stations.Code
}

type branchOutcome struct {
	branch
	raw []byte
	err error
}

// pairBranches resolves source and destination independently and builds all
// pairwise combinations in source-major, destination-minor issue order.
// Resolution failure aborts the whole request; no branch is issued.
func (d *Dispatcher) pairBranches(source, destination string) ([]branch, error) {
	srcs, err := d.stations.Resolve(source)
	if err != nil {
		return nil, err
	}
	dsts, err := d.stations.Resolve(destination)
	if err != nil {
		return nil, err
	}

	branches := make([]branch, 0, len(srcs)*len(dsts))
	for _, s := range srcs {
		for _, t := range dsts {
			branches = append(branches, branch{index: len(branches), source: s, dest: t})
		}
	}
	return branches, nil
}

// fanOut issues every branch concurrently, bounded by maxInFlight; excess
// branches wait for a token rather than spawning unboundedly. Outcome slots
// are indexed by issue order so downstream merging is deterministic no
// matter which branch completes first. On deadline expiry the still-pending
// branches are marked abandoned and whatever arrived so far is returned.
func (d *Dispatcher) fanOut(ctx context.Context, op Operation, branches []branch, call func(context.Context, branch) ([]byte, error)) []branchOutcome {
	outcomes := make([]branchOutcome, len(branches))
	results := make(chan branchOutcome, len(branches))
	sem := make(chan struct{}, d.maxInFlight)

	for _, b := range branches {
		go func(b branch) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- branchOutcome{branch: b, err: abandonedError(ctx)}
				return
			}
			raw, err := call(ctx, b)
			results <- branchOutcome{branch: b, raw: raw, err: err}
		}(b)
	}

	filled := make([]bool, len(branches))
	for received := 0; received < len(branches); received++ {
		select {
		case o := <-results:
			outcomes[o.index] = o
			filled[o.index] = true
			outcome := "success"
			if o.err != nil {
				outcome = string(toolerr.Kind(o.err))
			}
			metrics.FanoutBranchesTotal.WithLabelValues(string(op), outcome).Inc()
		case <-ctx.Done():
			// Late results land in the buffered channel and are discarded.
			for i := range outcomes {
				if !filled[i] {
					outcomes[i] = branchOutcome{branch: branches[i], err: abandonedError(ctx)}
					metrics.FanoutBranchesTotal.WithLabelValues(string(op), "abandoned").Inc()
				}
			}
			return outcomes
		}
	}
	return outcomes
}

func abandonedError(ctx context.Context) *toolerr.ToolError {
	return toolerr.NewUpstreamError(fmt.Sprintf("branch abandoned: %v", ctx.Err()), 0, false)
}

// collectBranches walks outcomes in issue order, normalizing successful
// payloads via accept and turning every failure (transport or data) into a
// BranchFailure. accept stores the normalized record at the branch's slot.
func collectBranches(op Operation, outcomes []branchOutcome, accept func(i int, raw []byte) error) []BranchFailure {
	var failed []BranchFailure
	for i, o := range outcomes {
		err := o.err
		if err == nil {
			err = accept(i, o.raw)
		}
		if err != nil {
			te, ok := toolerr.AsToolError(err)
			if !ok {
				te = toolerr.NewUpstreamError(err.Error(), 0, false)
			}
			failed = append(failed, BranchFailure{
				Source:      string(o.source),
				Destination: string(o.dest),
				Error:       te,
			})
		}
	}
	return failed
}

// aggregateError returns the first branch's error (in issue order) when no
// branch succeeded; with at least one success the caller reports a partial
// result instead.
func aggregateError(outcomes []branchOutcome, failed []BranchFailure) error {
	if len(failed) < len(outcomes) {
		return nil
	}
	if len(failed) == 0 {
		return nil
	}
	return failed[0].Error
}
