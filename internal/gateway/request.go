// Package gateway is the deterministic tool-dispatch core: it validates
// structured operation requests, resolves place names, fans out to the
// upstream provider, and returns typed results or typed errors.
package gateway

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	toolerr "railway-gateway/internal/common/errors"
)

// Operation is the closed set of railway operations the gateway serves.
type Operation string

const (
	OpGetPNRStatus          Operation = "get_pnr_status"
	OpResolveStationCode    Operation = "resolve_station_code"
	OpGetLiveStationTrains  Operation = "get_live_station_trains"
	OpGetTrainSchedule      Operation = "get_train_schedule"
	OpGetFare               Operation = "get_fare"
	OpGetLiveTrainStatus    Operation = "get_live_train_status"
	OpCheckSeatAvailability Operation = "check_seat_availability"
	OpSearchTrains          Operation = "search_trains"
)

// Operations returns all operations in contract order. Adding an operation
// means extending this list, the contract table, and the handler map; the
// dispatcher constructor cross-checks all three.
func Operations() []Operation {
	return []Operation{
		OpGetPNRStatus,
		OpResolveStationCode,
		OpGetLiveStationTrains,
		OpGetTrainSchedule,
		OpGetFare,
		OpGetLiveTrainStatus,
		OpCheckSeatAvailability,
		OpSearchTrains,
	}
}

// DateLayout is the provider's journey-date format (DD-MM-YYYY).
const DateLayout = "02-01-2006"

var (
	pnrPattern         = regexp.MustCompile(`^\d{10}$`)
	trainNumberPattern = regexp.MustCompile(`^\d{4,5}$`)
)

// Request is the tagged union over the eight operations. Op selects which
// argument fields are meaningful; Validate enforces per-operation shape
// before any I/O.
type Request struct {
	Op          Operation `json:"operation"`
	PNR         string    `json:"pnr,omitempty"`
	Name        string    `json:"name,omitempty"`
	TrainNumber string    `json:"train_number,omitempty"`
	Source      string    `json:"source,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Date        string    `json:"date,omitempty"`
	Hours       int       `json:"hours,omitempty"`
}

// ParseRequest validates raw arguments against the operation's schema, then
// binds and applies the per-operation business rules. A failure here is
// always a ValidationError and never reaches the network.
func ParseRequest(opName string, args []byte) (*Request, error) {
	op := Operation(opName)
	if err := validateArguments(op, args); err != nil {
		return nil, err
	}

	req := &Request{Op: op}
	if err := json.Unmarshal(args, req); err != nil {
		return nil, toolerr.NewValidationError("bind arguments: " + err.Error())
	}
	req.Op = op // Unmarshal must not let a spoofed "operation" field win.

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks argument shape for the request's operation.
func (r *Request) Validate() error {
	switch r.Op {
	case OpGetPNRStatus:
		if !pnrPattern.MatchString(r.PNR) {
			return toolerr.NewValidationError(fmt.Sprintf("pnr must be exactly 10 digits, got %q", r.PNR))
		}

	case OpResolveStationCode:
		if r.Name == "" {
			return toolerr.NewValidationError("name is required")
		}

	case OpGetLiveStationTrains:
		if err := requireStations(r.Source, r.Destination); err != nil {
			return err
		}
		// 0 means unset and falls back to the configured default window;
		// the published schema requires 1-24 when the field is present.
		if r.Hours < 0 || r.Hours > 24 {
			return toolerr.NewValidationError(fmt.Sprintf("hours must be 0 (default) or between 1 and 24, got %d", r.Hours))
		}

	case OpGetTrainSchedule:
		return validTrainNumber(r.TrainNumber)

	case OpGetFare:
		if err := validTrainNumber(r.TrainNumber); err != nil {
			return err
		}
		if err := requireStations(r.Source, r.Destination); err != nil {
			return err
		}
		return validOptionalDate(r.Date)

	case OpGetLiveTrainStatus:
		if err := validTrainNumber(r.TrainNumber); err != nil {
			return err
		}
		return validOptionalDate(r.Date)

	case OpCheckSeatAvailability:
		if err := requireStations(r.Source, r.Destination); err != nil {
			return err
		}
		if r.Date == "" {
			return toolerr.NewValidationError("date is required")
		}
		if err := validOptionalDate(r.Date); err != nil {
			return err
		}
		if r.TrainNumber != "" {
			return validTrainNumber(r.TrainNumber)
		}

	case OpSearchTrains:
		if err := requireStations(r.Source, r.Destination); err != nil {
			return err
		}
		return validOptionalDate(r.Date)

	default:
		return toolerr.NewValidationError(fmt.Sprintf("unknown operation %q", r.Op))
	}
	return nil
}

func requireStations(source, destination string) error {
	if source == "" || destination == "" {
		return toolerr.NewValidationError("source and destination are required")
	}
	return nil
}

func validTrainNumber(n string) error {
	if !trainNumberPattern.MatchString(n) {
		return toolerr.NewValidationError(fmt.Sprintf("train_number must be 4 or 5 digits, got %q", n))
	}
	return nil
}

func validOptionalDate(d string) error {
	if d == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, d); err != nil {
		return toolerr.NewValidationError(fmt.Sprintf("date must be DD-MM-YYYY, got %q", d))
	}
	return nil
}
