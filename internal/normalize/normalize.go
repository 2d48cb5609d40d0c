package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	toolerr "railway-gateway/internal/common/errors"
)

// envelope is the provider's standard response wrapper.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// unwrap pulls the data object out of the provider envelope. A missing or
// empty data field means the transport worked but the payload is unusable.
func unwrap(operation string, raw []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, toolerr.NewUpstreamDataError(operation, fmt.Sprintf("undecodable body: %v", err))
	}
	trimmed := strings.TrimSpace(string(env.Data))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" || trimmed == "[]" {
		return nil, toolerr.NewUpstreamDataError(operation, "empty data field")
	}
	return env.Data, nil
}

// ==========================
// PNR Status
// ==========================

func PNRStatus(pnr string, raw []byte) (*PNRRecord, error) {
	const op = "get_pnr_status"

	data, err := unwrap(op, raw)
	if err != nil {
		return nil, err
	}

	var payload struct {
		TrainName     string `json:"trainName"`
		TrainNumber   string `json:"trainNumber"`
		DOJ           string `json:"doj"`
		DepartureTime string `json:"departureTime"`
		ArrivalTime   string `json:"arrivalTime"`
		From          string `json:"from"`
		To            string `json:"to"`
		Duration      string `json:"duration"`
		Passengers    []struct {
			CurrentStatus string `json:"currentStatus"`
		} `json:"passengers"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, toolerr.NewUpstreamDataError(op, fmt.Sprintf("undecodable data: %v", err))
	}

	if len(payload.Passengers) == 0 {
		return nil, toolerr.NewUpstreamDataError(op, "missing passenger status")
	}

	statuses := make([]string, 0, len(payload.Passengers))
	for _, p := range payload.Passengers {
		if p.CurrentStatus == "" {
			return nil, toolerr.NewUpstreamDataError(op, "missing passenger status")
		}
		statuses = append(statuses, p.CurrentStatus)
	}

	return &PNRRecord{
		PNR:             pnr,
		TrainNumber:     payload.TrainNumber,
		TrainName:       payload.TrainName,
		DateOfJourney:   payload.DOJ,
		DepartureTime:   payload.DepartureTime,
		ArrivalTime:     payload.ArrivalTime,
		FromStation:     payload.From,
		ToStation:       payload.To,
		Duration:        payload.Duration,
		PassengerStatus: statuses,
	}, nil
}

// ==========================
// Live Station Board
// ==========================

func LiveStation(raw []byte) (*LiveTrainBoard, error) {
	const op = "get_live_station_trains"

	data, err := unwrap(op, raw)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
		Trains      []struct {
			TrainNumber        string `json:"trainNumber"`
			TrainName          string `json:"trainName"`
			ScheduledDeparture string `json:"scheduledDeparture"`
			ExpectedDeparture  string `json:"expectedDeparture"`
			Delay              string `json:"delay"`
			Platform           string `json:"platform"`
		} `json:"trains"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, toolerr.NewUpstreamDataError(op, fmt.Sprintf("undecodable data: %v", err))
	}
	if payload.Trains == nil {
		return nil, toolerr.NewUpstreamDataError(op, "missing trains list")
	}

	board := &LiveTrainBoard{
		Source:      payload.Source,
		Destination: payload.Destination,
		Trains:      make([]LiveTrain, 0, len(payload.Trains)),
	}
	for _, t := range payload.Trains {
		if t.TrainNumber == "" {
			return nil, toolerr.NewUpstreamDataError(op, "train entry without number")
		}
		board.Trains = append(board.Trains, LiveTrain{
			TrainNumber:        t.TrainNumber,
			TrainName:          t.TrainName,
			ScheduledDeparture: t.ScheduledDeparture,
			ExpectedDeparture:  t.ExpectedDeparture,
			Delay:              defaultString(t.Delay, "On Time"),
			Platform:           defaultString(t.Platform, "TBD"),
		})
	}
	return board, nil
}

// ==========================
// Train Schedule
// ==========================

func Schedule(raw []byte) (*TrainSchedule, error) {
	const op = "get_train_schedule"

	data, err := unwrap(op, raw)
	if err != nil {
		return nil, err
	}

	var payload struct {
		TrainNumber string `json:"trainNumber"`
		TrainName   string `json:"trainName"`
		Route       []struct {
			StationCode string `json:"stationCode"`
			StationName string `json:"stationName"`
			Arrival     string `json:"arrivalTime"`
			Departure   string `json:"departureTime"`
			Day         int    `json:"day"`
			Distance    string `json:"distance"`
		} `json:"route"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, toolerr.NewUpstreamDataError(op, fmt.Sprintf("undecodable data: %v", err))
	}
	if payload.TrainNumber == "" || len(payload.Route) == 0 {
		return nil, toolerr.NewUpstreamDataError(op, "missing train number or route")
	}

	sched := &TrainSchedule{
		TrainNumber: payload.TrainNumber,
		TrainName:   payload.TrainName,
		Stops:       make([]ScheduleStop, 0, len(payload.Route)),
	}
	for _, s := range payload.Route {
		sched.Stops = append(sched.Stops, ScheduleStop{
			StationCode: s.StationCode,
			StationName: s.StationName,
			Arrival:     s.Arrival,
			Departure:   s.Departure,
			Day:         s.Day,
			DistanceKM:  s.Distance,
		})
	}
	return sched, nil
}

// ==========================
// Fare Enquiry
// ==========================

func Fare(trainNumber, source, destination, date string, raw []byte) (*FareTable, error) {
	const op = "get_fare"

	data, err := unwrap(op, raw)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Fares []struct {
			ClassType string `json:"classType"`
			Fare      string `json:"fare"`
		} `json:"fares"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, toolerr.NewUpstreamDataError(op, fmt.Sprintf("undecodable data: %v", err))
	}
	if len(payload.Fares) == 0 {
		return nil, toolerr.NewUpstreamDataError(op, "missing fares list")
	}

	table := &FareTable{
		TrainNumber: trainNumber,
		Source:      source,
		Destination: destination,
		Date:        date,
		Fares:       make([]ClassFare, 0, len(payload.Fares)),
	}
	for _, f := range payload.Fares {
		table.Fares = append(table.Fares, ClassFare{Class: f.ClassType, Fare: f.Fare})
	}
	return table, nil
}

// ==========================
// Live Train Status
// ==========================

func LiveStatus(raw []byte) (*LiveStatusRecord, error) {
	const op = "get_live_train_status"

	data, err := unwrap(op, raw)
	if err != nil {
		return nil, err
	}

	var payload struct {
		TrainNumber    string `json:"trainNumber"`
		TrainName      string `json:"trainName"`
		CurrentStation string `json:"currentStation"`
		Delay          int    `json:"delay"`
		LastUpdated    string `json:"lastUpdated"`
		Position       string `json:"position"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, toolerr.NewUpstreamDataError(op, fmt.Sprintf("undecodable data: %v", err))
	}
	if payload.TrainNumber == "" {
		return nil, toolerr.NewUpstreamDataError(op, "missing train number")
	}

	return &LiveStatusRecord{
		TrainNumber:    payload.TrainNumber,
		TrainName:      payload.TrainName,
		CurrentStation: payload.CurrentStation,
		DelayMinutes:   payload.Delay,
		LastUpdated:    payload.LastUpdated,
		Position:       payload.Position,
	}, nil
}

// ==========================
// Seat Availability
// ==========================

func SeatAvailability(source, destination, date string, raw []byte) (*SeatAvailabilityTable, error) {
	const op = "check_seat_availability"

	data, err := unwrap(op, raw)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Trains []struct {
			TrainNumber  string `json:"trainNumber"`
			TrainName    string `json:"trainName"`
			Availability []struct {
				ClassType string `json:"classType"`
				Date      string `json:"date"`
				Status    string `json:"status"`
			} `json:"availability"`
		} `json:"trains"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, toolerr.NewUpstreamDataError(op, fmt.Sprintf("undecodable data: %v", err))
	}
	if payload.Trains == nil {
		return nil, toolerr.NewUpstreamDataError(op, "missing trains list")
	}

	table := &SeatAvailabilityTable{Source: source, Destination: destination, Date: date}
	for _, t := range payload.Trains {
		if t.TrainNumber == "" {
			return nil, toolerr.NewUpstreamDataError(op, "train entry without number")
		}
		for _, a := range t.Availability {
			table.Options = append(table.Options, SeatOption{
				TrainNumber: t.TrainNumber,
				TrainName:   t.TrainName,
				Class:       a.ClassType,
				Date:        defaultString(a.Date, date),
				Status:      a.Status,
			})
		}
	}
	return table, nil
}

// ==========================
// Train Search
// ==========================

func SearchTrains(source, destination string, raw []byte) (*TrainSearchResult, error) {
	const op = "search_trains"

	data, err := unwrap(op, raw)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Trains []struct {
			TrainNumber string   `json:"trainNumber"`
			TrainName   string   `json:"trainName"`
			Departure   string   `json:"departureTime"`
			Arrival     string   `json:"arrivalTime"`
			Duration    string   `json:"duration"`
			RunDays     []string `json:"runDays"`
		} `json:"trains"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, toolerr.NewUpstreamDataError(op, fmt.Sprintf("undecodable data: %v", err))
	}
	if payload.Trains == nil {
		return nil, toolerr.NewUpstreamDataError(op, "missing trains list")
	}

	result := &TrainSearchResult{
		Source:      source,
		Destination: destination,
		Trains:      make([]TrainSummary, 0, len(payload.Trains)),
	}
	for _, t := range payload.Trains {
		if t.TrainNumber == "" {
			return nil, toolerr.NewUpstreamDataError(op, "train entry without number")
		}
		result.Trains = append(result.Trains, TrainSummary{
			TrainNumber: t.TrainNumber,
			TrainName:   t.TrainName,
			Departure:   t.Departure,
			Arrival:     t.Arrival,
			Duration:    t.Duration,
			RunDays:     t.RunDays,
		})
	}
	return result, nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
