// Package normalize maps heterogeneous upstream payloads into the uniform
// result records the gateway returns, and merges fan-out branches.
package normalize

// PNRRecord is the normalized booking-status payload.
type PNRRecord struct {
	PNR             string   `json:"pnr"`
	TrainNumber     string   `json:"trainNumber"`
	TrainName       string   `json:"trainName"`
	DateOfJourney   string   `json:"dateOfJourney"`
	DepartureTime   string   `json:"departureTime"`
	ArrivalTime     string   `json:"arrivalTime"`
	FromStation     string   `json:"fromStation"`
	ToStation       string   `json:"toStation"`
	Duration        string   `json:"duration"`
	PassengerStatus []string `json:"passengerStatus"`
}

// LiveTrain is one departure on a live station board.
type LiveTrain struct {
	TrainNumber        string `json:"trainNumber"`
	TrainName          string `json:"trainName"`
	ScheduledDeparture string `json:"scheduledDeparture"`
	ExpectedDeparture  string `json:"expectedDeparture"`
	Delay              string `json:"delay"`
	Platform           string `json:"platform"`
}

// LiveTrainBoard is the normalized live-trains-between-stations payload.
// After a fan-out merge, Source and Destination carry the caller's original
// arguments rather than a single branch's station pair.
type LiveTrainBoard struct {
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Trains      []LiveTrain `json:"trains"`
}

// ScheduleStop is one halt on a train's route.
type ScheduleStop struct {
	StationCode string `json:"stationCode"`
	StationName string `json:"stationName"`
	Arrival     string `json:"arrival"`
	Departure   string `json:"departure"`
	Day         int    `json:"day"`
	DistanceKM  string `json:"distanceKm"`
}

// TrainSchedule is the normalized full-route payload.
type TrainSchedule struct {
	TrainNumber string         `json:"trainNumber"`
	TrainName   string         `json:"trainName"`
	Stops       []ScheduleStop `json:"stops"`
}

// ClassFare is the fare for one travel class.
type ClassFare struct {
	Class string `json:"class"`
	Fare  string `json:"fare"`
}

// FareTable is the normalized fare-enquiry payload.
type FareTable struct {
	TrainNumber string      `json:"trainNumber"`
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Date        string      `json:"date,omitempty"`
	Fares       []ClassFare `json:"fares"`
}

// LiveStatusRecord is the normalized running-status payload.
type LiveStatusRecord struct {
	TrainNumber    string `json:"trainNumber"`
	TrainName      string `json:"trainName"`
	CurrentStation string `json:"currentStation"`
	DelayMinutes   int    `json:"delayMinutes"`
	LastUpdated    string `json:"lastUpdated"`
	Position       string `json:"position"`
}

// SeatOption is one train/class/date availability entry.
type SeatOption struct {
	TrainNumber string `json:"trainNumber"`
	TrainName   string `json:"trainName"`
	Class       string `json:"class"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

// SeatAvailabilityTable is the normalized seat-availability payload.
type SeatAvailabilityTable struct {
	Source      string       `json:"source"`
	Destination string       `json:"destination"`
	Date        string       `json:"date"`
	Options     []SeatOption `json:"options"`
}

// TrainSummary is one train in a between-stations search result.
type TrainSummary struct {
	TrainNumber string   `json:"trainNumber"`
	TrainName   string   `json:"trainName"`
	Departure   string   `json:"departure"`
	Arrival     string   `json:"arrival"`
	Duration    string   `json:"duration"`
	RunDays     []string `json:"runDays,omitempty"`
}

// TrainSearchResult is the normalized train-search payload.
type TrainSearchResult struct {
	Source      string         `json:"source"`
	Destination string         `json:"destination"`
	Trains      []TrainSummary `json:"trains"`
}
