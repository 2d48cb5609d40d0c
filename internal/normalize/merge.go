package normalize

// Fan-out merge rules: branch record lists are concatenated in issue order,
// then deduplicated by TrainRef. The duplicate with the fewest empty fields
// wins; on a tie the earlier issue-order sighting stays. Callers must pass
// branches already sorted by issue order, not completion order.

// MergeLiveBoards merges per-branch live boards. Dedup key is the train
// number alone; the name is descriptive only.
func MergeLiveBoards(source, destination string, branches []*LiveTrainBoard) *LiveTrainBoard {
	out := &LiveTrainBoard{Source: source, Destination: destination, Trains: []LiveTrain{}}
	seen := make(map[string]int) // train number -> index in out.Trains

	for _, b := range branches {
		if b == nil {
			continue
		}
		for _, t := range b.Trains {
			if idx, ok := seen[t.TrainNumber]; ok {
				if liveTrainCompleteness(t) > liveTrainCompleteness(out.Trains[idx]) {
					out.Trains[idx] = t
				}
				continue
			}
			seen[t.TrainNumber] = len(out.Trains)
			out.Trains = append(out.Trains, t)
		}
	}
	return out
}

// MergeSearchResults merges per-branch search results, keyed by train number.
func MergeSearchResults(source, destination string, branches []*TrainSearchResult) *TrainSearchResult {
	out := &TrainSearchResult{Source: source, Destination: destination, Trains: []TrainSummary{}}
	seen := make(map[string]int)

	for _, b := range branches {
		if b == nil {
			continue
		}
		for _, t := range b.Trains {
			if idx, ok := seen[t.TrainNumber]; ok {
				if trainSummaryCompleteness(t) > trainSummaryCompleteness(out.Trains[idx]) {
					out.Trains[idx] = t
				}
				continue
			}
			seen[t.TrainNumber] = len(out.Trains)
			out.Trains = append(out.Trains, t)
		}
	}
	return out
}

// MergeSeatTables merges per-branch availability tables. The same train on
// different dates is distinct, so the key is number plus date.
func MergeSeatTables(source, destination, date string, branches []*SeatAvailabilityTable) *SeatAvailabilityTable {
	out := &SeatAvailabilityTable{Source: source, Destination: destination, Date: date, Options: []SeatOption{}}
	seen := make(map[string]int) // number|date|class -> index

	for _, b := range branches {
		if b == nil {
			continue
		}
		for _, o := range b.Options {
			key := o.TrainNumber + "|" + o.Date + "|" + o.Class
			if idx, ok := seen[key]; ok {
				if seatOptionCompleteness(o) > seatOptionCompleteness(out.Options[idx]) {
					out.Options[idx] = o
				}
				continue
			}
			seen[key] = len(out.Options)
			out.Options = append(out.Options, o)
		}
	}
	return out
}

// Completeness counts non-empty fields. Defaulted fields still count; the
// comparison only has to prefer records the provider actually filled in.

func liveTrainCompleteness(t LiveTrain) int {
	return countNonEmpty(t.TrainNumber, t.TrainName, t.ScheduledDeparture, t.ExpectedDeparture, t.Delay, t.Platform)
}

func trainSummaryCompleteness(t TrainSummary) int {
	n := countNonEmpty(t.TrainNumber, t.TrainName, t.Departure, t.Arrival, t.Duration)
	if len(t.RunDays) > 0 {
		n++
	}
	return n
}

func seatOptionCompleteness(o SeatOption) int {
	return countNonEmpty(o.TrainNumber, o.TrainName, o.Class, o.Date, o.Status)
}

func countNonEmpty(fields ...string) int {
	n := 0
	for _, f := range fields {
		if f != "" {
			n++
		}
	}
	return n
}
