package gateway

import (
	"time"

	"railway-gateway/internal/normalize"
)

// withinWindow reports whether departure is no later than now plus the
// window. The upper bound is closed: a departure exactly at now+hours is
// included. There is deliberately no lower bound; trains that already left
// are a provider concern, not this filter's.
func withinWindow(departure, now time.Time, hours int) bool {
	return !departure.After(now.Add(time.Duration(hours) * time.Hour))
}

// filterBoardByWindow drops live-board entries whose scheduled departure is
// outside the window. Departure times arrive as clock times ("HH:MM") and
// are anchored to now's date; entries that do not parse stay in, since the
// filter may only exclude what it can prove out of window.
func filterBoardByWindow(board *normalize.LiveTrainBoard, now time.Time, hours int) *normalize.LiveTrainBoard {
	kept := make([]normalize.LiveTrain, 0, len(board.Trains))
	for _, t := range board.Trains {
		dep, ok := anchorClockTime(t.ScheduledDeparture, now)
		if ok && !withinWindow(dep, now, hours) {
			continue
		}
		kept = append(kept, t)
	}
	board.Trains = kept
	return board
}

// anchorClockTime parses "HH:MM" onto now's date in now's location.
func anchorClockTime(clock string, now time.Time) (time.Time, bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), true
}
