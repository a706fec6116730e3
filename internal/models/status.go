package models

import "encoding/json"

// ConnectivityStatus summarises how many ticker positions resolved in a cycle
type ConnectivityStatus int

const (
	StatusConnected ConnectivityStatus = iota
	StatusPartial
	StatusDisconnected
)

func (s ConnectivityStatus) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusPartial:
		return "partial"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string name
func (s ConnectivityStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ConnectivityFromCounts derives the status from ticker resolution counts.
// No failures is Connected (including zero tickers); no successes with at
// least one failure is Disconnected.
func ConnectivityFromCounts(succeeded, failed int) ConnectivityStatus {
	switch {
	case failed == 0:
		return StatusConnected
	case succeeded == 0:
		return StatusDisconnected
	default:
		return StatusPartial
	}
}
