package models

import "time"

// StatusCheck is a client-reported liveness ping kept for diagnostics.
type StatusCheck struct {
	ID         string
	ClientName string
	Timestamp  time.Time
}
