package timeouts

import "time"

const (
	// PollInterval is the fixed getUpdates cadence.
	PollInterval  = 3500 * time.Millisecond
	SecondDefault = 10 * time.Second
	Shutdown      = 5 * time.Second
)
