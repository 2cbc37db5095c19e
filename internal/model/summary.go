package model

import "time"

// RefreshSummary captures metrics from a single refresh pass.
type RefreshSummary struct {
	SnapshotID    string
	RowsRead      int
	RowsMapped    int
	RowsSkipped   int
	RowsTotal     int
	Changed       []Role
	Staged        []Role
	DurationLoad  time.Duration
	DurationTotal time.Duration
}
