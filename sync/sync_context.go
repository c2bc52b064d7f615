package sync

import "github.com/rs/zerolog"

// SyncContext holds shared sync configuration for a single run.
// It is immutable after construction.
type SyncContext struct {
	Config Config
	RunID  string
	// RecordRequests saves every HTTP exchange under testdata/.requests/<RunID>.
	RecordRequests bool
	Logger         zerolog.Logger
}
