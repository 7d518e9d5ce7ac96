// Package timeouts provides centralized timeout values for handler and job
// operations.
//
// These are used with context.WithTimeout around database operations and
// outbound calls. Centralizing the values keeps them consistent and makes
// them easy to tune in one place.
//
// Guidelines:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads or lookups
//   - Medium: list queries, moderate writes
//   - Long: multi-collection operations, recipient resolution
//   - Dispatch: a full email dispatch including inter-batch delays
package timeouts

import "time"

const (
	Ping     = 2 * time.Second
	Short    = 5 * time.Second
	Medium   = 10 * time.Second
	Long     = 30 * time.Second
	Dispatch = 10 * time.Minute
)
