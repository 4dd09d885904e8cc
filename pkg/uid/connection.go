package uid

import "github.com/google/uuid"

// NewConnectionID returns a random ID used to correlate log lines for one
// transport attempt.
func NewConnectionID() string {
	return uuid.NewString()
}

// Short trims an ID to its first block for compact log output.
func Short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
