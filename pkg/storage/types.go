package storage

import "time"

// Option is a single key/value row of the option table.
type Option struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
