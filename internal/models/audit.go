package models

import "time"

// AuditEvent records an administrative mutation of a user or group.
type AuditEvent struct {
	ActorID    int64
	Action     string
	TargetType string
	TargetID   int64
	Changes    map[string]any
	OccurredAt time.Time
}
