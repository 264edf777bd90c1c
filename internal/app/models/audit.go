package models

import "time"

// Audit actions
const (
	AuditSessionStarted = "SESSION_STARTED"
	AuditSessionEnded   = "SESSION_ENDED"
	AuditManualMark     = "MANUAL_MARK"
	AuditManualUnmark   = "MANUAL_UNMARK"
	AuditRecordDeleted  = "RECORD_DELETED"
)

// AuditLog is an append-only trail of privileged actions
type AuditLog struct {
	ID        int64     `json:"id" db:"id"`
	Action    string    `json:"action" db:"action"`
	UserID    *int64    `json:"userId,omitempty" db:"user_id"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
