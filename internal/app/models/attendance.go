package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is an attendance-taking window opened by a teacher
type Session struct {
	ID          int64      `json:"-" db:"id"`
	SessionUUID uuid.UUID  `json:"sessionId" db:"session_uuid"`
	TeacherID   int64      `json:"teacherId" db:"teacher_id"`
	SubjectID   int64      `json:"subjectId" db:"subject_id"`
	BatchID     int64      `json:"batchId" db:"batch_id"`
	StartTime   time.Time  `json:"startTime" db:"start_time"`
	EndTime     *time.Time `json:"endTime,omitempty" db:"end_time"`
	IsActive    bool       `json:"isActive" db:"is_active"`

	// Joined display fields
	SubjectName string `json:"subjectName,omitempty"`
	SubjectCode string `json:"subjectCode,omitempty"`
	BatchName   string `json:"batchName,omitempty"`
	TeacherName string `json:"teacherName,omitempty"`
}

// AttendanceRecord marks one student present in one session
type AttendanceRecord struct {
	ID        int64            `json:"id" db:"id"`
	SessionID int64            `json:"-" db:"session_id"`
	StudentID int64            `json:"studentId" db:"student_id"`
	Status    AttendanceStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"markedAt" db:"created_at"`

	// Joined display fields
	StudentName string `json:"studentName,omitempty"`
	RollNumber  string `json:"rollNumber,omitempty"`
}

// Outcome is the result of a redemption or manual marking attempt
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeAlreadyMarked    Outcome = "already_marked"
	OutcomeExpired          Outcome = "expired"
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeInvalidPayload   Outcome = "invalid_payload"
	OutcomeWrongBatch       Outcome = "wrong_batch"
	OutcomeSessionEnded     Outcome = "session_ended"
	OutcomeNotFound         Outcome = "not_found"
)

// MarkResult is what redemption and manual marking report back
type MarkResult struct {
	Outcome     Outcome
	SessionUUID uuid.UUID
	// MarkedAt is set on success and on already_marked
	MarkedAt *time.Time
}

// RecordDetails is a record joined with its session, for reports and history
type RecordDetails struct {
	RecordID    int64            `json:"recordId"`
	MarkedAt    time.Time        `json:"markedAt"`
	Status      AttendanceStatus `json:"status"`
	SessionUUID uuid.UUID        `json:"sessionId"`
	SessionDate time.Time        `json:"sessionStart"`
	SubjectName string           `json:"subjectName"`
	SubjectCode string           `json:"subjectCode"`
	BatchName   string           `json:"batchName"`
	TeacherName string           `json:"teacherName"`
	StudentID   int64            `json:"studentId"`
	StudentName string           `json:"studentName"`
	RollNumber  string           `json:"rollNumber"`
}
