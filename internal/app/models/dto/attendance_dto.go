package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/attendance/internal/app/models"
)

// Redeem response statuses
const (
	RedeemStatusSuccess = "success"
	RedeemStatusInfo    = "info"
	RedeemStatusError   = "error"
)

// RedeemRequest carries the scanned QR payload
type RedeemRequest struct {
	Token string `json:"token" binding:"required"`
}

// MarkResponse reports a redemption or manual marking outcome
type MarkResponse struct {
	Status    string         `json:"status" example:"success" enums:"success,info,error"`
	Message   string         `json:"message" example:"Attendance marked successfully"`
	Outcome   models.Outcome `json:"outcome" example:"success"`
	SessionID *uuid.UUID     `json:"sessionId,omitempty"`
	MarkedAt  *time.Time     `json:"markedAt,omitempty"`
}

var outcomeMessages = map[models.Outcome]string{
	models.OutcomeSuccess:          "Attendance marked successfully",
	models.OutcomeAlreadyMarked:    "Attendance already marked",
	models.OutcomeExpired:          "QR code expired, scan the current one",
	models.OutcomeInvalidSignature: "Invalid QR code",
	models.OutcomeInvalidPayload:   "Invalid QR data",
	models.OutcomeWrongBatch:       "Student is not in this batch",
	models.OutcomeSessionEnded:     "Session has ended",
	models.OutcomeNotFound:         "Attendance session not found",
}

// NewMarkResponse maps an outcome to its status and message
func NewMarkResponse(result models.MarkResult) MarkResponse {
	resp := MarkResponse{
		Status:   RedeemStatusError,
		Message:  outcomeMessages[result.Outcome],
		Outcome:  result.Outcome,
		MarkedAt: result.MarkedAt,
	}
	switch result.Outcome {
	case models.OutcomeSuccess:
		resp.Status = RedeemStatusSuccess
	case models.OutcomeAlreadyMarked:
		resp.Status = RedeemStatusInfo
	}
	if result.SessionUUID != uuid.Nil {
		id := result.SessionUUID
		resp.SessionID = &id
	}
	return resp
}

// StartSessionRequest opens a session for a subject and batch
type StartSessionRequest struct {
	SubjectID int64 `json:"subjectId" binding:"required,min=1" example:"3"`
	BatchID   int64 `json:"batchId" binding:"required,min=1" example:"1"`
}

// ManualMarkRequest marks a student present without a token
type ManualMarkRequest struct {
	StudentID int64 `json:"studentId" binding:"required,min=1" example:"12"`
}

// SessionTokenResponse is polled by the QR display
type SessionTokenResponse struct {
	Token     string    `json:"token"`
	SessionID uuid.UUID `json:"sessionId"`
	IssuedAt  time.Time `json:"issuedAt"`
	// RefreshInterval is how often to fetch again, in seconds
	RefreshInterval float64 `json:"refreshInterval" example:"2"`
	// ExpiresIn is how long the token stays redeemable, in seconds
	ExpiresIn float64 `json:"expiresIn" example:"20"`
}

// AttendanceEntry is one student row in a session roster
type AttendanceEntry struct {
	RecordID    int64      `json:"recordId,omitempty"`
	StudentID   int64      `json:"studentId"`
	StudentName string     `json:"studentName"`
	RollNumber  string     `json:"rollNumber"`
	MarkedAt    *time.Time `json:"markedAt,omitempty"`
}

// SessionAttendanceResponse is the live roster of a session
type SessionAttendanceResponse struct {
	Session *models.Session   `json:"session"`
	Count   int               `json:"count"`
	Present []AttendanceEntry `json:"present"`
	Absent  []AttendanceEntry `json:"absent"`
}
