package models

import "time"

// Batch is a cohort of students, e.g. "CSE A" of 2025
type Batch struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Name      string    `json:"name" db:"name" example:"CSE A"`
	Year      int       `json:"year" db:"year" example:"2025"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Subject is taught to exactly one batch
type Subject struct {
	ID        int64  `json:"id" db:"id" example:"3"`
	Name      string `json:"name" db:"name" example:"Operating Systems"`
	Code      string `json:"code" db:"code" example:"CS301"`
	BatchID   int64  `json:"batchId" db:"batch_id" example:"1"`
	BatchName string `json:"batchName,omitempty"`
}
