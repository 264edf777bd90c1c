package models

import "time"

// Syllabus is the single document kept per subject and batch
type Syllabus struct {
	ID         int64     `json:"id" db:"id"`
	SubjectID  int64     `json:"subjectId" db:"subject_id"`
	BatchID    int64     `json:"batchId" db:"batch_id"`
	Title      string    `json:"title" db:"title"`
	FilePath   string    `json:"-" db:"file_path"`
	FileName   string    `json:"fileName" db:"file_name"`
	FileURL    string    `json:"fileUrl"`
	UploadedBy *int64    `json:"uploadedBy,omitempty" db:"uploaded_by"`
	UploadedAt time.Time `json:"uploadedAt" db:"uploaded_at"`

	SubjectName string `json:"subjectName,omitempty"`
	SubjectCode string `json:"subjectCode,omitempty"`
	BatchName   string `json:"batchName,omitempty"`
}
