package dto

// BatchRequest creates or updates a batch
type BatchRequest struct {
	Name string `json:"name" binding:"required,max=50" example:"CSE A"`
	Year int    `json:"year" binding:"required,min=1900,max=2200" example:"2025"`
}

// SubjectRequest creates or updates a subject
type SubjectRequest struct {
	Name    string `json:"name" binding:"required,max=100" example:"Operating Systems"`
	Code    string `json:"code" binding:"required,max=20" example:"CS301"`
	BatchID int64  `json:"batchId" binding:"required,min=1" example:"1"`
}
