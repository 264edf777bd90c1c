package dto

// UploadSyllabusRequest carries the form fields sent with the file
type UploadSyllabusRequest struct {
	SubjectID int64  `form:"subjectId" binding:"required,min=1"`
	BatchID   int64  `form:"batchId" binding:"required,min=1"`
	Title     string `form:"title" binding:"max=200"`
}
