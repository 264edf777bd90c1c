package dto

// CreateTimetableSlotRequest adds a weekly slot
type CreateTimetableSlotRequest struct {
	DayOfWeek *int   `json:"dayOfWeek" binding:"required,min=0,max=5" example:"0"`
	StartTime string `json:"startTime" binding:"required,clock" example:"09:00"`
	EndTime   string `json:"endTime" binding:"required,clock" example:"10:00"`
	SubjectID int64  `json:"subjectId" binding:"required,min=1"`
	BatchID   int64  `json:"batchId" binding:"required,min=1"`
	TeacherID int64  `json:"teacherId" binding:"required,min=1"`
	Room      string `json:"room" binding:"max=50" example:"B-204"`
}
