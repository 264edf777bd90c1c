package models

// DayNames indexes days of the week as stored, 0 = Monday
var DayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// TimetableSlot is one weekly class slot
type TimetableSlot struct {
	ID        int64  `json:"id" db:"id"`
	DayOfWeek int    `json:"dayOfWeek" db:"day_of_week" example:"0"`
	StartTime string `json:"startTime" db:"start_time" example:"09:00"`
	EndTime   string `json:"endTime" db:"end_time" example:"10:00"`
	SubjectID int64  `json:"subjectId" db:"subject_id"`
	BatchID   int64  `json:"batchId" db:"batch_id"`
	TeacherID int64  `json:"teacherId" db:"teacher_id"`
	Room      string `json:"room" db:"room" example:"B-204"`

	DayName     string `json:"dayName,omitempty"`
	SubjectName string `json:"subjectName,omitempty"`
	SubjectCode string `json:"subjectCode,omitempty"`
	BatchName   string `json:"batchName,omitempty"`
	TeacherName string `json:"teacherName,omitempty"`
}
