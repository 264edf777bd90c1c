package dto

import (
	"time"

	"github.com/yigit/attendance/internal/app/models"
)

// DayCount is one bar of a seven day chart
type DayCount struct {
	Date  string `json:"date" example:"2025-03-10"`
	Label string `json:"label" example:"Mon"`
	Count int64  `json:"count" example:"42"`
}

// AdminDashboard summarises the whole system
type AdminDashboard struct {
	TotalStudents  int64             `json:"totalStudents"`
	TotalTeachers  int64             `json:"totalTeachers"`
	TotalSessions  int64             `json:"totalSessions"`
	RecentSessions []*models.Session `json:"recentSessions"`
	Last7Days      []DayCount        `json:"last7Days"`
}

// TeacherDashboard summarises a teacher's sessions
type TeacherDashboard struct {
	ActiveSessions        []*models.Session `json:"activeSessions"`
	PastSessions          []*models.Session `json:"pastSessions"`
	CompletedSessions     int64             `json:"completedSessions"`
	AverageAttendanceRate float64           `json:"averageAttendanceRate" example:"87.5"`
	Last7Days             []DayCount        `json:"last7Days"`
}

// StudentDashboard summarises a student's attendance
type StudentDashboard struct {
	TotalAttended        int64      `json:"totalAttended"`
	CompletedSessions    int64      `json:"completedSessions"`
	AttendancePercentage float64    `json:"attendancePercentage" example:"92.3"`
	CurrentStreak        int        `json:"currentStreak" example:"4"`
	Last7Days            []DayCount `json:"last7Days"`
}

// ReportFilter narrows the attendance report
type ReportFilter struct {
	BatchID   *int64
	SubjectID *int64
	// Date restricts to sessions held on that calendar day
	Date *time.Time
	Page int
	Size int
}
