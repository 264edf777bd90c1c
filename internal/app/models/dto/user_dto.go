package dto

import (
	"github.com/yigit/attendance/internal/app/models"
)

// CreateUserRequest is used by admins to add teachers and students
type CreateUserRequest struct {
	Email      string          `json:"email" binding:"required,email"`
	Password   string          `json:"password" binding:"required,min=8"`
	FirstName  string          `json:"firstName" binding:"required,max=100"`
	LastName   string          `json:"lastName" binding:"required,max=100"`
	RoleType   models.RoleType `json:"roleType" binding:"required,oneof=TEACHER STUDENT"`
	RollNumber string          `json:"rollNumber" binding:"required_if=RoleType STUDENT,max=20"`
	BatchID    *int64          `json:"batchId" binding:"omitempty,min=1"`
}

// UpdateUserRequest updates identity fields and, for students, the profile
type UpdateUserRequest struct {
	FirstName  string  `json:"firstName" binding:"required,max=100"`
	LastName   string  `json:"lastName" binding:"required,max=100"`
	Email      string  `json:"email" binding:"required,email"`
	IsActive   *bool   `json:"isActive"`
	RollNumber *string `json:"rollNumber" binding:"omitempty,min=1,max=20"`
	BatchID    *int64  `json:"batchId" binding:"omitempty,min=1"`
}

// UpdateProfileRequest represents a user's own profile update
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
}

// AssignSubjectsRequest replaces the subjects a teacher teaches
type AssignSubjectsRequest struct {
	SubjectIDs []int64 `json:"subjectIds" binding:"required,dive,min=1"`
}

// StudentProfile is the student part of a user response
type StudentProfile struct {
	ID         int64  `json:"id"`
	RollNumber string `json:"rollNumber" example:"CSE-042"`
	BatchID    *int64 `json:"batchId,omitempty"`
	BatchName  string `json:"batchName,omitempty"`
}

// TeacherProfile is the teacher part of a user response
type TeacherProfile struct {
	ID       int64             `json:"id"`
	Subjects []*models.Subject `json:"subjects"`
}

// UserResponse represents a user with its role profile
type UserResponse struct {
	ID        int64           `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Role      models.RoleType `json:"role" example:"STUDENT"`
	IsActive  bool            `json:"isActive"`
	Student   *StudentProfile `json:"student,omitempty"`
	Teacher   *TeacherProfile `json:"teacher,omitempty"`
}

// NewUserResponse builds a UserResponse from whichever profiles are loaded
func NewUserResponse(user *models.User, student *models.Student, teacher *models.Teacher) *UserResponse {
	if user == nil {
		return nil
	}

	resp := &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.RoleType,
		IsActive:  user.IsActive,
	}

	if student != nil {
		resp.Student = &StudentProfile{
			ID:         student.ID,
			RollNumber: student.RollNumber,
			BatchID:    student.BatchID,
		}
		if student.Batch != nil {
			resp.Student.BatchName = student.Batch.Name
		}
	}

	if teacher != nil {
		subjects := teacher.Subjects
		if subjects == nil {
			subjects = []*models.Subject{}
		}
		resp.Teacher = &TeacherProfile{ID: teacher.ID, Subjects: subjects}
	}

	return resp
}
