package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Email       string     `json:"email" db:"email" example:"jane@school.edu"`
	Password    string     `json:"-" db:"password"`
	FirstName   string     `json:"firstName" db:"first_name" example:"Jane"`
	LastName    string     `json:"lastName" db:"last_name" example:"Doe"`
	RoleType    RoleType   `json:"roleType" db:"role_type" example:"STUDENT"`
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Student defines the student model based on the 'students' table
type Student struct {
	ID         int64  `json:"id" db:"id"`
	UserID     int64  `json:"userId" db:"user_id"`
	RollNumber string `json:"rollNumber" db:"roll_number"`
	BatchID    *int64 `json:"batchId,omitempty" db:"batch_id"` // NULL once the batch is deleted
	User       *User  `json:"user,omitempty"`
	Batch      *Batch `json:"batch,omitempty"`
}

// InBatch reports whether the student belongs to batchID
func (s *Student) InBatch(batchID int64) bool {
	return s.BatchID != nil && *s.BatchID == batchID
}

// Teacher defines the teacher model based on the 'teachers' table
type Teacher struct {
	ID       int64      `json:"id" db:"id"`
	UserID   int64      `json:"userId" db:"user_id"`
	User     *User      `json:"user,omitempty"`
	Subjects []*Subject `json:"subjects,omitempty"`
}

// RefreshToken is an opaque refresh token stored per user
type RefreshToken struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	IsRevoked bool      `db:"is_revoked"`
	CreatedAt time.Time `db:"created_at"`
}
