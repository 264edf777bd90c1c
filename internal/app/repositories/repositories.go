package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	Users      *UserRepository
	Students   *StudentRepository
	Teachers   *TeacherRepository
	Tokens     *TokenRepository
	Batches    *BatchRepository
	Subjects   *SubjectRepository
	Sessions   *SessionRepository
	Attendance *AttendanceRepository
	Timetable  *TimetableRepository
	Syllabi    *SyllabusRepository
	Audit      *AuditRepository
}

// NewRepositories initializes all repositories
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:      NewUserRepository(pool),
		Students:   NewStudentRepository(pool),
		Teachers:   NewTeacherRepository(pool),
		Tokens:     NewTokenRepository(pool),
		Batches:    NewBatchRepository(pool),
		Subjects:   NewSubjectRepository(pool),
		Sessions:   NewSessionRepository(pool),
		Attendance: NewAttendanceRepository(pool),
		Timetable:  NewTimetableRepository(pool),
		Syllabi:    NewSyllabusRepository(pool),
		Audit:      NewAuditRepository(pool),
	}
}
