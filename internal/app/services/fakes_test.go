package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/repositories"
	"github.com/yigit/attendance/internal/pkg/apperrors"
)

// memDB is an in-memory stand-in for the PostgreSQL repositories. Its insert
// path enforces the same (session, student) uniqueness as the database.
type memDB struct {
	mu sync.Mutex

	nextID          int64
	users           map[int64]*models.User
	students        map[int64]*models.Student
	teachers        map[int64]*models.Teacher
	teacherSubjects map[int64]map[int64]bool
	batches         map[int64]*models.Batch
	subjects        map[int64]*models.Subject
	sessions        map[int64]*models.Session
	records         map[int64]*models.AttendanceRecord
	tokens          map[string]*models.RefreshToken
	slots           map[int64]*models.TimetableSlot
	syllabi         map[int64]*models.Syllabus
	audits          []*models.AuditLog

	now func() time.Time

	// dayLoc is the zone day keys are grouped in, as Postgres does with its
	// session timezone.
	dayLoc *time.Location
}

func newMemDB() *memDB {
	return &memDB{
		dayLoc:          time.UTC,
		users:           map[int64]*models.User{},
		students:        map[int64]*models.Student{},
		teachers:        map[int64]*models.Teacher{},
		teacherSubjects: map[int64]map[int64]bool{},
		batches:         map[int64]*models.Batch{},
		subjects:        map[int64]*models.Subject{},
		sessions:        map[int64]*models.Session{},
		records:         map[int64]*models.AttendanceRecord{},
		tokens:          map[string]*models.RefreshToken{},
		slots:           map[int64]*models.TimetableSlot{},
		syllabi:         map[int64]*models.Syllabus{},
		now:             time.Now,
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

var testLogger = zerolog.Nop()

// seeding helpers

func (m *memDB) addBatch(name string) *models.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &models.Batch{ID: m.id(), Name: name, Year: 2025}
	m.batches[b.ID] = b
	return b
}

func (m *memDB) addSubject(code string, batchID int64) *models.Subject {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Subject{ID: m.id(), Name: code + " name", Code: code, BatchID: batchID}
	if b, ok := m.batches[batchID]; ok {
		s.BatchName = b.Name
	}
	m.subjects[s.ID] = s
	return s
}

func (m *memDB) addTeacher(first string, subjectIDs ...int64) *models.Teacher {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), Email: strings.ToLower(first) + "@school.edu", FirstName: first, LastName: "T",
		RoleType: models.RoleTeacher, IsActive: true}
	m.users[u.ID] = u
	t := &models.Teacher{ID: m.id(), UserID: u.ID, User: u}
	m.teachers[t.ID] = t
	m.teacherSubjects[t.ID] = map[int64]bool{}
	for _, id := range subjectIDs {
		m.teacherSubjects[t.ID][id] = true
	}
	return t
}

func (m *memDB) addStudent(first, roll string, batchID *int64) *models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), Email: strings.ToLower(first) + "@school.edu", FirstName: first, LastName: "S",
		RoleType: models.RoleStudent, IsActive: true}
	m.users[u.ID] = u
	s := &models.Student{ID: m.id(), UserID: u.ID, RollNumber: roll, BatchID: batchID, User: u}
	m.students[s.ID] = s
	return s
}

func (m *memDB) addSession(teacherID, subjectID, batchID int64, active bool) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Session{ID: m.id(), SessionUUID: uuid.New(), TeacherID: teacherID, SubjectID: subjectID,
		BatchID: batchID, StartTime: m.now(), IsActive: active}
	if !active {
		end := m.now()
		s.EndTime = &end
	}
	m.sessions[s.ID] = s
	return s
}

func (m *memDB) recordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// users

type memUsers struct{ *memDB }

func (m memUsers) insertUser(user *models.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	user.ID = m.id()
	user.CreatedAt = m.now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m memUsers) CreateStudent(_ context.Context, user *models.User, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.RollNumber == student.RollNumber {
			return apperrors.ErrRollNumberExists
		}
	}
	if err := m.insertUser(user); err != nil {
		return err
	}
	student.ID = m.id()
	student.UserID = user.ID
	cp := *student
	cp.User = m.users[user.ID]
	m.students[student.ID] = &cp
	return nil
}

func (m memUsers) CreateTeacher(_ context.Context, user *models.User, teacher *models.Teacher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.insertUser(user); err != nil {
		return err
	}
	teacher.ID = m.id()
	teacher.UserID = user.ID
	m.teachers[teacher.ID] = &models.Teacher{ID: teacher.ID, UserID: user.ID, User: m.users[user.ID]}
	m.teacherSubjects[teacher.ID] = map[int64]bool{}
	return nil
}

func (m memUsers) CreateAdmin(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertUser(user)
}

func (m memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m memUsers) List(_ context.Context, params repositories.UserListParams) ([]*models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.User{}
	for _, u := range m.users {
		if params.Role != nil && u.RoleType != *params.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m memUsers) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && strings.EqualFold(u.Email, user.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m memUsers) UpdateLastLogin(_ context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m memUsers) CountByRole(_ context.Context, role models.RoleType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.RoleType == role {
			n++
		}
	}
	return n, nil
}

// students

type memStudents struct{ *memDB }

func (m memStudents) GetByID(_ context.Context, id int64) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memStudents) GetByUserID(_ context.Context, userID int64) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

func (m memStudents) ListByBatch(_ context.Context, batchID int64) ([]*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Student{}
	for _, s := range m.students {
		if s.InBatch(batchID) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out, nil
}

func (m memStudents) Update(_ context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[student.ID]; !ok {
		return apperrors.ErrStudentNotFound
	}
	cp := *student
	m.students[student.ID] = &cp
	return nil
}

// teachers

type memTeachers struct{ *memDB }

func (m memTeachers) GetByID(_ context.Context, id int64) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teachers[id]
	if !ok {
		return nil, apperrors.ErrTeacherNotFound
	}
	cp := *t
	return &cp, nil
}

func (m memTeachers) GetByUserID(_ context.Context, userID int64) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teachers {
		if t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.ErrTeacherNotFound
}

func (m memTeachers) List(_ context.Context) ([]*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Teacher{}
	for _, t := range m.teachers {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memTeachers) SetSubjects(_ context.Context, teacherID int64, subjectIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := map[int64]bool{}
	for _, id := range subjectIDs {
		if _, ok := m.subjects[id]; !ok {
			return apperrors.ErrSubjectNotFound
		}
		set[id] = true
	}
	m.teacherSubjects[teacherID] = set
	return nil
}

func (m memTeachers) TeachesSubject(_ context.Context, teacherID, subjectID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teacherSubjects[teacherID][subjectID], nil
}

// refresh tokens

type memTokens struct{ *memDB }

func (m memTokens) Create(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = &models.RefreshToken{ID: m.id(), UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (m memTokens) GetByValue(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (m memTokens) Revoke(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.IsRevoked = true
	return nil
}

func (m memTokens) RevokeAllForUser(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.IsRevoked = true
		}
	}
	return nil
}

// batches

type memBatches struct{ *memDB }

func (m memBatches) Create(_ context.Context, batch *models.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.batches {
		if b.Name == batch.Name && b.Year == batch.Year {
			return apperrors.ErrBatchAlreadyExists
		}
	}
	batch.ID = m.id()
	cp := *batch
	m.batches[batch.ID] = &cp
	return nil
}

func (m memBatches) GetByID(_ context.Context, id int64) (*models.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, apperrors.ErrBatchNotFound
	}
	cp := *b
	return &cp, nil
}

func (m memBatches) List(_ context.Context) ([]*models.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Batch{}
	for _, b := range m.batches {
		out = append(out, b)
	}
	return out, nil
}

func (m memBatches) Update(_ context.Context, batch *models.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[batch.ID]; !ok {
		return apperrors.ErrBatchNotFound
	}
	cp := *batch
	m.batches[batch.ID] = &cp
	return nil
}

func (m memBatches) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[id]; !ok {
		return apperrors.ErrBatchNotFound
	}
	delete(m.batches, id)
	return nil
}

// subjects

type memSubjects struct{ *memDB }

func (m memSubjects) Create(_ context.Context, subject *models.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subjects {
		if s.Code == subject.Code {
			return apperrors.ErrSubjectAlreadyExists
		}
	}
	subject.ID = m.id()
	cp := *subject
	if b, ok := m.batches[subject.BatchID]; ok {
		cp.BatchName = b.Name
	}
	m.subjects[subject.ID] = &cp
	return nil
}

func (m memSubjects) GetByID(_ context.Context, id int64) (*models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subjects[id]
	if !ok {
		return nil, apperrors.ErrSubjectNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memSubjects) List(_ context.Context, filter repositories.SubjectFilter) ([]*models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Subject{}
	for _, s := range m.subjects {
		if filter.BatchID != nil && s.BatchID != *filter.BatchID {
			continue
		}
		if filter.TeacherID != nil && !m.teacherSubjects[*filter.TeacherID][s.ID] {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m memSubjects) Update(_ context.Context, subject *models.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subjects[subject.ID]; !ok {
		return apperrors.ErrSubjectNotFound
	}
	cp := *subject
	m.subjects[subject.ID] = &cp
	return nil
}

func (m memSubjects) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subjects[id]; !ok {
		return apperrors.ErrSubjectNotFound
	}
	delete(m.subjects, id)
	return nil
}

// sessions

type memSessions struct{ *memDB }

func (m memSessions) Create(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ID = m.id()
	session.IsActive = true
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m memSessions) GetByUUID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.SessionUUID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrSessionNotFound
}

func (m memSessions) End(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.IsActive {
		return apperrors.ErrSessionInactive
	}
	s.IsActive = false
	s.EndTime = &at
	return nil
}

func (m memSessions) match(s *models.Session, f repositories.SessionFilter) bool {
	switch {
	case f.TeacherID != nil && s.TeacherID != *f.TeacherID,
		f.BatchID != nil && s.BatchID != *f.BatchID,
		f.SubjectID != nil && s.SubjectID != *f.SubjectID,
		f.Active != nil && s.IsActive != *f.Active:
		return false
	}
	return true
}

func (m memSessions) List(_ context.Context, f repositories.SessionFilter) ([]*models.Session, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Session{}
	for _, s := range m.sessions {
		if m.match(s, f) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	if f.Limit > 0 {
		start := int(f.Offset)
		if start > len(out) {
			start = len(out)
		}
		end := start + int(f.Limit)
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (m memSessions) Count(ctx context.Context, f repositories.SessionFilter) (int64, error) {
	f.Limit = 0
	_, total, err := m.List(ctx, f)
	return total, err
}

func (m memSessions) TeacherStats(_ context.Context, teacherID int64) (repositories.TeacherSessionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st repositories.TeacherSessionStats
	for _, s := range m.sessions {
		if s.TeacherID != teacherID || s.IsActive {
			continue
		}
		st.Completed++
		for _, stu := range m.students {
			if stu.InBatch(s.BatchID) {
				st.Expected++
			}
		}
		for _, r := range m.records {
			if r.SessionID == s.ID {
				st.Attended++
			}
		}
	}
	return st, nil
}

// attendance ledger

type memAttendance struct{ *memDB }

func (m memAttendance) Insert(_ context.Context, rec *models.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.SessionID == rec.SessionID && r.StudentID == rec.StudentID {
			return apperrors.ErrAlreadyMarked
		}
	}
	rec.ID = m.id()
	rec.CreatedAt = m.now()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m memAttendance) Get(_ context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.SessionID == sessionID && r.StudentID == studentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperrors.ErrRecordNotFound
}

func (m memAttendance) Delete(_ context.Context, sessionID, studentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.records {
		if r.SessionID == sessionID && r.StudentID == studentID {
			delete(m.records, id)
			return nil
		}
	}
	return apperrors.ErrRecordNotFound
}

func (m memAttendance) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return apperrors.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

func (m memAttendance) ListBySession(_ context.Context, sessionID int64) ([]*models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.AttendanceRecord{}
	for _, r := range m.records {
		if r.SessionID != sessionID {
			continue
		}
		cp := *r
		if st, ok := m.students[r.StudentID]; ok {
			cp.RollNumber = st.RollNumber
			if st.User != nil {
				cp.StudentName = st.User.FullName()
			}
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memAttendance) details(f repositories.RecordFilter) []*models.RecordDetails {
	out := []*models.RecordDetails{}
	for _, r := range m.records {
		s := m.sessions[r.SessionID]
		if s == nil {
			continue
		}
		switch {
		case f.StudentID != nil && r.StudentID != *f.StudentID,
			f.TeacherID != nil && s.TeacherID != *f.TeacherID,
			f.BatchID != nil && s.BatchID != *f.BatchID,
			f.SubjectID != nil && s.SubjectID != *f.SubjectID,
			f.Since != nil && r.CreatedAt.Before(*f.Since):
			continue
		}
		d := &models.RecordDetails{RecordID: r.ID, MarkedAt: r.CreatedAt, Status: r.Status,
			SessionUUID: s.SessionUUID, SessionDate: s.StartTime, StudentID: r.StudentID}
		if sub := m.subjects[s.SubjectID]; sub != nil {
			d.SubjectName, d.SubjectCode = sub.Name, sub.Code
		}
		if b := m.batches[s.BatchID]; b != nil {
			d.BatchName = b.Name
		}
		if t := m.teachers[s.TeacherID]; t != nil && t.User != nil {
			d.TeacherName = t.User.FullName()
		}
		if st := m.students[r.StudentID]; st != nil {
			d.RollNumber = st.RollNumber
			if st.User != nil {
				d.StudentName = st.User.FullName()
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID > out[j].RecordID })
	return out
}

func (m memAttendance) ListDetails(_ context.Context, f repositories.RecordFilter) ([]*models.RecordDetails, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.details(f)
	return out, int64(len(out)), nil
}

func (m memAttendance) CountByDay(_ context.Context, f repositories.RecordFilter) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, d := range m.details(f) {
		counts[d.MarkedAt.In(m.dayLoc).Format("2006-01-02")]++
	}
	return counts, nil
}

func (m memAttendance) Count(_ context.Context, f repositories.RecordFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.details(f))), nil
}

func (m memAttendance) StudentCompletedCount(_ context.Context, studentID, batchID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		s := m.sessions[r.SessionID]
		if r.StudentID == studentID && s != nil && s.BatchID == batchID && !s.IsActive {
			n++
		}
	}
	return n, nil
}

func (m memAttendance) AttendedDays(_ context.Context, studentID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	days := []string{}
	for _, r := range m.records {
		if r.StudentID != studentID {
			continue
		}
		d := r.CreatedAt.In(m.dayLoc).Format("2006-01-02")
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// timetable

type memSlots struct{ *memDB }

func (m memSlots) Create(_ context.Context, slot *models.TimetableSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.BatchID == slot.BatchID && s.DayOfWeek == slot.DayOfWeek && s.StartTime == slot.StartTime {
			return apperrors.ErrTimetableSlotTaken
		}
	}
	slot.ID = m.id()
	cp := *slot
	m.slots[slot.ID] = &cp
	return nil
}

func (m memSlots) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[id]; !ok {
		return apperrors.ErrTimetableSlotNotFound
	}
	delete(m.slots, id)
	return nil
}

func (m memSlots) List(_ context.Context, f repositories.TimetableFilter) ([]*models.TimetableSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.TimetableSlot{}
	for _, s := range m.slots {
		switch {
		case f.BatchID != nil && s.BatchID != *f.BatchID,
			f.TeacherID != nil && s.TeacherID != *f.TeacherID,
			f.DayOfWeek != nil && s.DayOfWeek != *f.DayOfWeek:
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// syllabi

type memSyllabi struct{ *memDB }

func (m memSyllabi) Upsert(_ context.Context, s *models.Syllabus) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.syllabi {
		if existing.SubjectID == s.SubjectID && existing.BatchID == s.BatchID {
			previous := existing.FilePath
			s.ID = existing.ID
			cp := *s
			m.syllabi[s.ID] = &cp
			return previous, nil
		}
	}
	s.ID = m.id()
	cp := *s
	m.syllabi[s.ID] = &cp
	return "", nil
}

func (m memSyllabi) GetByID(_ context.Context, id int64) (*models.Syllabus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.syllabi[id]
	if !ok {
		return nil, apperrors.ErrSyllabusNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memSyllabi) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.syllabi[id]; !ok {
		return apperrors.ErrSyllabusNotFound
	}
	delete(m.syllabi, id)
	return nil
}

func (m memSyllabi) List(_ context.Context, f repositories.SyllabusFilter) ([]*models.Syllabus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Syllabus{}
	for _, s := range m.syllabi {
		if f.BatchID != nil && s.BatchID != *f.BatchID {
			continue
		}
		if f.TeacherID != nil && !m.teacherSubjects[*f.TeacherID][s.SubjectID] {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

// audit

type memAudit struct{ *memDB }

func (m memAudit) Create(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.id()
	entry.CreatedAt = m.now()
	cp := *entry
	m.audits = append(m.audits, &cp)
	return nil
}

func (m memAudit) List(_ context.Context, offset, limit uint64) ([]*models.AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AuditLog, 0, len(m.audits))
	for i := len(m.audits) - 1; i >= 0; i-- {
		out = append(out, m.audits[i])
	}
	total := int64(len(out))
	if int(offset) >= len(out) {
		return []*models.AuditLog{}, total, nil
	}
	end := int(offset + limit)
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (m *memDB) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]string, 0, len(m.audits))
	for _, a := range m.audits {
		actions = append(actions, a.Action)
	}
	return actions
}
