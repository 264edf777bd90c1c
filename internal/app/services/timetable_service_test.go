package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/filestorage"
)

func intPtr(v int) *int { return &v }

func TestCreateTimetableSlot(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := NewTimetableService(memSlots{f.db}, memSubjects{f.db}, memTeachers{f.db}, memStudents{f.db}, testLogger)
	ctx := context.Background()

	valid := dto.CreateTimetableSlotRequest{
		DayOfWeek: intPtr(0), StartTime: "9:00", EndTime: "10:00",
		SubjectID: f.subject.ID, BatchID: f.batch.ID, TeacherID: f.teacher.ID, Room: " B-204 ",
	}

	slot, err := svc.Create(ctx, &valid)
	require.NoError(t, err)
	assert.Equal(t, "09:00", slot.StartTime)
	assert.Equal(t, "Monday", slot.DayName)
	assert.Equal(t, "B-204", slot.Room)

	_, err = svc.Create(ctx, &valid)
	assert.ErrorIs(t, err, apperrors.ErrTimetableSlotTaken)

	bad := valid
	bad.EndTime = "08:00"
	_, err = svc.Create(ctx, &bad)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	bad = valid
	bad.StartTime = "nine"
	_, err = svc.Create(ctx, &bad)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	bad = valid
	bad.BatchID = f.otherBatch.ID
	_, err = svc.Create(ctx, &bad)
	assert.ErrorIs(t, err, apperrors.ErrSubjectBatchMismatch)
}

func TestListTimetableByRole(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := NewTimetableService(memSlots{f.db}, memSubjects{f.db}, memTeachers{f.db}, memStudents{f.db}, testLogger)
	ctx := context.Background()

	for _, day := range []int{0, 2} {
		_, err := svc.Create(ctx, &dto.CreateTimetableSlotRequest{
			DayOfWeek: intPtr(day), StartTime: "09:00", EndTime: "10:00",
			SubjectID: f.subject.ID, BatchID: f.batch.ID, TeacherID: f.teacher.ID,
		})
		require.NoError(t, err)
	}

	slots, err := svc.List(ctx, Actor{UserID: f.student.UserID, Role: models.RoleStudent}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	slots, err = svc.List(ctx, Actor{UserID: f.teacher.UserID, Role: models.RoleTeacher}, nil, intPtr(2))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].DayOfWeek)

	slots, err = svc.List(ctx, Actor{UserID: f.outsider.UserID, Role: models.RoleStudent}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, slots)

	slots, err = svc.List(ctx, Actor{UserID: f.unassigned.UserID, Role: models.RoleStudent}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = svc.List(ctx, Actor{UserID: 1, Role: models.RoleAdmin}, nil, intPtr(6))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func multipartFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestSyllabusUploadReplacesPrevious(t *testing.T) {
	f := newAttendanceFixture(t)
	storage, err := filestorage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	svc := NewSyllabusService(memSyllabi{f.db}, memSubjects{f.db}, memTeachers{f.db}, memStudents{f.db}, storage, testLogger)
	ctx := context.Background()
	admin := Actor{UserID: 1, Role: models.RoleAdmin}
	req := &dto.UploadSyllabusRequest{SubjectID: f.subject.ID, BatchID: f.batch.ID}

	first, err := svc.Upload(ctx, admin, req, multipartFile(t, "os.pdf", []byte("v1")))
	require.NoError(t, err)
	assert.Equal(t, "CS301 name", first.Title)
	assert.FileExists(t, storage.BasePath()+"/"+first.FilePath)

	second, err := svc.Upload(ctx, admin, req, multipartFile(t, "os-v2.pdf", []byte("v2")))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.NoFileExists(t, storage.BasePath()+"/"+first.FilePath)
	assert.Contains(t, second.FileURL, "/uploads/syllabi/")

	_, err = svc.Upload(ctx, admin, req, multipartFile(t, "run.exe", []byte("x")))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	list, err := svc.List(ctx, Actor{UserID: f.student.UserID, Role: models.RoleStudent}, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = svc.List(ctx, Actor{UserID: f.outsider.UserID, Role: models.RoleStudent}, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.Delete(ctx, second.ID))
	assert.NoFileExists(t, storage.BasePath()+"/"+second.FilePath)
}
