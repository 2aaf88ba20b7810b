package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"sciencefair-registration/models"
)

func openTempWorkbook(t *testing.T) (*WorkbookStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registrations.xlsx")
	w, err := OpenWorkbook(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, path
}

func TestOpenWorkbook_SeedsHeaders(t *testing.T) {
	w, _ := openTempWorkbook(t)

	projects, err := w.Get(context.Background(), ProjectsRange)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Len(t, projects[0], 28)
	assert.Equal(t, "Project ID", projects[0][0])

	students, err := w.Get(context.Background(), StudentsRange)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Len(t, students[0], 8)
}

func TestWorkbook_MissingSheetIsReadError(t *testing.T) {
	w, _ := openTempWorkbook(t)

	_, err := w.Get(context.Background(), TeachersRange)
	assert.Error(t, err)
}

func TestWorkbook_InvalidRange(t *testing.T) {
	w, _ := openTempWorkbook(t)

	_, err := w.Get(context.Background(), "Info!B:A")
	assert.Error(t, err)
	_, err = w.Get(context.Background(), "Info!1:2")
	assert.Error(t, err)
}

func TestWorkbook_SheetServiceRoundTrip(t *testing.T) {
	w, path := openTempWorkbook(t)
	svc := NewSheetService(w, nil, nil)
	ctx := context.Background()

	id, err := svc.NextProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, id)

	row := models.NewProjectRow(models.RegistrationRequest{
		StudentName:         "Student 1",
		Teacher:             "Teacher 1",
		ParentGuardianName:  "Parent 1",
		ParentGuardianEmail: "p1@example.com",
		ConsentGiven:        true,
		AdditionalStudents:  []models.AdditionalStudent{{StudentName: "Student 2", Teacher: "Teacher 2"}},
	}, id, "2024-01-02T11:00:00.000Z")
	require.NoError(t, svc.AppendRegistration(ctx, []models.ProjectRow{row}))

	id, err = svc.NextProjectID(ctx)
	require.NoError(t, err)
	assert.Equal(t, 101, id)

	students, err := w.Get(ctx, StudentsRange)
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, "Student 2", students[2][2])

	// the file on disk has the rows too
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(ProjectsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "100", rows[1][0])
	assert.Equal(t, "TRUE", rows[1][2])
}

func TestWorkbook_ReadsTeachersAndInfoWhenPresent(t *testing.T) {
	w, path := openTempWorkbook(t)
	ctx := context.Background()
	require.NoError(t, w.Append(ctx, TeachersRange, [][]interface{}{{"Name", "Grade"}, {"Mrs. Smith", "3"}}))
	require.NoError(t, w.Append(ctx, InfoRange, [][]interface{}{{"School", "Lincoln Elementary"}}))
	require.NoError(t, w.Close())

	reopened, err := OpenWorkbook(path, nil)
	require.NoError(t, err)
	defer reopened.Close()
	svc := NewSheetService(reopened, nil, nil)

	teachers, err := svc.GetTeachers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Teacher{{Name: "Mrs. Smith", Grade: "3"}}, teachers)

	meta, err := svc.GetFairMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lincoln Elementary", meta.School)
	assert.Equal(t, "", meta.ContactEmail)
}
