package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sciencefair-registration/config"
	"sciencefair-registration/db"
	"sciencefair-registration/models"
	"sciencefair-registration/ratelimit"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// brokenStore fails every operation with err.
type brokenStore struct {
	err       error
	nextIDErr error
}

func (b brokenStore) NextProjectID(context.Context) (int, error) {
	if b.nextIDErr != nil {
		return 0, b.nextIDErr
	}
	return 100, nil
}

func (b brokenStore) AppendRegistration(context.Context, []models.ProjectRow) error {
	return b.err
}

func (b brokenStore) GetTeachers(context.Context) ([]models.Teacher, error) {
	return nil, b.err
}

func (b brokenStore) GetFairMetadata(context.Context) (models.FairMetadata, error) {
	return models.FairMetadata{}, b.err
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Sheets.Backend = config.BackendMock
	return cfg
}

func newTestRouter(t *testing.T, store db.Store, cfg *config.Config) (*gin.Engine, *APIHandler) {
	t.Helper()
	h := NewAPIHandler(store, cfg, nil, nil)
	h.Now = func() time.Time { return time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC) }
	return NewRouter(h, ratelimit.NewMemoryLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)), h
}

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"studentName":         "John Doe",
		"teacher":             "Mrs. Smith",
		"grade":               "5",
		"projectName":         "Volcano Experiment",
		"parentGuardianName":  "Jane Doe",
		"parentGuardianEmail": "jane@example.com",
		"consentGiven":        true,
	}
}

func jsonBody(t *testing.T, body interface{}) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	return &buf
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type errorsBody struct {
	Success bool                `json:"success"`
	Errors  []models.FieldError `json:"errors"`
	Message string              `json:"message"`
}

func decodeErrors(t *testing.T, w *httptest.ResponseRecorder) errorsBody {
	t.Helper()
	var body errorsBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func hasField(errs []models.FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestRegister_Valid(t *testing.T) {
	store := db.NewMockStore(nil)
	router, _ := newTestRouter(t, store, testConfig())

	w := doJSON(t, router, http.MethodPost, "/api/register", validBody())

	require.Equal(t, http.StatusCreated, w.Code)
	var resp models.RegistrationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 100, resp.ProjectID)
	assert.Equal(t, "2026-01-15T09:30:00.000Z", resp.Timestamp)
	assert.Equal(t, "Registration successful", resp.Message)

	rows := store.Registrations()
	require.Len(t, rows, 1)
	assert.Equal(t, "Volcano Experiment", rows[0].ProjectName)
	assert.True(t, rows[0].PrimaryProjectRecord)
}

func TestRegister_SequentialIDs(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())

	first := doJSON(t, router, http.MethodPost, "/api/register", validBody())
	second := doJSON(t, router, http.MethodPost, "/api/register", validBody())

	assert.Contains(t, first.Body.String(), `"projectId":100`)
	assert.Contains(t, second.Body.String(), `"projectId":101`)
}

func TestRegister_WithAdditionalStudents(t *testing.T) {
	store := db.NewMockStore(nil)
	router, _ := newTestRouter(t, store, testConfig())
	body := validBody()
	delete(body, "projectName")
	body["additionalStudents"] = []map[string]interface{}{
		{"studentName": "Jane Smith", "teacher": "Mr. Johnson", "grade": "4"},
		{"studentName": "Bob Wilson", "teacher": "Ms. Williams", "parentGuardianEmail": "bob.parent@example.com"},
	}

	w := doJSON(t, router, http.MethodPost, "/api/register", body)

	require.Equal(t, http.StatusCreated, w.Code)
	rows := store.Registrations()
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].ProjectName)
	assert.Equal(t, 3, rows[0].StudentCount())
	assert.Equal(t, "Jane Smith", rows[0].Students[1].Name)
	assert.Equal(t, "bob.parent@example.com", rows[0].Students[2].ParentGuardianEmail)
}

func TestRegister_MissingRequiredField(t *testing.T) {
	store := db.NewMockStore(nil)
	router, _ := newTestRouter(t, store, testConfig())
	body := validBody()
	delete(body, "teacher")

	w := doJSON(t, router, http.MethodPost, "/api/register", body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeErrors(t, w)
	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "teacher", resp.Errors[0].Field)
	assert.Equal(t, "Teacher is required", resp.Errors[0].Message)
	assert.Empty(t, store.Registrations())
}

func TestRegister_EmptyBody(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())

	w := doJSON(t, router, http.MethodPost, "/api/register", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeErrors(t, w)
	assert.True(t, hasField(resp.Errors, "studentName"))
	assert.True(t, hasField(resp.Errors, "parentGuardianEmail"))
	assert.True(t, hasField(resp.Errors, "consentGiven"))
}

func TestRegister_TooManyAdditionalStudents(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())
	body := validBody()
	extra := map[string]interface{}{"studentName": "Extra", "teacher": "Mr. Wilson"}
	body["additionalStudents"] = []interface{}{extra, extra, extra, extra}

	w := doJSON(t, router, http.MethodPost, "/api/register", body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeErrors(t, w)
	require.True(t, hasField(resp.Errors, "additionalStudents"))
	assert.Contains(t, w.Body.String(), "Maximum 3 additional students allowed")
}

func TestRegister_ConsentFalse(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())
	body := validBody()
	body["consentGiven"] = false

	w := doJSON(t, router, http.MethodPost, "/api/register", body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeErrors(t, w)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "consentGiven", resp.Errors[0].Field)
	assert.Equal(t, "Consent must be given to register", resp.Errors[0].Message)
}

func TestRegister_InvalidEmail(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())
	body := validBody()
	body["parentGuardianEmail"] = "invalid-email"

	w := doJSON(t, router, http.MethodPost, "/api/register", body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeErrors(t, w)
	assert.True(t, hasField(resp.Errors, "parentGuardianEmail"))
}

func TestRegister_WrongType(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())
	body := validBody()
	body["consentGiven"] = "yes"

	w := doJSON(t, router, http.MethodPost, "/api/register", body)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeErrors(t, w)
	assert.True(t, hasField(resp.Errors, "consentGiven"))
}

func TestRegister_MalformedJSON(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"studentName":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, hasField(decodeErrors(t, w).Errors, "body"))
}

func TestRegister_StoreFailure(t *testing.T) {
	store := brokenStore{err: errors.New("Database connection failed")}
	router, _ := newTestRouter(t, store, testConfig())

	w := doJSON(t, router, http.MethodPost, "/api/register", validBody())

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeErrors(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, registrationFailedMessage, resp.Message)
	assert.NotContains(t, w.Body.String(), "Database connection failed")
}

func TestRegister_ProjectIDFailure(t *testing.T) {
	store := brokenStore{nextIDErr: errors.New("counter down")}
	router, _ := newTestRouter(t, store, testConfig())

	w := doJSON(t, router, http.MethodPost, "/api/register", validBody())

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestGetTeachers(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())

	w := doJSON(t, router, http.MethodGet, "/api/teachers", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success  bool             `json:"success"`
		Teachers []models.Teacher `json:"teachers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Teachers, models.Teacher{Name: "Ms. Johnson", Grade: "3rd"})
}

func TestGetTeachers_Error(t *testing.T) {
	router, _ := newTestRouter(t, brokenStore{err: errors.New("boom")}, testConfig())

	w := doJSON(t, router, http.MethodGet, "/api/teachers", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to fetch teachers")
}

// unreadableSheets fails every range read, so lookups fall back to defaults.
type unreadableSheets struct{}

func (unreadableSheets) Get(context.Context, string) ([][]interface{}, error) {
	return nil, errors.New("sheet not found")
}

func (unreadableSheets) Append(context.Context, string, [][]interface{}) error {
	return errors.New("sheet not found")
}

func TestLookups_ServeDefaultsWhenSheetsMissing(t *testing.T) {
	router, _ := newTestRouter(t, db.NewSheetService(unreadableSheets{}, nil, nil), testConfig())

	w := doJSON(t, router, http.MethodGet, "/api/teachers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `{"name":"Mrs. Smith","grade":"3"}`)

	w = doJSON(t, router, http.MethodGet, "/api/metadata", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"contactEmail":"sciencefair@school.edu"`)
}

func TestGetMetadata(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())

	w := doJSON(t, router, http.MethodGet, "/api/metadata", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Test Elementary School", resp["school"])
	assert.Equal(t, "science@test-school.edu", resp["contactEmail"])
	assert.Equal(t, "2026-03-31", resp["registrationDeadline"])
	assert.Equal(t, "2026-04-15", resp["scienceFairDate"])
}

func TestGetMetadata_Error(t *testing.T) {
	router, _ := newTestRouter(t, brokenStore{err: errors.New("boom")}, testConfig())

	w := doJSON(t, router, http.MethodGet, "/api/metadata", nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to fetch fair metadata")
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, db.NewMockStore(nil), testConfig())

	w := doJSON(t, router, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "development", resp["environment"])
	_, err := time.Parse(time.RFC3339, resp["timestamp"])
	assert.NoError(t, err)
}
