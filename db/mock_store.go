package db

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"sciencefair-registration/models"
)

// MockStore is an in-memory Store for end-to-end runs without a spreadsheet.
type MockStore struct {
	mu            sync.Mutex
	nextID        int
	registrations []models.ProjectRow
	logger        *zap.Logger
}

// NewMockStore returns an empty MockStore whose first project id is FirstProjectID.
func NewMockStore(logger *zap.Logger) *MockStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockStore{nextID: FirstProjectID, logger: logger}
}

func (m *MockStore) NextProjectID(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *MockStore) AppendRegistration(_ context.Context, rows []models.ProjectRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = append(m.registrations, rows...)
	m.logger.Info("mock: added registration", zap.Int("rows", len(rows)))
	return nil
}

func (m *MockStore) GetTeachers(_ context.Context) ([]models.Teacher, error) {
	return []models.Teacher{
		{Name: "Ms. Johnson", Grade: "3rd"},
		{Name: "Mr. Smith", Grade: "4th"},
		{Name: "Mrs. Davis", Grade: "5th"},
		{Name: "Mr. Wilson", Grade: "6th"},
	}, nil
}

func (m *MockStore) GetFairMetadata(_ context.Context) (models.FairMetadata, error) {
	return models.FairMetadata{
		School:               "Test Elementary School",
		ContactEmail:         "science@test-school.edu",
		RegistrationDeadline: "2026-03-31",
		ScienceFairDate:      "2026-04-15",
	}, nil
}

// Registrations returns a copy of everything appended so far.
func (m *MockStore) Registrations() []models.ProjectRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ProjectRow, len(m.registrations))
	copy(out, m.registrations)
	return out
}

// Reset clears stored rows and restarts ids at FirstProjectID.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = nil
	m.nextID = FirstProjectID
}
