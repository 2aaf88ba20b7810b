package db

import (
	"context"
	"errors"
	"sync"

	"sciencefair-registration/models"
)

// Named ranges of the registration spreadsheet
const (
	ProjectsSheet  = "Registrations-Projects"
	StudentsSheet  = "Registrations-Students"
	TeachersSheet  = "Teachers"
	InfoSheet      = "Info"
	ProjectsRange  = ProjectsSheet + "!A:AB"
	StudentsRange  = StudentsSheet + "!A:H"
	ProjectIDRange = ProjectsSheet + "!A:A"
	TeachersRange  = TeachersSheet + "!A:B"
	InfoRange      = InfoSheet + "!A:B"
)

// FirstProjectID is assigned when no project ids exist yet.
const FirstProjectID = 100

// ErrSaveRegistration is returned for any failure writing a registration.
// The underlying cause is logged, not returned.
var ErrSaveRegistration = errors.New("failed to save registration to the spreadsheet")

// ErrUsingDefaults accompanies the built-in teacher list or fair metadata
// when the sheet could not be read. The values are usable but must not be
// cached.
var ErrUsingDefaults = errors.New("sheet unavailable, serving defaults")

// Store is the registration datastore used by the API handlers.
type Store interface {
	NextProjectID(ctx context.Context) (int, error)
	AppendRegistration(ctx context.Context, rows []models.ProjectRow) error
	GetTeachers(ctx context.Context) ([]models.Teacher, error)
	GetFairMetadata(ctx context.Context) (models.FairMetadata, error)
}

// RangeStore reads and appends raw cell values addressed by A1 ranges.
type RangeStore interface {
	Get(ctx context.Context, rng string) ([][]interface{}, error)
	Append(ctx context.Context, rng string, values [][]interface{}) error
}

// Counter hands out fallback project ids when the id column cannot be read.
type Counter interface {
	Next(ctx context.Context) (int, error)
}

// MemoryCounter is a process-local Counter
type MemoryCounter struct {
	mu   sync.Mutex
	next int
}

// NewMemoryCounter returns a counter whose first value is start.
func NewMemoryCounter(start int) *MemoryCounter {
	return &MemoryCounter{next: start}
}

func (c *MemoryCounter) Next(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	return id, nil
}

// DefaultTeachers is served when the Teachers sheet cannot be read.
func DefaultTeachers() []models.Teacher {
	return []models.Teacher{
		{Name: "Mrs. Smith", Grade: "3"},
		{Name: "Mr. Johnson", Grade: "4"},
		{Name: "Ms. Williams", Grade: "5"},
		{Name: "Dr. Brown", Grade: "K"},
		{Name: "Mrs. Davis", Grade: "1"},
		{Name: "Mr. Wilson", Grade: "2"},
	}
}

// DefaultFairMetadata is served when the Info sheet cannot be read.
func DefaultFairMetadata() models.FairMetadata {
	return models.FairMetadata{
		School:               "School",
		ContactEmail:         "sciencefair@school.edu",
		RegistrationDeadline: "December 15, 2025",
		ScienceFairDate:      "February 10, 2026",
	}
}
