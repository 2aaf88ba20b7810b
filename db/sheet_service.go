package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"sciencefair-registration/models"
)

// SheetService maps registrations onto the spreadsheet ranges of a RangeStore.
type SheetService struct {
	Ranges  RangeStore
	Counter Counter
	Logger  *zap.Logger
}

// NewSheetService creates a SheetService. A nil counter falls back to a
// process-local counter starting at FirstProjectID.
func NewSheetService(ranges RangeStore, counter Counter, logger *zap.Logger) *SheetService {
	if counter == nil {
		counter = NewMemoryCounter(FirstProjectID)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetService{
		Ranges:  ranges,
		Counter: counter,
		Logger:  logger,
	}
}

// NextProjectID returns one more than the largest id in the projects sheet.
// Reads that fail are answered from the fallback counter.
func (s *SheetService) NextProjectID(ctx context.Context) (int, error) {
	values, err := s.Ranges.Get(ctx, ProjectIDRange)
	if err != nil {
		s.Logger.Warn("reading project ids failed, using fallback counter",
			zap.String("range", ProjectIDRange), zap.Error(err))
		id, cerr := s.Counter.Next(ctx)
		if cerr != nil {
			return 0, fmt.Errorf("fallback project id counter: %w", cerr)
		}
		return id, nil
	}

	maxID, found := 0, false
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue // header
		}
		id, ok := parseProjectID(row[0])
		if !ok {
			continue
		}
		if !found || id > maxID {
			maxID, found = id, true
		}
	}
	if !found {
		return FirstProjectID, nil
	}
	return maxID + 1, nil
}

// AppendRegistration writes the primary rows to the projects range and one
// row per student to the students range.
func (s *SheetService) AppendRegistration(ctx context.Context, rows []models.ProjectRow) error {
	projectValues := make([][]interface{}, 0, len(rows))
	studentValues := make([][]interface{}, 0, len(rows)*models.MaxStudents)
	projectIDs := make([]int, 0, len(rows))
	for _, row := range rows {
		if !row.PrimaryProjectRecord {
			continue
		}
		projectIDs = append(projectIDs, row.ProjectID)
		projectValues = append(projectValues, ProjectValues(row))
		for _, student := range row.StudentRows() {
			studentValues = append(studentValues, StudentValues(student))
		}
	}

	if err := s.Ranges.Append(ctx, ProjectsRange, projectValues); err != nil {
		s.Logger.Error("appending project rows failed",
			zap.String("range", ProjectsRange), zap.Int("rows", len(projectValues)), zap.Error(err))
		return ErrSaveRegistration
	}
	if len(studentValues) > 0 {
		if err := s.Ranges.Append(ctx, StudentsRange, studentValues); err != nil {
			// the project rows are already written and stay without their students
			s.Logger.Error("appending student rows failed, project rows left orphaned",
				zap.String("range", StudentsRange), zap.Int("rows", len(studentValues)),
				zap.Ints("orphanedProjectIds", projectIDs), zap.Error(err))
			return ErrSaveRegistration
		}
	}

	s.Logger.Info("appended registration rows",
		zap.Int("projects", len(projectValues)), zap.Int("students", len(studentValues)))
	return nil
}

// GetTeachers lists the Teachers sheet, or the default list together with
// ErrUsingDefaults when it is missing.
func (s *SheetService) GetTeachers(ctx context.Context) ([]models.Teacher, error) {
	values, err := s.Ranges.Get(ctx, TeachersRange)
	if err != nil {
		s.Logger.Warn("reading teachers failed, serving defaults",
			zap.String("range", TeachersRange), zap.Error(err))
		return DefaultTeachers(), ErrUsingDefaults
	}

	teachers := make([]models.Teacher, 0, len(values))
	for i, row := range values {
		if i == 0 {
			continue
		}
		name := cellAt(row, 0)
		if name == "" {
			continue
		}
		teachers = append(teachers, models.Teacher{Name: name, Grade: cellAt(row, 1)})
	}
	return teachers, nil
}

// Keys looked up in column A of the Info sheet
const (
	infoSchool               = "School"
	infoContact              = "Contact"
	infoRegistrationDeadline = "Registration Deadline"
	infoScienceFairDate      = "Science Fair Date"
)

// GetFairMetadata reads the key/value pairs of the Info sheet, or defaults
// together with ErrUsingDefaults when it is missing.
func (s *SheetService) GetFairMetadata(ctx context.Context) (models.FairMetadata, error) {
	values, err := s.Ranges.Get(ctx, InfoRange)
	if err != nil {
		s.Logger.Warn("reading fair metadata failed, serving defaults",
			zap.String("range", InfoRange), zap.Error(err))
		return DefaultFairMetadata(), ErrUsingDefaults
	}

	find := func(key string) string {
		for _, row := range values {
			if cellAt(row, 0) == key {
				return cellAt(row, 1)
			}
		}
		return ""
	}
	return models.FairMetadata{
		School:               find(infoSchool),
		ContactEmail:         find(infoContact),
		RegistrationDeadline: find(infoRegistrationDeadline),
		ScienceFairDate:      find(infoScienceFairDate),
	}, nil
}
