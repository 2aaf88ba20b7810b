package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// WorkbookStore is a RangeStore backed by a local .xlsx file, for running
// without Google access. Every append is saved to disk immediately.
type WorkbookStore struct {
	mu     sync.Mutex
	path   string
	file   *excelize.File
	logger *zap.Logger
}

// OpenWorkbook opens path, creating it with the registration sheets and
// their header rows when it does not exist.
func OpenWorkbook(path string, logger *zap.Logger) (*WorkbookStore, error) {
	if path == "" {
		return nil, errors.New("workbook path cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &WorkbookStore{path: path, logger: logger}

	if _, err := os.Stat(path); err == nil {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
		w.file = f
		logger.Info("opened workbook", zap.String("path", path), zap.Strings("sheets", f.GetSheetList()))
		return w, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat workbook %s: %w", path, err)
	}

	if err := w.seed(); err != nil {
		return nil, err
	}
	logger.Info("created workbook", zap.String("path", path))
	return w, nil
}

// seed creates the registration sheets with header rows. Teachers and Info
// are left out so the defaults apply until someone adds them.
func (w *WorkbookStore) seed() error {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ProjectsSheet); err != nil {
		return fmt.Errorf("failed to name projects sheet: %w", err)
	}
	if _, err := f.NewSheet(StudentsSheet); err != nil {
		return fmt.Errorf("failed to create students sheet: %w", err)
	}
	header := ProjectsHeader
	if err := f.SetSheetRow(ProjectsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write projects header: %w", err)
	}
	header = StudentsHeader
	if err := f.SetSheetRow(StudentsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write students header: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	w.file = f
	return nil
}

// Close releases the workbook.
func (w *WorkbookStore) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

type a1Range struct {
	sheet    string
	firstCol int
	lastCol  int
}

// parseRange understands "Sheet!A:B", "Sheet!A" and "A:B" (first sheet).
func (w *WorkbookStore) parseRange(rng string) (a1Range, error) {
	var r a1Range
	cols := rng
	if i := strings.LastIndexByte(rng, '!'); i >= 0 {
		r.sheet = strings.Trim(rng[:i], "'")
		cols = rng[i+1:]
	} else {
		r.sheet = w.file.GetSheetName(0)
	}
	first, last, found := strings.Cut(cols, ":")
	if !found {
		last = first
	}
	var err error
	if r.firstCol, err = excelize.ColumnNameToNumber(first); err != nil {
		return r, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	if r.lastCol, err = excelize.ColumnNameToNumber(last); err != nil {
		return r, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	if r.lastCol < r.firstCol {
		return r, fmt.Errorf("invalid range %q: columns reversed", rng)
	}
	return r, nil
}

func (w *WorkbookStore) Get(_ context.Context, rng string) ([][]interface{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	r, err := w.parseRange(rng)
	if err != nil {
		return nil, err
	}
	rows, err := w.file.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rng, err)
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, 0, r.lastCol-r.firstCol+1)
		for col := r.firstCol; col <= r.lastCol && col <= len(row); col++ {
			cells = append(cells, row[col-1])
		}
		values = append(values, cells)
	}
	return values, nil
}

func (w *WorkbookStore) Append(_ context.Context, rng string, values [][]interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	r, err := w.parseRange(rng)
	if err != nil {
		return err
	}
	idx, err := w.file.GetSheetIndex(r.sheet)
	if err != nil {
		return fmt.Errorf("failed to look up sheet %s: %w", r.sheet, err)
	}
	if idx == -1 {
		if _, err := w.file.NewSheet(r.sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", r.sheet, err)
		}
	}
	existing, err := w.file.GetRows(r.sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", r.sheet, err)
	}

	next := len(existing) + 1
	for i, row := range values {
		cell, err := excelize.CoordinatesToCellName(r.firstCol, next+i)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", next+i, err)
		}
		if err := w.file.SetSheetRow(r.sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", next+i, r.sheet, err)
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	w.logger.Debug("appended rows", zap.String("range", rng), zap.Int("rows", len(values)))
	return nil
}
