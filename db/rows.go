package db

import (
	"fmt"
	"strconv"
	"strings"

	"sciencefair-registration/models"
)

// ProjectsHeader and StudentsHeader label the columns written by
// ProjectValues and StudentValues.
var (
	ProjectsHeader = projectsHeader()
	StudentsHeader = []interface{}{
		"Project ID", "Project Name", "Student Name", "Teacher", "Grade",
		"Parent/Guardian Name", "Parent/Guardian Email", "Parent Willing To Volunteer",
	}
)

func projectsHeader() []interface{} {
	h := []interface{}{"Project ID", "Project Name", "Primary Project Record"}
	for i := 1; i <= models.MaxStudents; i++ {
		p := fmt.Sprintf("Student %d ", i)
		h = append(h,
			p+"Name", p+"Teacher", p+"Grade",
			p+"Parent/Guardian Name", p+"Parent/Guardian Email", p+"Parent Willing To Volunteer")
	}
	return append(h, "Timestamp")
}

func boolCell(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// ProjectValues flattens a project row into the 28 columns A:AB.
func ProjectValues(row models.ProjectRow) []interface{} {
	values := make([]interface{}, 0, 4+6*models.MaxStudents)
	values = append(values, row.ProjectID, row.ProjectName, boolCell(row.PrimaryProjectRecord))
	for _, s := range row.Students {
		values = append(values,
			s.Name, s.Teacher, s.Grade,
			s.ParentGuardianName, s.ParentGuardianEmail, boolCell(s.ParentWillingToVolunteer))
	}
	return append(values, row.Timestamp)
}

// StudentValues flattens a student row into the 8 columns A:H.
func StudentValues(row models.StudentRow) []interface{} {
	return []interface{}{
		row.ProjectID,
		row.ProjectName,
		row.Name,
		row.Teacher,
		row.Grade,
		row.ParentGuardianName,
		row.ParentGuardianEmail,
		boolCell(row.ParentWillingToVolunteer),
	}
}

// cellString renders a cell as the Sheets UI would show it.
func cellString(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case bool:
		return boolCell(c)
	default:
		return fmt.Sprint(c)
	}
}

func cellAt(row []interface{}, i int) string {
	if i < len(row) {
		return cellString(row[i])
	}
	return ""
}

// parseProjectID reads the leading integer of an id cell, so "105abc" and
// "12.7" give 105 and 12. Cells without leading digits are skipped.
func parseProjectID(v interface{}) (int, bool) {
	switch c := v.(type) {
	case float64:
		return int(c), true
	case int:
		return c, true
	}
	s := strings.TrimLeft(cellString(v), " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	id, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return id, true
}
