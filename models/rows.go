package models

// StudentSlot is one student's flattened fields inside a project row
type StudentSlot struct {
	Name                     string
	Teacher                  string
	Grade                    string
	ParentGuardianName       string
	ParentGuardianEmail      string
	ParentWillingToVolunteer bool
}

// Empty reports whether the slot holds no student.
func (s StudentSlot) Empty() bool {
	return s.Name == ""
}

// ProjectRow is the wide record written once per registration.
// Students[0] is the primary student; later slots keep their position
// even when an earlier one is empty.
type ProjectRow struct {
	ProjectID            int
	ProjectName          string
	PrimaryProjectRecord bool
	Students             [MaxStudents]StudentSlot
	Timestamp            string
}

// StudentRow is the narrow record written once per student
type StudentRow struct {
	ProjectID   int
	ProjectName string
	StudentSlot
}

// NewProjectRow builds the primary project row for a validated request.
func NewProjectRow(req RegistrationRequest, projectID int, timestamp string) ProjectRow {
	row := ProjectRow{
		ProjectID:            projectID,
		ProjectName:          req.ProjectName,
		PrimaryProjectRecord: true,
		Timestamp:            timestamp,
	}
	row.Students[0] = StudentSlot{
		Name:                     req.StudentName,
		Teacher:                  req.Teacher,
		Grade:                    req.Grade,
		ParentGuardianName:       req.ParentGuardianName,
		ParentGuardianEmail:      req.ParentGuardianEmail,
		ParentWillingToVolunteer: req.ParentWillingToVolunteer,
	}
	for i, s := range req.AdditionalStudents {
		if i+1 >= MaxStudents {
			break
		}
		row.Students[i+1] = StudentSlot{
			Name:                     s.StudentName,
			Teacher:                  s.Teacher,
			Grade:                    s.Grade,
			ParentGuardianName:       s.ParentGuardianName,
			ParentGuardianEmail:      s.ParentGuardianEmail,
			ParentWillingToVolunteer: s.ParentWillingToVolunteer,
		}
	}
	return row
}

// StudentRows expands the occupied slots of a project row, in slot order.
func (r ProjectRow) StudentRows() []StudentRow {
	rows := make([]StudentRow, 0, MaxStudents)
	for _, slot := range r.Students {
		if slot.Empty() {
			continue
		}
		rows = append(rows, StudentRow{
			ProjectID:   r.ProjectID,
			ProjectName: r.ProjectName,
			StudentSlot: slot,
		})
	}
	return rows
}

// StudentCount is the number of occupied slots.
func (r ProjectRow) StudentCount() int {
	n := 0
	for _, slot := range r.Students {
		if !slot.Empty() {
			n++
		}
	}
	return n
}
