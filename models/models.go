package models

// MaxStudents is the number of student slots carried by a project row:
// the primary student plus up to three additional students.
const MaxStudents = 4

// AdditionalStudent is a co-presenter listed on a registration
type AdditionalStudent struct {
	StudentName              string `json:"studentName" validate:"required,max=200"`
	Teacher                  string `json:"teacher" validate:"required,max=200"`
	Grade                    string `json:"grade,omitempty" validate:"max=50"`
	ParentGuardianName       string `json:"parentGuardianName,omitempty" validate:"max=200"`
	ParentGuardianEmail      string `json:"parentGuardianEmail,omitempty" validate:"omitempty,max=200,email_format"`
	ParentWillingToVolunteer bool   `json:"parentWillingToVolunteer,omitempty"`
}

// RegistrationRequest is the body of POST /api/register
type RegistrationRequest struct {
	StudentName              string              `json:"studentName" validate:"required,max=200"`
	Teacher                  string              `json:"teacher" validate:"required,max=200"`
	Grade                    string              `json:"grade,omitempty" validate:"max=50"`
	ProjectName              string              `json:"projectName,omitempty" validate:"max=500"`
	ParentGuardianName       string              `json:"parentGuardianName" validate:"required,max=200"`
	ParentGuardianEmail      string              `json:"parentGuardianEmail" validate:"required,max=200,email_format"`
	ParentWillingToVolunteer bool                `json:"parentWillingToVolunteer,omitempty"`
	ConsentGiven             bool                `json:"consentGiven" validate:"consent"`
	AdditionalStudents       []AdditionalStudent `json:"additionalStudents,omitempty" validate:"omitempty,max=3,dive"`
}

// RegistrationResponse is returned after a successful registration
type RegistrationResponse struct {
	Success   bool   `json:"success"`
	ProjectID int    `json:"projectId"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message,omitempty"`
}

// FieldError describes one rejected field, using the dotted JSON path
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Teacher is one entry of the Teachers sheet
type Teacher struct {
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

// FairMetadata holds the key/value pairs of the Info sheet
type FairMetadata struct {
	School               string `json:"school"`
	ContactEmail         string `json:"contactEmail"`
	RegistrationDeadline string `json:"registrationDeadline"`
	ScienceFairDate      string `json:"scienceFairDate"`
}
