package domain

import "time"

// EnrollmentKind tags which storage scheme a record came from
type EnrollmentKind string

const (
	// EnrollmentLegacy records live in the flat per-user list
	EnrollmentLegacy EnrollmentKind = "legacy"
	// EnrollmentScoped records live under the gym-scoped key
	EnrollmentScoped EnrollmentKind = "scoped"
)

// Enrollment links a client to a class and the weekly slots they chose
type Enrollment struct {
	Kind             EnrollmentKind `json:"-"`
	ClientID         string         `json:"clientId"`
	ClaseID          int64          `json:"claseId"`
	GymID            string         `json:"gymId,omitempty"`
	Horarios         []string       `json:"horarios"`
	FechaInscripcion time.Time      `json:"fechaInscripcion"`
	// Nombre is a denormalized copy some legacy records carry
	Nombre string `json:"nombre,omitempty"`
}

// Matches reports whether the record is for the given class and, when gymID is set, gym
func (e Enrollment) Matches(classID int64, gymID string) bool {
	if e.ClaseID != classID {
		return false
	}
	return gymID == "" || e.GymID == "" || e.GymID == gymID
}

// EnrolledClass is an enrollment joined with its catalog class. When the class
// no longer exists Partial is true and only enrollment metadata is filled.
type EnrolledClass struct {
	ClaseID          int64                `json:"claseId"`
	GymID            string               `json:"gymId,omitempty"`
	Horarios         []string             `json:"horarios"`
	FechaInscripcion time.Time            `json:"fechaInscripcion"`
	Source           EnrollmentKind       `json:"source"`
	Partial          bool                 `json:"partial"`
	Nombre           string               `json:"nombre,omitempty"`
	Descripcion      string               `json:"descripcion,omitempty"`
	Imagen           string               `json:"imagen,omitempty"`
	Activa           bool                 `json:"activa"`
	DiasHorarios     map[Weekday][]string `json:"diasHorarios,omitempty"`
}
