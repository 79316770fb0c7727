package projection

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/malla/core"
)

// Types
const (
	TypeManual    = "manual"
	TypeAutomatic = "automatica"
)

var AllTypes = []string{TypeManual, TypeAutomatic}

// Ramo is a course placed in a projected semester.
type Ramo struct {
	Code     string `json:"codigo" db:"code"`
	Name     string `json:"asignatura" db:"name"`
	Credits  int    `json:"creditos" db:"credits"`
	Level    int    `json:"nivel" db:"level"`
	Period   string `json:"periodo" db:"period"`
	Semester int    `json:"semestre" db:"semester"`
}

type Semester struct {
	Number  int    `json:"numero"`
	Period  string `json:"periodo"`
	Credits int    `json:"creditos"`
	Ramos   []Ramo `json:"ramos"`
}

// Data is the full detail of a projection, stored as a JSON document.
type Data struct {
	Plan      []Semester `json:"plan"`
	Ramos     []Ramo     `json:"ramos"`
	CreatedAt time.Time  `json:"fecha_creacion"`
}

// Projection is a saved multi-semester plan of a student.
type Projection struct {
	ID                  string    `json:"id"`
	StudentID           string    `json:"rut"`
	CareerCode          string    `json:"codigo_carrera"`
	Type                string    `json:"tipo"`
	Name                string    `json:"nombre"`
	TotalCredits        int       `json:"total_creditos"`
	TotalCourses        int       `json:"total_ramos"`
	Semesters           int       `json:"semestres_proyectados"`
	EstimatedGraduation string    `json:"fecha_egreso_estimada,omitempty"`
	ProjectedPeriod     string    `json:"periodo_proyectado,omitempty"`
	Data                Data      `json:"datos_completos"`
	IsFavorite          bool      `json:"es_favorita"`
	CreatedAt           time.Time `json:"created_at"` // UTC
	UpdatedAt           time.Time `json:"updated_at"` // UTC
}

// Validate checks a projection before it is stored.
func (p *Projection) Validate(validate *validator.Validate) error {
	p.Name = core.CleanString(p.Name)
	p.CareerCode = core.CleanString(p.CareerCode)
	p.StudentID = core.CleanString(p.StudentID)
	if err := validate.Var(p.Type, "required,projtype"); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "tipo", Error: "invalid projection type"})
	}
	if p.StudentID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "rut", Error: "student is required"})
	}
	if p.CareerCode == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "codigo_carrera", Error: "career is required"})
	}
	if len(p.Name) > maxNameLen {
		return core.NewValidationError(nil, core.FieldError{Field: "nombre", Error: errNameTooLong})
	}
	return nil
}

// UpdateProjection defines what may be changed on a saved projection.
type UpdateProjection struct {
	Name       *string `json:"nombre" validate:"omitempty,max=120"`
	IsFavorite *bool   `json:"es_favorita"`
}

func (up *UpdateProjection) Validate(validate *validator.Validate) error {
	if up.Name != nil {
		name := core.CleanString(*up.Name)
		up.Name = &name
		if name == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "nombre", Error: "this field is required"})
		}
	}
	return validate.Struct(up)
}

type QueryFilter struct {
	StudentID    string `query:"-"`
	CareerCode   string `query:"carrera"`
	Type         string `query:"tipo"`
	OnlyFavorite bool   `query:"favoritas"`
}

func (qf *QueryFilter) Clean() {
	qf.CareerCode = core.CleanString(qf.CareerCode)
	qf.Type = core.CleanString(qf.Type, true /* lower */)
}

// DemandFilter narrows the course-demand aggregation.
type DemandFilter struct {
	CareerCode   string `query:"carrera"`
	Period       string `query:"periodo"`
	Type         string `query:"tipo"`
	OnlyFavorite bool   `query:"favoritas"`
}

// Clean normalizes the filter; period codes (202410) become labels (2024-1), the form ramos
// are stored with.
func (df *DemandFilter) Clean() {
	df.CareerCode = core.CleanString(df.CareerCode)
	df.Period = core.CleanString(df.Period)
	if year, term, ok := core.SplitPeriodCode(df.Period); ok {
		df.Period = year + "-" + term
	}
	df.Type = core.CleanString(df.Type, true /* lower */)
}

// Demand is the number of students (and projections) planning a course in a period.
type Demand struct {
	Code        string `json:"codigo" db:"code"`
	Name        string `json:"asignatura" db:"name"`
	Period      string `json:"periodo" db:"period"`
	Students    int    `json:"estudiantes" db:"students"`
	Projections int    `json:"proyecciones" db:"projections"`
}
