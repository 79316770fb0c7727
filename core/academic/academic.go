// Package academic holds the contracts of the university's academic-records API:
// the records it returns and the providers the planner consumes.
package academic

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMalformedResponse  = errors.New("malformed response from academic API")
	ErrUnavailable        = errors.New("academic API unavailable")
)

type (
	Career struct {
		Code    string `json:"codigo"`
		Name    string `json:"nombre"`
		Catalog string `json:"catalogo"`
	}

	Student struct {
		RUT     string   `json:"rut"`
		Careers []Career `json:"carreras"`
	}

	// Course is one entry of a curriculum (malla) as served by the academic API.
	// Prereq is a comma-separated list of course codes; it may be null, empty, or reference
	// codes that are not part of the curriculum.
	Course struct {
		Code    string  `json:"codigo"`
		Name    string  `json:"asignatura"`
		Credits int     `json:"creditos"`
		Level   int     `json:"nivel"`
		Prereq  *string `json:"prereq"`
	}

	// Attempt is one historical enrollment of a student in a course (avance).
	Attempt struct {
		Course     string `json:"course"`
		CourseName string `json:"course_name,omitempty"`
		Status     string `json:"status"`
		Period     Period `json:"period"`
		Credits    int    `json:"credits,omitempty"`
	}

	Authenticator interface {
		Login(ctx context.Context, email, password string) (Student, error)
	}

	CurriculumProvider interface {
		Curriculum(ctx context.Context, careerCode, catalogCode string) ([]Course, error)
	}

	CompletionProvider interface {
		Completion(ctx context.Context, studentID, careerCode string) ([]Attempt, error)
	}

	// Provider is the full academic API.
	Provider interface {
		Authenticator
		CurriculumProvider
		CompletionProvider
	}
)

// PrereqExpr returns the raw prerequisite expression, "" when null.
func (c Course) PrereqExpr() string {
	if c.Prereq == nil {
		return ""
	}
	return *c.Prereq
}

// Career returns the student's career with the given code.
func (s Student) Career(code string) (Career, bool) {
	code = strings.TrimSpace(code)
	for _, c := range s.Careers {
		if c.Code == code {
			return c, true
		}
	}
	return Career{}, false
}

// Period is an academic period identifier (e.g. 202410) that the API sends either as a
// JSON number or as a string.
type Period string

func (p *Period) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Period(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "decoding period")
	}
	*p = Period(n.String())
	return nil
}

// Int parses the period as a number; ok is false for unparsable periods.
func (p Period) Int() (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(p)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
