package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/malla/core"
)

var (
	periodShortRegex = regexp.MustCompile(`^(\d{4})[-/ ]?([12])$`) // 2024-1, 20241

	errInvalidPeriod = errors.New("invalid academic period")
)

// Period is a regular academic term: Term is 1 (first semester) or 2 (second semester).
type Period struct {
	Year int `json:"anio"`
	Term int `json:"semestre"`
}

// ParsePeriod accepts the period code form (202410, 202420) and the short forms
// (2024-1, 2024/2, 20241).
func ParsePeriod(s string) (Period, error) {
	y, t, ok := core.SplitPeriodCode(s)
	if !ok {
		m := periodShortRegex.FindStringSubmatch(s)
		if m == nil {
			return Period{}, errors.Wrapf(errInvalidPeriod, "%q", s)
		}
		y, t = m[1], m[2]
	}
	year, _ := strconv.Atoi(y)
	term, _ := strconv.Atoi(t)
	return Period{Year: year, Term: term}, nil
}

// PeriodFromCode maps a numeric period (YYYYSS) to its regular term; SS values other than
// 10 and 20 (summer/winter sessions) map to the regular term they belong to.
func PeriodFromCode(code int64) (Period, bool) {
	year, ss := int(code/100), int(code%100)
	if year < 1900 || ss < 10 || ss >= 30 {
		return Period{}, false
	}
	return Period{Year: year, Term: ss / 10}, true
}

// CurrentPeriod returns the term in progress at t: March to July is the first term,
// August to February the second (January and February belong to the previous year's).
func CurrentPeriod(t time.Time) Period {
	switch m := t.Month(); {
	case m <= time.February:
		return Period{Year: t.Year() - 1, Term: 2}
	case m <= time.July:
		return Period{Year: t.Year(), Term: 1}
	default:
		return Period{Year: t.Year(), Term: 2}
	}
}

func (p Period) IsZero() bool { return p.Year == 0 && p.Term == 0 }

func (p Period) Next() Period {
	if p.Term >= 2 {
		return Period{Year: p.Year + 1, Term: 1}
	}
	return Period{Year: p.Year, Term: 2}
}

func (p Period) Prev() Period {
	if p.Term <= 1 {
		return Period{Year: p.Year - 1, Term: 2}
	}
	return Period{Year: p.Year, Term: 1}
}

// Add advances (or rewinds, for negative n) the period by n terms.
func (p Period) Add(n int) Period {
	idx := p.Year*2 + (p.Term - 1) + n
	return Period{Year: idx / 2, Term: idx%2 + 1}
}

// Before reports whether p comes strictly before o.
func (p Period) Before(o Period) bool {
	return p.Year < o.Year || (p.Year == o.Year && p.Term < o.Term)
}

// Code is the numeric period code: 202410, 202420.
func (p Period) Code() string {
	return fmt.Sprintf("%04d%d0", p.Year, p.Term)
}

// Label is the human form: 2024-1.
func (p Period) Label() string {
	return fmt.Sprintf("%04d-%d", p.Year, p.Term)
}

func (p Period) String() string { return p.Label() }

// StartDate is the day the term starts: March 1st or August 1st.
func (p Period) StartDate() time.Time {
	month := time.March
	if p.Term == 2 {
		month = time.August
	}
	return time.Date(p.Year, month, 1, 0, 0, 0, 0, time.UTC)
}
