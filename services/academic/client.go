// Package academicsvc talks to the university's academic-records API.
package academicsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/malla/core"
	"github.com/trezcool/malla/core/academic"
)

// curriculumAuthHeader carries the curriculum service token.
const curriculumAuthHeader = "X-HAWAII-AUTH"

type Client struct {
	conf   core.AcademicConfig
	http   *http.Client
	logger core.Logger
}

var _ academic.Provider = (*Client)(nil)

func NewClient(conf core.AcademicConfig, logger core.Logger) *Client {
	return &Client{
		conf:   conf,
		http:   &http.Client{Timeout: conf.Timeout},
		logger: logger,
	}
}

type loginResponse struct {
	Error   string            `json:"error"`
	RUT     string            `json:"rut"`
	Careers []academic.Career `json:"carreras"`
}

// Login checks the student's credentials and returns the student with their careers.
func (c *Client) Login(ctx context.Context, email, password string) (academic.Student, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conf.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return academic.Student{}, errors.Wrap(err, "building login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return academic.Student{}, err
	}
	var resp loginResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return academic.Student{}, errors.Wrap(academic.ErrMalformedResponse, "decoding login response")
	}
	if resp.Error != "" {
		return academic.Student{}, academic.ErrInvalidCredentials
	}
	if resp.RUT == "" {
		return academic.Student{}, errors.Wrap(academic.ErrMalformedResponse, "login response without rut")
	}
	return academic.Student{RUT: resp.RUT, Careers: resp.Careers}, nil
}

func (c *Client) Curriculum(ctx context.Context, careerCode, catalogCode string) ([]academic.Course, error) {
	q := url.Values{}
	q.Set("cod", careerCode+"-"+catalogCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.conf.CurriculumURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building curriculum request")
	}
	if c.conf.CurriculumToken != "" {
		req.Header.Set(curriculumAuthHeader, c.conf.CurriculumToken)
	}

	courses := make([]academic.Course, 0)
	if err = c.getList(req, &courses); err != nil {
		return nil, errors.Wrapf(err, "fetching curriculum %s-%s", careerCode, catalogCode)
	}
	return courses, nil
}

func (c *Client) Completion(ctx context.Context, studentID, careerCode string) ([]academic.Attempt, error) {
	q := url.Values{}
	q.Set("rut", studentID)
	q.Set("codcarrera", careerCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.conf.CompletionURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building completion request")
	}

	attempts := make([]academic.Attempt, 0)
	if err = c.getList(req, &attempts); err != nil {
		return nil, errors.Wrapf(err, "fetching completion of %s", studentID)
	}
	return attempts, nil
}

// getList decodes a JSON array body into dst; anything else is a malformed response.
func (c *Client) getList(req *http.Request, dst interface{}) error {
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '[' {
		return academic.ErrMalformedResponse
	}
	if err = json.Unmarshal(body, dst); err != nil {
		c.logger.Warn("undecodable academic API response", errors.Wrap(err, req.URL.Path))
		return academic.ErrMalformedResponse
	}
	return nil
}

// do sends the request; transport errors and 5xx answers mean the API is unavailable.
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(academic.ErrUnavailable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(academic.ErrUnavailable, err.Error())
	}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, errors.Wrapf(academic.ErrUnavailable, "status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if req.URL.String() == c.conf.LoginURL {
			return nil, academic.ErrInvalidCredentials
		}
		return nil, errors.Wrapf(academic.ErrUnavailable, "status %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, errors.Wrapf(academic.ErrMalformedResponse, "status %d", resp.StatusCode)
	}
	return body, nil
}
