package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/malla/core/academic"
	"github.com/trezcool/malla/core/planner"
	"github.com/trezcool/malla/core/projection"
	"github.com/trezcool/malla/tests"
)

func startSession(t *testing.T, env testEnv, token string) SessionResponse {
	rec := env.serve(httpTest{method: http.MethodPost, path: "/v1/careers/" + testCareer + "/sessions", token: token})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sess SessionResponse
	unmarshall(t, rec, &sess)
	return sess
}

func doAction(t *testing.T, env testEnv, token, path string, body []byte, wantCode int) planner.Result {
	rec := env.serve(httpTest{method: http.MethodPost, path: path, token: token, body: body})
	require.Equal(t, wantCode, rec.Code, rec.Body.String())
	var res planner.Result
	unmarshall(t, rec, &res)
	return res
}

func Test_plannerApi_auth(t *testing.T) {
	env := setup(t)
	staff := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@ucn.cl", "", []string{"admin:"}, true)
	forbidden := marshallObj(t, httpErr{Error: "permission denied"})

	runHTTPTests(t, env, []httpTest{
		{name: "careers: auth required", path: "/v1/careers", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "careers: student required", path: "/v1/careers", token: getToken(t, env.conf, staff),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "sessions: student required", method: http.MethodPost, path: "/v1/careers/" + testCareer + "/sessions",
			token: getToken(t, env.conf, staff), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "invalid token", path: "/v1/careers", token: "not-a-token",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
	})
}

func Test_plannerApi_careers(t *testing.T) {
	env := setup(t)
	token := getStudentToken(t, env.conf, testStudent())

	runHTTPTests(t, env, []httpTest{
		{name: "careers", path: "/v1/careers", token: token, wantCode: http.StatusOK, wantData: marshallObj(t, testStudent().Careers)},
		{
			name: "unknown career", path: "/v1/careers/0000/malla", token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "career not found"}),
		},
		{
			name: "unknown career session", method: http.MethodPost, path: "/v1/careers/0000/sessions", token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "career not found"}),
		},
	})
}

func Test_plannerApi_curriculum(t *testing.T) {
	env := setup(t)
	token := getStudentToken(t, env.conf, testStudent())

	rec := env.serve(httpTest{path: "/v1/careers/" + testCareer + "/malla", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var progress planner.Progress
	unmarshall(t, rec, &progress)
	assert.Equal(t, 4, progress.TotalCourses)
	assert.Equal(t, 24, progress.TotalCredits)
	assert.Equal(t, 1, progress.ApprovedCourses)
	assert.Equal(t, 6, progress.ApprovedCredits)
	assert.Equal(t, 25.0, progress.Percentage)
	require.Len(t, progress.Levels, 3)
	assert.Equal(t, 1, progress.Levels[0].Level)
}

func Test_plannerApi_manualFlow(t *testing.T) {
	env := setup(t)
	token := getStudentToken(t, env.conf, testStudent())
	base := "/v1/sessions/"

	sess := startSession(t, env, token)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, planner.Period{Year: 2024, Term: 2}, sess.Period)
	assert.Equal(t, 10, sess.CreditCap)
	assert.Equal(t, 1, sess.Completed)
	assert.Equal(t, 3, sess.Pending)
	require.Len(t, sess.Eligible, 1)
	require.Len(t, sess.Eligible[0].Courses, 1)
	assert.Equal(t, "INF101", sess.Eligible[0].Courses[0].Code)

	path := base + sess.ID

	// prerequisites are enforced
	res := doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "INF-201"}`), http.StatusConflict)
	assert.Equal(t, planner.ViolationPrerequisites, res.Violation)
	require.NotNil(t, res.Prereqs)
	assert.Equal(t, []string{"INF102"}, res.Prereqs.Pending)

	// unknown course
	res = doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "XYZ999"}`), http.StatusConflict)
	assert.Equal(t, planner.ViolationUnknownCourse, res.Violation)

	// nothing to commit nor rewind yet
	res = doAction(t, env, token, path+"/commit", nil, http.StatusConflict)
	assert.Equal(t, planner.ViolationEmptySelection, res.Violation)
	res = doAction(t, env, token, path+"/rewind", nil, http.StatusConflict)
	assert.Equal(t, planner.ViolationNothingToRewind, res.Violation)

	// cannot save a running simulation
	rec := env.serve(httpTest{method: http.MethodPost, path: path + "/save", token: token})
	assert.Equal(t, http.StatusConflict, rec.Code)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), marshallObj(t, httpErr{Error: "finalize the projection before saving it"}))
	require.NoError(t, err)
	assert.True(t, ok, rec.Body.String())

	// codes are normalized
	res = doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "inf-101"}`), http.StatusOK)
	assert.True(t, res.Selected)
	assert.Equal(t, "INF101", res.Course)
	assert.Equal(t, 6, res.Credits)

	res = doAction(t, env, token, path+"/commit", nil, http.StatusOK)
	require.NotNil(t, res.Block)
	assert.Equal(t, planner.Period{Year: 2024, Term: 2}, res.Block.Period)
	assert.Equal(t, 0, res.Credits)

	// rewind brings the semester back as the selection
	res = doAction(t, env, token, path+"/rewind", nil, http.StatusOK)
	require.NotNil(t, res.Block)
	assert.Equal(t, 6, res.Credits)
	doAction(t, env, token, path+"/commit", nil, http.StatusOK)

	rec = env.serve(httpTest{path: path + "/eligible", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var eligible []planner.LevelGroup
	unmarshall(t, rec, &eligible)
	require.Len(t, eligible, 1)
	assert.Equal(t, 2, eligible[0].Level)

	doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "INF102"}`), http.StatusOK)
	doAction(t, env, token, path+"/commit", nil, http.StatusOK)
	doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "INF201"}`), http.StatusOK)
	res = doAction(t, env, token, path+"/commit", nil, http.StatusOK)
	assert.Equal(t, planner.OutcomeFinalized, res.Outcome)

	// finalized is terminal
	res = doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "INF101"}`), http.StatusConflict)
	assert.Equal(t, planner.ViolationFinalized, res.Violation)
	rec = env.serve(httpTest{path: path + "/eligible", token: token})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`[]`)}, rec)

	rec = env.serve(httpTest{method: http.MethodPost, path: path + "/finalize", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fin FinalizeResponse
	unmarshall(t, rec, &fin)
	assert.Equal(t, planner.OutcomeFinalized, fin.Result.Outcome)
	assert.Len(t, fin.Plan.Blocks, 3)

	// save
	rec = env.serve(httpTest{method: http.MethodPost, path: path + "/save", token: token, body: []byte(`{"nombre": " Mi plan "}`)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var proj projection.Projection
	unmarshall(t, rec, &proj)
	assert.NotEmpty(t, proj.ID)
	assert.Equal(t, "Mi plan", proj.Name)
	assert.Equal(t, testRUT, proj.StudentID)
	assert.Equal(t, testCareer, proj.CareerCode)
	assert.Equal(t, projection.TypeManual, proj.Type)
	assert.Equal(t, 18, proj.TotalCredits)
	assert.Equal(t, 3, proj.TotalCourses)
	assert.Equal(t, 3, proj.Semesters)
	assert.Equal(t, "202520", proj.ProjectedPeriod)
	assert.Equal(t, "2026-02-01", proj.EstimatedGraduation)
	require.Len(t, proj.Data.Plan, 3)
	assert.Equal(t, "2024-2", proj.Data.Plan[0].Period)

	// saving again returns the stored projection
	rec = env.serve(httpTest{method: http.MethodPost, path: path + "/save", token: token})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var again projection.Projection
	unmarshall(t, rec, &again)
	assert.Equal(t, proj.ID, again.ID)

	rec = env.serve(httpTest{path: "/v1/projections", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var projs []projection.Projection
	unmarshall(t, rec, &projs)
	require.Len(t, projs, 1)
	assert.Equal(t, proj.ID, projs[0].ID)

	// abandon
	rec = env.serve(httpTest{method: http.MethodDelete, path: path, token: token})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	runHTTPTests(t, env, []httpTest{
		{
			name: "abandoned session", path: path, token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: planner.ErrSessionNotFound.Error()}),
		},
	})
}

func Test_plannerApi_creditCap(t *testing.T) {
	env := setup(t)
	bob := academic.Student{RUT: "22222222-2", Careers: testStudent().Careers}
	token := getStudentToken(t, env.conf, bob)

	sess := startSession(t, env, token)
	assert.Equal(t, 0, sess.Completed)
	path := "/v1/sessions/" + sess.ID

	doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "INF101"}`), http.StatusOK)
	res := doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "MAT101"}`), http.StatusConflict)
	assert.Equal(t, planner.ViolationCreditCap, res.Violation)
	assert.Equal(t, 6, res.Credits)
	assert.Equal(t, 10, res.CreditCap)

	// toggling again deselects
	res = doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "INF101"}`), http.StatusOK)
	assert.False(t, res.Selected)
	assert.Equal(t, 0, res.Credits)
	doAction(t, env, token, path+"/toggle", []byte(`{"codigo": "MAT101"}`), http.StatusOK)

	// finalize commits the pending selection and leaves the rest unscheduled
	rec := env.serve(httpTest{method: http.MethodPost, path: path + "/finalize", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fin FinalizeResponse
	unmarshall(t, rec, &fin)
	require.Len(t, fin.Plan.Blocks, 1)
	assert.Equal(t, []string{"INF101", "INF102", "INF201"}, fin.Plan.Unscheduled)
}

func Test_plannerApi_validation(t *testing.T) {
	env := setup(t)
	token := getStudentToken(t, env.conf, testStudent())
	sess := startSession(t, env, token)

	runHTTPTests(t, env, []httpTest{
		{
			name: "code required", method: http.MethodPost, path: "/v1/sessions/" + sess.ID + "/toggle", token: token,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"codigo": "this field is required"}),
		},
		{
			name: "invalid code", method: http.MethodPost, path: "/v1/sessions/" + sess.ID + "/toggle", token: token,
			body: []byte(`{"codigo": "--"}`), wantCode: http.StatusBadRequest,
		},
	})
}

func Test_plannerApi_sessionOwnership(t *testing.T) {
	env := setup(t)
	token := getStudentToken(t, env.conf, testStudent())
	sess := startSession(t, env, token)

	other := academic.Student{RUT: "33333333-3", Careers: testStudent().Careers}
	otherToken := getStudentToken(t, env.conf, other)
	notFound := marshallObj(t, httpErr{Error: planner.ErrSessionNotFound.Error()})

	runHTTPTests(t, env, []httpTest{
		{name: "unknown session", path: "/v1/sessions/unknown", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "other student's session", path: "/v1/sessions/" + sess.ID, token: otherToken, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "other student's toggle", method: http.MethodPost, path: "/v1/sessions/" + sess.ID + "/toggle", token: otherToken,
			body: []byte(`{"codigo": "INF101"}`), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "other student's abandon", method: http.MethodDelete, path: "/v1/sessions/" + sess.ID, token: otherToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "own session", path: "/v1/sessions/" + sess.ID, token: token, wantCode: http.StatusOK},
	})
}

func Test_plannerApi_loadError(t *testing.T) {
	env := setup(t)
	token := getStudentToken(t, env.conf, testStudent())
	env.academic.Err = academic.ErrUnavailable
	noData := marshallObj(t, httpErr{Error: "academic data unavailable"})

	runHTTPTests(t, env, []httpTest{
		{
			name: "start", method: http.MethodPost, path: "/v1/careers/" + testCareer + "/sessions", token: token,
			wantCode: http.StatusBadGateway, wantData: noData,
		},
		{
			name: "auto", method: http.MethodPost, path: "/v1/careers/" + testCareer + "/auto", token: token,
			wantCode: http.StatusBadGateway, wantData: noData,
		},
		{name: "malla", path: "/v1/careers/" + testCareer + "/malla", token: token, wantCode: http.StatusBadGateway, wantData: noData},
	})
}

func Test_plannerApi_auto(t *testing.T) {
	env := setup(t)
	token := getStudentToken(t, env.conf, testStudent())
	path := "/v1/careers/" + testCareer + "/auto"

	// preview only
	rec := env.serve(httpTest{method: http.MethodPost, path: path, token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var preview projection.Projection
	unmarshall(t, rec, &preview)
	assert.Empty(t, preview.ID)
	assert.Equal(t, projection.TypeAutomatic, preview.Type)
	assert.Equal(t, 3, preview.Semesters)
	assert.Equal(t, 18, preview.TotalCredits)

	projs, err := env.projRepo.QueryProjections(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, projs)

	// saved
	rec = env.serve(httpTest{method: http.MethodPost, path: path, token: token, body: []byte(`{"guardar": true}`)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved projection.Projection
	unmarshall(t, rec, &saved)
	assert.NotEmpty(t, saved.ID)
	assert.Contains(t, saved.Name, "Proyección Automática")

	projs, err = env.projRepo.QueryProjections(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, projs, 1)
	assert.Equal(t, saved.ID, projs[0].ID)
}
