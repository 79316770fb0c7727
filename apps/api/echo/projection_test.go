package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/malla/core/projection"
	"github.com/trezcool/malla/tests"
)

func Test_projectionApi(t *testing.T) {
	env := setup(t)
	token := getStudentToken(t, env.conf, testStudent())
	ramo := projection.Ramo{Code: "INF101", Name: "Programación", Credits: 6, Level: 1, Period: "2024-2", Semester: 1}

	manual := testutil.CreateProjection(t, env.projRepo, testRUT, testCareer, projection.TypeManual, true, ramo)
	auto := testutil.CreateProjection(t, env.projRepo, testRUT, testCareer, projection.TypeAutomatic, false, ramo)
	others := testutil.CreateProjection(t, env.projRepo, "22222222-2", testCareer, projection.TypeManual, false, ramo)
	notFound := marshallObj(t, httpErr{Error: "not found"})

	runHTTPTests(t, env, []httpTest{
		{name: "auth required", path: "/v1/projections", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "by type", path: "/v1/projections?tipo=AUTOMATICA", token: token, wantCode: http.StatusOK, wantData: marshallList(t, auto)},
		{name: "favorites", path: "/v1/projections?favoritas=true", token: token, wantCode: http.StatusOK, wantData: marshallList(t, manual)},
		{name: "retrieve", path: "/v1/projections/" + manual.ID, token: token, wantCode: http.StatusOK, wantData: marshallObj(t, manual)},
		{name: "other student's", path: "/v1/projections/" + others.ID, token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "other student's delete", method: http.MethodDelete, path: "/v1/projections/" + others.ID, token: token,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "blank name", method: http.MethodPatch, path: "/v1/projections/" + auto.ID, token: token,
			body: []byte(`{"nombre": "  "}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"nombre": "this field is required"}),
		},
	})

	t.Run("own only", func(t *testing.T) {
		rec := env.serve(httpTest{path: "/v1/projections", token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var projs []projection.Projection
		unmarshall(t, rec, &projs)
		ids := make([]string, 0, len(projs))
		for _, p := range projs {
			ids = append(ids, p.ID)
		}
		assert.ElementsMatch(t, []string{manual.ID, auto.ID}, ids)
	})

	t.Run("favorite moves", func(t *testing.T) {
		rec := env.serve(httpTest{
			method: http.MethodPatch, path: "/v1/projections/" + auto.ID, token: token,
			body: []byte(`{"nombre": "Plan B", "es_favorita": true}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated projection.Projection
		unmarshall(t, rec, &updated)
		assert.Equal(t, "Plan B", updated.Name)
		assert.True(t, updated.IsFavorite)

		rec = env.serve(httpTest{path: "/v1/projections/" + manual.ID, token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		var prev projection.Projection
		unmarshall(t, rec, &prev)
		assert.False(t, prev.IsFavorite)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.serve(httpTest{method: http.MethodDelete, path: "/v1/projections/" + manual.ID, token: token})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.serve(httpTest{path: "/v1/projections/" + manual.ID, token: token})
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: notFound}, rec)
	})
}
