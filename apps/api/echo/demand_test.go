package echoapi

import (
	"net/http"
	"testing"

	"github.com/trezcool/malla/core/projection"
	"github.com/trezcool/malla/core/user"
	"github.com/trezcool/malla/tests"
)

func Test_demandApi(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@ucn.cl", "", []string{user.RoleAdmin}, true)
	token := getToken(t, env.conf, admin)

	inf101 := projection.Ramo{Code: "INF101", Name: "Programación", Credits: 6, Level: 1, Period: "2024-2", Semester: 1}
	mat101 := projection.Ramo{Code: "MAT101", Name: "Cálculo I", Credits: 6, Level: 1, Period: "2024-2", Semester: 1}
	inf102 := projection.Ramo{Code: "INF102", Name: "Estructuras de Datos", Credits: 6, Level: 2, Period: "2025-1", Semester: 2}

	testutil.CreateProjection(t, env.projRepo, testRUT, testCareer, projection.TypeManual, true, inf101, inf102)
	testutil.CreateProjection(t, env.projRepo, testRUT, testCareer, projection.TypeAutomatic, false, inf101)
	testutil.CreateProjection(t, env.projRepo, "22222222-2", testCareer, projection.TypeManual, true, inf101, mat101)
	testutil.CreateProjection(t, env.projRepo, "33333333-3", "8000", projection.TypeManual, true, mat101)

	runHTTPTests(t, env, []httpTest{
		{name: "auth required", path: "/v1/admin/demand", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/admin/demand", token: getStudentToken(t, env.conf, testStudent()),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "all", path: "/v1/admin/demand", token: token, wantCode: http.StatusOK,
			wantData: marshallList(t,
				projection.Demand{Code: "INF101", Name: "Programación", Period: "2024-2", Students: 2, Projections: 3},
				projection.Demand{Code: "MAT101", Name: "Cálculo I", Period: "2024-2", Students: 2, Projections: 2},
				projection.Demand{Code: "INF102", Name: "Estructuras de Datos", Period: "2025-1", Students: 1, Projections: 1},
			),
		},
		{
			name: "by career and period code", path: "/v1/admin/demand?carrera=" + testCareer + "&periodo=202420", token: token,
			wantCode: http.StatusOK,
			wantData: marshallList(t,
				projection.Demand{Code: "INF101", Name: "Programación", Period: "2024-2", Students: 2, Projections: 3},
				projection.Demand{Code: "MAT101", Name: "Cálculo I", Period: "2024-2", Students: 1, Projections: 1},
			),
		},
		{
			name: "favorites only", path: "/v1/admin/demand?favoritas=true&carrera=" + testCareer, token: token,
			wantCode: http.StatusOK,
			wantData: marshallList(t,
				projection.Demand{Code: "INF101", Name: "Programación", Period: "2024-2", Students: 2, Projections: 2},
				projection.Demand{Code: "MAT101", Name: "Cálculo I", Period: "2024-2", Students: 1, Projections: 1},
				projection.Demand{Code: "INF102", Name: "Estructuras de Datos", Period: "2025-1", Students: 1, Projections: 1},
			),
		},
		{name: "nothing planned", path: "/v1/admin/demand?periodo=2030-1", token: token, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})
}
