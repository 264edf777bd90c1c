package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"github.com/yigit/attendance/internal/app/controllers"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/middleware"
	"github.com/yigit/attendance/internal/pkg/auth"
)

func newRouter(t *testing.T, redeemLimit gin.HandlerFunc) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "routes-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "attendance.test",
	})

	// Handlers are never reached in these tests; nil services are fine.
	c := Controllers{
		Auth:       controllers.NewAuthController(nil, nil, zerolog.Nop()),
		Users:      controllers.NewUserController(nil, zerolog.Nop()),
		Catalogue:  controllers.NewCatalogueController(nil),
		Sessions:   controllers.NewSessionController(nil, nil),
		Attendance: controllers.NewAttendanceController(nil, nil),
		Timetable:  controllers.NewTimetableController(nil),
		Syllabi:    controllers.NewSyllabusController(nil),
		Reports:    controllers.NewReportController(nil),
	}

	router := gin.New()
	SetupRouter(router, c, middleware.NewAuthMiddleware(jwt), redeemLimit)
	return router, jwt
}

func bearer(t *testing.T, jwt *auth.JWTService, role models.RoleType) string {
	t.Helper()
	pair, err := jwt.GenerateTokenPair(&models.User{ID: 9, Email: "x@school.edu", RoleType: role})
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func serve(router *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newRouter(t, func(c *gin.Context) {})
	rec := serve(router, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouteGuards(t *testing.T) {
	router, jwt := newRouter(t, func(c *gin.Context) {})

	tests := []struct {
		name   string
		method string
		path   string
		role   models.RoleType
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/dashboard", "", http.StatusUnauthorized},
		{"student on users", http.MethodGet, "/api/v1/users", models.RoleStudent, http.StatusForbidden},
		{"teacher on users", http.MethodGet, "/api/v1/users", models.RoleTeacher, http.StatusForbidden},
		{"student on sessions", http.MethodGet, "/api/v1/sessions", models.RoleStudent, http.StatusForbidden},
		{"admin starting session", http.MethodPost, "/api/v1/sessions", models.RoleAdmin, http.StatusForbidden},
		{"teacher redeeming", http.MethodPost, "/api/v1/attendance/redeem", models.RoleTeacher, http.StatusForbidden},
		{"teacher deleting record", http.MethodDelete, "/api/v1/attendance/records/1", models.RoleTeacher, http.StatusForbidden},
		{"student on reports", http.MethodGet, "/api/v1/reports/attendance", models.RoleStudent, http.StatusForbidden},
		{"teacher uploading syllabus", http.MethodPost, "/api/v1/syllabi", models.RoleTeacher, http.StatusForbidden},
		{"student on audit log", http.MethodGet, "/api/v1/audit-logs", models.RoleStudent, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authz := ""
			if tt.role != "" {
				authz = bearer(t, jwt, tt.role)
			}
			rec := serve(router, tt.method, tt.path, authz)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRedeemLimitRunsAfterRoleCheck(t *testing.T) {
	calls := 0
	limit := func(c *gin.Context) {
		calls++
		c.AbortWithStatus(http.StatusTooManyRequests)
	}
	router, jwt := newRouter(t, limit)

	rec := serve(router, http.MethodPost, "/api/v1/attendance/redeem", bearer(t, jwt, models.RoleTeacher))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, calls)

	rec = serve(router, http.MethodPost, "/api/v1/attendance/redeem", bearer(t, jwt, models.RoleStudent))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestRoutesRegistered(t *testing.T) {
	router, _ := newRouter(t, func(c *gin.Context) {})

	registered := map[string]bool{}
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /api/v1/auth/login",
		"GET /api/v1/batches",
		"POST /api/v1/sessions",
		"POST /api/v1/sessions/:sessionId/end",
		"GET /api/v1/sessions/:sessionId/token",
		"POST /api/v1/sessions/:sessionId/attendance",
		"DELETE /api/v1/sessions/:sessionId/attendance/:studentId",
		"POST /api/v1/attendance/redeem",
		"GET /api/v1/attendance/history",
		"GET /api/v1/reports/attendance/export",
		"GET /api/v1/timetable",
		"GET /api/v1/syllabi",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestEveryRouteDocumented(t *testing.T) {
	router, _ := newRouter(t, func(c *gin.Context) {})

	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.Equal(t, "/api/v1", doc.BasePath)

	documented := map[string]bool{}
	for path, ops := range doc.Paths {
		for method := range ops {
			documented[strings.ToUpper(method)+" "+path] = true
		}
	}

	param := regexp.MustCompile(`:(\w+)`)
	registered := map[string]bool{}
	for _, r := range router.Routes() {
		if !strings.HasPrefix(r.Path, doc.BasePath+"/") {
			continue
		}
		key := r.Method + " " + param.ReplaceAllString(strings.TrimPrefix(r.Path, doc.BasePath), "{$1}")
		registered[key] = true
		assert.True(t, documented[key], "undocumented route %s", key)
	}
	for key := range documented {
		assert.True(t, registered[key], "documented route %s is not registered", key)
	}
}
