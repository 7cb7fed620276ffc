package ez

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	mdw "github.com/Divyaanshvats/intern-management-system/internal/transport/http/middleware"
)

type echoIn struct {
	Name  string `json:"name"  form:"name"  binding:"required,notblank"`
	Count int    `json:"count" form:"count" binding:"min=0"`
}

type echoOut struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setup(t *testing.T, as *auth.Identity) (*gin.Engine, EZ, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	g := r.Group("")
	if as != nil {
		id := *as
		g.Use(func(c *gin.Context) {
			c.Set("identity", id)
			c.Next()
		})
	}
	return r, New(g, zap.New(core)), logs
}

func echo(_ *gin.Context, in *echoIn) (echoOut, error) {
	return echoOut{Name: in.Name, Count: in.Count}, nil
}

func send(r *gin.Engine, method, target, contentType, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBinders(t *testing.T) {
	r, e, _ := setup(t, nil)
	RegisterAction(e, Action[echoIn, echoOut]{Method: http.MethodPost, Path: "/json", Binder: BindJSON, Handler: echo})
	RegisterAction(e, Action[echoIn, echoOut]{Method: http.MethodGet, Path: "/query", Binder: BindQuery, Handler: echo})
	RegisterAction(e, Action[echoIn, echoOut]{Method: http.MethodPost, Path: "/either", Binder: BindJSONOrQuery, Handler: echo})
	RegisterAction(e, Action[echoIn, echoOut]{Method: http.MethodPost, Path: "/auto", Binder: BindAuto, Handler: echo})

	w := send(r, http.MethodPost, "/json", "application/json", `{"name":"a","count":2}`)
	assert.JSONEq(t, `{"name":"a","count":2}`, w.Body.String())

	w = send(r, http.MethodGet, "/query?name=b&count=3", "", "")
	assert.JSONEq(t, `{"name":"b","count":3}`, w.Body.String())

	w = send(r, http.MethodPost, "/either?name=c", "", "")
	assert.JSONEq(t, `{"name":"c","count":0}`, w.Body.String())
	w = send(r, http.MethodPost, "/either?name=ignored", "application/json", `{"name":"d"}`)
	assert.JSONEq(t, `{"name":"d","count":0}`, w.Body.String())

	w = send(r, http.MethodPost, "/auto", "application/x-www-form-urlencoded", "name=e&count=5")
	assert.JSONEq(t, `{"name":"e","count":5}`, w.Body.String())
	w = send(r, http.MethodPost, "/auto", "application/json", `{"name":"f"}`)
	assert.JSONEq(t, `{"name":"f","count":0}`, w.Body.String())
}

func TestBindErrorsUseFieldNames(t *testing.T) {
	r, e, _ := setup(t, nil)
	RegisterAction(e, Action[echoIn, echoOut]{Method: http.MethodPost, Path: "/json", Binder: BindJSON, Handler: echo})

	w := send(r, http.MethodPost, "/json", "application/json", `{"name":"   ","count":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":400,"detail":"name: failed notblank; count: failed min=0"}`, w.Body.String())

	w = send(r, http.MethodPost, "/json", "application/json", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request")
}

func TestRoleGateRunsBeforeBinding(t *testing.T) {
	intern := auth.Identity{Email: "i@x.io", Role: domain.RoleIntern}
	r, e, _ := setup(t, &intern)
	RegisterAction(e, Action[echoIn, echoOut]{
		Method: http.MethodPost, Path: "/hr", Binder: BindJSON,
		Roles: []domain.Role{domain.RoleHR}, Handler: echo,
	})
	RegisterAction(e, Action[echoIn, echoOut]{
		Method: http.MethodPost, Path: "/interns", Binder: BindJSON,
		Roles: []domain.Role{domain.RoleIntern}, Handler: echo,
	})

	w := send(r, http.MethodPost, "/hr", "application/json", `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"code":403,"detail":"Access forbidden"}`, w.Body.String())

	w = send(r, http.MethodPost, "/interns", "application/json", `{"name":"ok"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequiresIdentity(t *testing.T) {
	r, e, _ := setup(t, nil)
	RegisterAction(e, Action[struct{}, echoOut]{
		Method: http.MethodGet, Path: "/me", Binder: BindNone, Auth: true,
		Handler: func(*gin.Context, *struct{}) (echoOut, error) { return echoOut{}, nil },
	})
	w := send(r, http.MethodGet, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   int
		detail string
		logged bool
	}{
		{"validation", domain.Validation("Rating must be between 1 and 5"), 400, "Rating must be between 1 and 5", false},
		{"not found", domain.NotFound("Evaluation not found"), 404, "Evaluation not found", false},
		{"state", domain.InvalidState("Invalid workflow state"), 400, "Invalid workflow state", false},
		{"conflict", domain.Conflict("Email already registered"), 400, "Email already registered", false},
		{"forbidden", domain.Forbidden("Access forbidden"), 403, "Access forbidden", false},
		{"generation", domain.Generation(errors.New("quota")), 502, "Report generation failed: quota", false},
		{"transport", BadRequest("Invalid evaluation id"), 400, "Invalid evaluation id", false},
		{"internal", &AErr{Code: http.StatusInternalServerError, Msg: "store down", Err: errors.New("dial tcp")}, 500, "store down", true},
		{"foreign", errors.New("disk full"), 500, "disk full", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, e, logs := setup(t, nil)
			err := tc.err
			RegisterAction(e, Action[struct{}, echoOut]{
				Method: http.MethodPost, Path: "/x", Binder: BindNone,
				Handler: func(*gin.Context, *struct{}) (echoOut, error) { return echoOut{}, err },
			})
			w := send(r, http.MethodPost, "/x", "", "")
			require.Equal(t, tc.code, w.Code)
			assert.JSONEq(t, `{"code":`+strconv.Itoa(tc.code)+`,"detail":"`+tc.detail+`"}`, w.Body.String())
			assert.Equal(t, tc.logged, logs.Len() == 1)
		})
	}
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "evaluation_id", toSnake("EvaluationID"))
	assert.Equal(t, "rating", toSnake("Rating"))
	assert.Equal(t, "intern_id", toSnake("intern_id"))
}

func TestMiddlewareIdentityKeyMatches(t *testing.T) {
	// setup injects the identity under the same key AuthJWT uses
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("identity", auth.Identity{Email: "a@b.c", Role: domain.RoleHR})
	id, ok := mdw.CurrentIdentity(c)
	require.True(t, ok)
	assert.Equal(t, domain.RoleHR, id.Role)
}
