package ez

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
	mdw "github.com/Divyaanshvats/intern-management-system/internal/transport/http/middleware"
	resp "github.com/Divyaanshvats/intern-management-system/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ { return EZ{g: g, log: l} }

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	// BindJSONOrQuery reads a JSON body when one is sent and the query
	// string otherwise.
	BindJSONOrQuery Binder = "json_or_query"
	// BindAuto picks JSON or form decoding from the Content-Type.
	BindAuto Binder = "auto"
	BindNone Binder = "none"
)

// AErr is a transport-level error with an explicit status.
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &AErr{Code: http.StatusBadRequest, Msg: msg} }

// Action describes one endpoint: I is bound from the request, O is
// rendered as JSON with 200.
type Action[I any, O any] struct {
	Method string
	Path   string
	Binder Binder
	// Roles limits the endpoint; empty means any authenticated caller
	// when Auth is set, or anyone otherwise.
	Auth    bool
	Roles   []domain.Role
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// role checks run before the body is looked at
		if a.Auth || len(a.Roles) > 0 {
			id, ok := mdw.CurrentIdentity(c)
			if !ok {
				c.AbortWithStatusJSON(resp.CodeUnauthorized, resp.Error(resp.CodeUnauthorized, ""))
				return
			}
			if len(a.Roles) > 0 && !hasRole(id.Role, a.Roles) {
				c.AbortWithStatusJSON(resp.CodeForbidden, resp.Error(resp.CodeForbidden, ""))
				return
			}
		}

		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			c.AbortWithStatusJSON(bindStatus(err), resp.Error(bindStatus(err), bindMessage(err)))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			e.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func (e EZ) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	var ae *AErr
	var p resp.Problem
	if errors.As(err, &ae) {
		p = resp.Error(ae.Code, ae.Error())
	} else {
		p = resp.FromError(err)
	}
	if p.Code >= http.StatusInternalServerError && e.log != nil {
		e.log.Error("request failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(p.Code, p)
}

func hasRole(r domain.Role, roles []domain.Role) bool {
	for _, want := range roles {
		if r == want {
			return true
		}
	}
	return false
}

func bind(c *gin.Context, b Binder, dst any) error {
	switch b {
	case BindJSON:
		return c.ShouldBindJSON(dst)
	case BindQuery:
		return c.ShouldBindQuery(dst)
	case BindJSONOrQuery:
		if c.ContentType() == binding.MIMEJSON && c.Request.ContentLength != 0 {
			return c.ShouldBindJSON(dst)
		}
		return c.ShouldBindQuery(dst)
	case BindAuto:
		return c.ShouldBind(dst)
	default:
		return nil
	}
}

func bindStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return resp.CodeTooLarge
	}
	return resp.CodeBadRequest
}

// bindMessage turns validator output into "field: rule" pairs.
func bindMessage(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request: " + err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed %s", jsonName(fe), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

func jsonName(fe validator.FieldError) string {
	return toSnake(fe.Field())
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
