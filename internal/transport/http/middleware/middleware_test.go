package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(path string) *http.Request { return httptest.NewRequest(http.MethodGet, path, nil) }

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(KeyRequestID)) })

	w := serve(r, get("/"))
	minted := w.Header().Get(KeyRequestID)
	assert.Len(t, minted, 36)
	assert.Equal(t, minted, w.Body.String())

	req := get("/")
	req.Header.Set(KeyRequestID, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(KeyRequestID))

	req = get("/")
	req.Header.Set(KeyRequestID, strings.Repeat("x", 200))
	w = serve(r, req)
	assert.Len(t, w.Header().Get(KeyRequestID), 36)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(rate.Every(time.Hour), 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, get("/")).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, get("/")).Code)
	w := serve(r, get("/"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"code":429,"detail":"Too many requests"}`, w.Body.String())
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(rate.Every(time.Hour), 1, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	from := func(ip string) *http.Request {
		req := get("/")
		req.RemoteAddr = ip + ":1234"
		return req
	}
	assert.Equal(t, http.StatusNoContent, serve(r, from("10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, from("10.0.0.1")).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, from("10.0.0.2")).Code)
}

func newGate() *auth.Gate {
	return auth.NewGate(&auth.JWTer{Secret: []byte("mw-test"), Issuer: "ims", TTL: time.Hour})
}

func TestAuthJWT(t *testing.T) {
	g := newGate()
	r := gin.New()
	r.GET("/any", AuthJWT(g), func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.Email+"/"+string(id.Role))
	})
	r.GET("/hr", AuthJWT(g, domain.RoleHR), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, get("/any"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"code":401,"detail":"Not authenticated"}`, w.Body.String())

	tok, err := g.Issue("ivy@corp.io", domain.RoleIntern)
	require.NoError(t, err)

	req := get("/any")
	req.Header.Set("Authorization", "bearer "+tok.AccessToken)
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ivy@corp.io/intern", w.Body.String())

	req = get("/hr")
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	w = serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"code":403,"detail":"Access forbidden"}`, w.Body.String())
}

func TestCurrentIdentityMissing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentIdentity(c)
	assert.False(t, ok)
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusNoContent)
	})

	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny"))
	assert.Equal(t, http.StatusNoContent, serve(r, small).Code)
	big := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, 64)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, big).Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, get("/slow"))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, http.StatusNoContent, serve(r, get("/fast")).Code)
}

func TestConcurrencyLimitGivesUpWithContext(t *testing.T) {
	r := gin.New()
	r.Use(ConcurrencyLimit(1))
	release := make(chan struct{})
	entered := make(chan struct{})
	r.GET("/hold", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusNoContent)
	})

	done := make(chan int)
	go func() { done <- serve(r, get("/hold")).Code }()
	<-entered

	// the second request cannot acquire before its deadline
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	w := serve(r, get("/hold").WithContext(ctx))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(release)
	assert.Equal(t, http.StatusNoContent, <-done)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, get("/"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"detail":"internal error"}`, w.Body.String())
	assert.Equal(t, 1, logs.Len())
}

func TestAccessLogMasksSecrets(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, get("/x?token=s3cret&q=1"))
	serve(r, get("/fail"))

	entries := logs.All()
	require.Len(t, entries, 2)
	first := entries[0].ContextMap()
	assert.Equal(t, "/x", first["path"])
	assert.NotEmpty(t, first["rid"])
	assert.Equal(t, map[string][]string{"token": {"****"}, "q": {"1"}}, first["query"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetricsLabelsByRoute(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	hits := httpReqTotal.WithLabelValues("/items/:id", http.MethodGet, "200")
	before := counterValue(t, hits)
	serve(r, get("/items/1"))
	serve(r, get("/items/2"))
	assert.Equal(t, 2.0, counterValue(t, hits)-before)

	misses := httpReqTotal.WithLabelValues(unmatchedRoute, http.MethodGet, "404")
	before = counterValue(t, misses)
	serve(r, get("/nope"))
	assert.Equal(t, 1.0, counterValue(t, misses)-before)
}
