package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/core/config"
	"github.com/Divyaanshvats/intern-management-system/internal/service"
	"github.com/Divyaanshvats/intern-management-system/internal/transport/http/ez"
	"github.com/Divyaanshvats/intern-management-system/internal/transport/http/handler"
	mdw "github.com/Divyaanshvats/intern-management-system/internal/transport/http/middleware"
)

// Prefixes the routes are served under. The browser client talks to
// /api; the bare paths stay for direct callers.
var Prefixes = []string{"", "/api"}

type Deps struct {
	Gate        *auth.Gate
	Users       *service.UserService
	Evaluations *service.EvaluationService
	// Zero limits disable the matching middleware.
	Limits      config.Limits
	ServiceName string
}

func NewAPIEngine(l *zap.Logger, d Deps) *gin.Engine {
	ez.RegisterValidators()
	if d.ServiceName == "" {
		d.ServiceName = "intern-management-system"
	}

	r := gin.New()
	r.Use(
		mdw.RequestID(),
		otelgin.Middleware(d.ServiceName),
		mdw.Recovery(l),
		cors.Default(),
	)
	r.Use(limits(d.Limits)...)
	r.Use(
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	mods := []APIModule{
		handler.NewAuthHandler(d.Users),
		handler.NewEvaluationHandler(d.Evaluations),
		handler.NewHRHandler(d.Evaluations, d.Users),
	}
	for _, prefix := range Prefixes {
		public := r.Group(prefix)
		authed := public.Group("")
		authed.Use(mdw.AuthJWT(d.Gate))
		mountAll(mods, ez.New(public, l), ez.New(authed, l))
	}
	return r
}

func limits(lim config.Limits) []gin.HandlerFunc {
	var hs []gin.HandlerFunc
	if lim.RPS > 0 {
		burst := lim.Burst
		if burst <= 0 {
			burst = int(lim.RPS)
		}
		if lim.PerIP {
			hs = append(hs, mdw.RateLimitPerIP(rate.Limit(lim.RPS), burst, 10*time.Minute))
		} else {
			hs = append(hs, mdw.RateLimit(rate.Limit(lim.RPS), burst))
		}
	}
	if lim.MaxConcurrent > 0 {
		hs = append(hs, mdw.ConcurrencyLimit(lim.MaxConcurrent))
	}
	if lim.MaxBodyBytes > 0 {
		hs = append(hs, mdw.MaxBodyBytes(lim.MaxBodyBytes))
	}
	if lim.RequestTimeoutSec > 0 {
		hs = append(hs, mdw.Timeout(time.Duration(lim.RequestTimeoutSec)*time.Second))
	}
	return hs
}
