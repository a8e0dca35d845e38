// Package routes registers the HTTP surface on a gin engine.
package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-pizzeria-management/controllers"
	"go-pizzeria-management/metrics"
	"go-pizzeria-management/middleware"
	"go-pizzeria-management/notify"
	"go-pizzeria-management/permissions"
)

type Dependencies struct {
	Orders      *controllers.OrderController
	Products    *controllers.ProductController
	Users       *controllers.UserController
	Reports     *controllers.ReportController
	Hub         *notify.Hub
	Auth        middleware.Authenticator
	Permissions permissions.Lookup
	Login       *middleware.RateLimiter
	Ping        controllers.Pinger
	Log         *logrus.Logger

	CORSOrigins    []string
	RequestTimeout time.Duration
}

func (d Dependencies) require(capability permissions.Capability) gin.HandlerFunc {
	return middleware.RequirePermission(d.Permissions, capability)
}

func NewRouter(d Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(d.Log))
	router.Use(middleware.RequestLogger(d.Log))
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig(d.CORSOrigins)))

	router.NoRoute(controllers.NotFound())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/ws", middleware.Authentication(d.Auth), controllers.HandleWebSocket(d.Hub, d.Log))

	api := router.Group("/api")
	api.Use(middleware.Timeout(d.RequestTimeout))
	api.GET("/health", controllers.Health(d.Ping))

	AuthRoutes(api, d)
	UserRoutes(api, d)
	ProductRoutes(api, d)
	OrderRoutes(api, d)
	ReportRoutes(api, d)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
