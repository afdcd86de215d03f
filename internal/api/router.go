package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/app"
	iauth "github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/handlers"
	"github.com/charlesng35/authcore/internal/middleware"
	"github.com/charlesng35/authcore/internal/monitoring"
	"github.com/charlesng35/authcore/internal/services"
)

// Dependencies carries the services the HTTP layer is built from. OAuth and Flow are
// nil when Google sign-in is disabled.
type Dependencies struct {
	DB       *gorm.DB
	Config   *app.Config
	Sessions *iauth.SessionService
	Cookies  *iauth.CookieFactory
	Accounts *services.AccountService
	Profiles *services.ProfileService
	OAuth    *iauth.OAuthExchange
	Flow     *iauth.FlowTokenService
	Health   *monitoring.HealthManager
}

func (d Dependencies) validate() error {
	switch {
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.Sessions == nil:
		return fmt.Errorf("session service must be provided")
	case d.Cookies == nil:
		return fmt.Errorf("cookie factory must be provided")
	case d.Accounts == nil:
		return fmt.Errorf("account service must be provided")
	case d.Profiles == nil:
		return fmt.Errorf("profile service must be provided")
	case d.Health == nil:
		return fmt.Errorf("health manager must be provided")
	case (d.OAuth == nil) != (d.Flow == nil):
		return fmt.Errorf("oauth exchange and flow token service must be provided together")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config
	production := cfg.Server.Production()

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.SecurityHeaders(production))
	r.Use(middleware.Metrics())
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF(production))
	}
	r.Use(middleware.Session(deps.Sessions, deps.Cookies))

	registerHealthRoutes(r, handlers.NewHealthHandler(deps.Health))

	baseURL := strings.TrimSpace(cfg.Server.BaseURL)
	registerAuthRoutes(r, handlers.NewAuthHandler(deps.Accounts, deps.Sessions, deps.Cookies))
	if deps.OAuth != nil {
		registerGoogleRoutes(r, handlers.NewGoogleHandler(deps.OAuth, deps.Flow, deps.Cookies, baseURL))
	}

	api := r.Group("/api")
	api.Use(middleware.RequireAuth())
	registerProfileRoutes(api, handlers.NewProfileHandler(deps.Profiles))
	registerUserRoutes(api, handlers.NewUserHandler(deps.Profiles))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
