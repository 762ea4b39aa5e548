package handlers

import (
	"regexp"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	portssvc "github.com/proudcore/economy_ledger/internal/core/ports/services"
	"github.com/proudcore/economy_ledger/internal/middleware"
	"github.com/proudcore/economy_ledger/internal/platform/config"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
)

var currencyIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// RegisterRoutes sets up all application routes, injecting dependencies
// through the service container.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) error {
	if err := registerValidators(); err != nil {
		return err
	}

	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerAuthRoutes(r, cfg)

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return err
	}
	limiterInstance := limiter.New(limitermemory.NewStore(), rate)

	v1 := r.Group("/api/v1", middleware.RateLimit(limiterInstance))
	registerCurrencyRoutes(v1, services.Catalog)
	registerEconomyRoutes(v1, services.Economy, services.Catalog)

	admin := v1.Group("/admin", middleware.AuthMiddleware(cfg.AdminJWTSecret))
	registerEconomyAdminRoutes(admin, services.Economy, services.Catalog)

	return nil
}

// registerValidators installs the custom binding validations on gin's
// validator engine.
func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("currencyid", func(fl validator.FieldLevel) bool {
		return currencyIDPattern.MatchString(fl.Field().String())
	})
}
