// Package api contains all endpoints available
package api

import (
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"luxwise/cv-back/config"
	"luxwise/cv-back/metrics"
	"luxwise/cv-back/middleware"
	"luxwise/cv-back/service"
)

// Deps are the services the handlers work with
type Deps struct {
	DB        *gorm.DB
	Registrar *service.Registrar
	Auth      *service.Authenticator
	CV        *service.CVService
	Generator *service.Generator
	Limiter   *middleware.RateLimiter
	Cache     persist.CacheStore
}

type API struct {
	Router *gin.Engine

	DB        *gorm.DB
	Registrar *service.Registrar
	Auth      *service.Authenticator
	CV        *service.CVService
	Generator *service.Generator
	Cache     persist.CacheStore

	cacheTTL       time.Duration
	tokenTTL       time.Duration
	maxUploadBytes int64
}

func NewRouter(cfg *config.Config, d Deps) *API {
	a := &API{
		DB:             d.DB,
		Registrar:      d.Registrar,
		Auth:           d.Auth,
		CV:             d.CV,
		Generator:      d.Generator,
		Cache:          d.Cache,
		cacheTTL:       cfg.CacheTTL,
		tokenTTL:       cfg.AccessTokenTTL,
		maxUploadBytes: cfg.MaxBodySize,
	}

	if a.Cache == nil {
		a.Cache = persist.NewMemoryStore(time.Minute)
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("accountID"); v != "" {
					fields = append(fields, zap.String("accountID", v))
				}

				return fields
			},
		}),
	)

	if d.Limiter != nil {
		router.Use(d.Limiter.Middleware())
	}

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = cfg.MaxBodySize

	auth := middleware.NewAuthMiddleware(a.Auth)
	bodyLimit := middleware.BodySizeLimiter(cfg.MaxBodySize)

	// GET /metrics			-> Prometheus metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)
	}

	register := main.Group("/register", bodyLimit)
	{
		// POST /api/register		-> Starts a registration and mails a verification code
		register.POST("", a.RegisterInitiate)

		// POST /api/register/confirm	-> Confirms a code and provisions the account
		register.POST("/confirm", a.RegisterConfirm)
	}

	// POST /api/auth/login 	-> Logs in an account and returns an access token
	main.POST("/auth/login", bodyLimit, a.UserLogin)

	users := main.Group("/users", auth)
	{
		// GET /api/users/me		-> Returns the logged in account
		users.GET("/me", a.UserFetch)
	}

	cv := main.Group("/cv", auth, bodyLimit)
	{
		// GET /api/cv			-> Returns the whole CV of the account
		cv.GET("", a.cacheCV(), a.CVFetch)

		// GET|PUT /api/cv/personal-info
		cv.GET("/personal-info", a.PersonalInfoFetch)
		cv.PUT("/personal-info", a.PersonalInfoSet)

		// POST /api/cv/personal-info/photo	-> Uploads a profile photo in a multipart form
		cv.POST("/personal-info/photo", a.PersonalInfoPhoto)

		cv.GET("/social-networks", a.SocialNetworkList)
		cv.POST("/social-networks", a.SocialNetworkCreate)

		cv.GET("/education", a.EducationList)
		cv.POST("/education", a.EducationCreate)

		cv.GET("/experience", a.ExperienceList)
		cv.POST("/experience", a.ExperienceCreate)
		cv.GET("/experience/:id/responsibilities", a.ResponsibilityList)
		cv.POST("/experience/:id/responsibilities", a.ResponsibilityCreate)
		cv.GET("/experience/:id/achievements", a.ExperienceAchievementList)
		cv.POST("/experience/:id/achievements", a.ExperienceAchievementCreate)

		cv.GET("/projects", a.ProjectList)
		cv.POST("/projects", a.ProjectCreate)
		cv.GET("/projects/:id/achievements", a.ProjectAchievementList)
		cv.POST("/projects/:id/achievements", a.ProjectAchievementCreate)

		cv.GET("/skills", a.SkillList)
		cv.POST("/skills", a.SkillCreate)
	}

	generate := main.Group("/generate", auth, bodyLimit)
	{
		// GET /api/generate		-> Returns the CV flattened to prompt text
		generate.GET("", a.Generate)

		// POST /api/generate/ia	-> Asks the generation service for a CV matching a job offer
		generate.POST("/ia", a.GenerateWithJobOffer)
	}

	return a
}

func cvCacheKey(accountID string) string {
	return "cv:" + accountID
}

// cacheCV caches the assembled CV per account. Writes drop the entry through
// invalidateCV.
func (a *API) cacheCV() gin.HandlerFunc {
	return cache.Cache(a.Cache, a.cacheTTL, cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
		id := c.GetString("accountID")
		if id == "" {
			return false, cache.Strategy{}
		}

		return true, cache.Strategy{CacheKey: cvCacheKey(id)}
	}))
}

func (a *API) invalidateCV(c *gin.Context) {
	if err := a.Cache.Delete(cvCacheKey(c.GetString("accountID"))); err != nil {
		zap.L().Debug("Nothing to invalidate", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	}
}
