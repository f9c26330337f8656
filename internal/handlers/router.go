package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kimconnect/internship-service/internal/config"
	"github.com/kimconnect/internship-service/internal/models"
	"github.com/kimconnect/internship-service/internal/services"
	"github.com/kimconnect/internship-service/internal/storage"
	"github.com/kimconnect/internship-service/internal/utils"
)

type HandlerManager struct {
	authHandler        *AuthHandler
	profileHandler     *ProfileHandler
	opportunityHandler *OpportunityHandler
	applicationHandler *ApplicationHandler
	certificateHandler *CertificateHandler
	adminHandler       *AdminHandler
	authMiddleware     *AuthMiddleware

	serviceManager services.ServiceManager
	store          *storage.LocalStore
	limiter        *RedisLimiter
	rateLimit      config.RateLimitConfig
	logger         utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	store *storage.LocalStore,
	limiter *RedisLimiter,
	cfg *config.Config,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:        NewAuthHandler(serviceManager.Auth(), cfg.IsProduction(), logger),
		profileHandler:     NewProfileHandler(serviceManager.Profile(), store, logger),
		opportunityHandler: NewOpportunityHandler(serviceManager.Opportunity(), serviceManager.Recommendation(), logger),
		applicationHandler: NewApplicationHandler(serviceManager.Application(), logger),
		certificateHandler: NewCertificateHandler(serviceManager.Certificate(), logger),
		adminHandler:       NewAdminHandler(serviceManager.Admin(), serviceManager.Export(), logger),
		authMiddleware:     NewAuthMiddleware(serviceManager.Auth(), logger),
		serviceManager:     serviceManager,
		store:              store,
		limiter:            limiter,
		rateLimit:          cfg.RateLimit,
		logger:             logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	requireAuth := hm.authMiddleware.RequireAuth()
	optionalAuth := hm.authMiddleware.OptionalAuth()
	role := hm.authMiddleware.RequireRole

	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authLimit := func(scope string) gin.HandlerFunc {
			return RateLimitMiddleware(hm.limiter, scope, hm.rateLimit.AuthRequests, hm.rateLimit.AuthWindow)
		}
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authLimit("register"), hm.authHandler.Register)
			authRoutes.POST("/login", authLimit("login"), hm.authHandler.Login)
			authRoutes.POST("/logout", requireAuth, hm.authHandler.Logout)
			authRoutes.GET("/me", requireAuth, hm.authHandler.Me)
		}

		v1.GET("/skills", hm.profileHandler.ListSkills)

		// Student profile routes - Students only
		students := v1.Group("/students")
		students.Use(requireAuth, role(models.RoleStudent))
		{
			students.GET("/profile", hm.profileHandler.GetStudentProfile)
			students.PUT("/profile", hm.profileHandler.UpdateStudentProfile)
			students.POST("/skills", hm.profileHandler.AddStudentSkills)
			students.DELETE("/skills/:skill_id", hm.profileHandler.RemoveStudentSkill)
		}

		// Employer profile routes - Employers only
		employers := v1.Group("/employers")
		employers.Use(requireAuth, role(models.RoleEmployer))
		{
			employers.GET("/profile", hm.profileHandler.GetEmployerProfile)
			employers.PUT("/profile", hm.profileHandler.UpdateEmployerProfile)
		}

		// Opportunity routes
		opportunities := v1.Group("/opportunities")
		{
			// Browsing works anonymously
			opportunities.GET("", optionalAuth, hm.opportunityHandler.ListOpportunities)
			opportunities.GET("/recommended", requireAuth, role(models.RoleStudent), hm.opportunityHandler.GetRecommended)
			opportunities.GET("/saved", requireAuth, role(models.RoleStudent), hm.opportunityHandler.ListSaved)
			opportunities.GET("/:id", optionalAuth, hm.opportunityHandler.GetOpportunity)

			opportunities.POST("", requireAuth, role(models.RoleEmployer), hm.opportunityHandler.CreateOpportunity)
			opportunities.PUT("/:id", requireAuth, role(models.RoleEmployer, models.RoleAdmin), hm.opportunityHandler.UpdateOpportunity)
			opportunities.DELETE("/:id", requireAuth, role(models.RoleEmployer, models.RoleAdmin), hm.opportunityHandler.DeleteOpportunity)
			opportunities.DELETE("/:id/skills/:skill_id", requireAuth, role(models.RoleEmployer, models.RoleAdmin), hm.opportunityHandler.RemoveSkill)

			opportunities.POST("/:id/save", requireAuth, role(models.RoleStudent), hm.opportunityHandler.SaveOpportunity)
			opportunities.DELETE("/:id/save", requireAuth, role(models.RoleStudent), hm.opportunityHandler.UnsaveOpportunity)
		}

		// Application routes
		applications := v1.Group("/applications")
		applications.Use(requireAuth)
		{
			applications.POST("", role(models.RoleStudent), hm.applicationHandler.CreateApplication)
			applications.GET("/student", role(models.RoleStudent), hm.applicationHandler.ListStudentApplications)
			applications.GET("/opportunity/:id", role(models.RoleEmployer, models.RoleAdmin), hm.applicationHandler.ListOpportunityApplications)

			// Ownership is checked by the service
			applications.GET("/:id", hm.applicationHandler.GetApplication)
			applications.PUT("/:id", hm.applicationHandler.UpdateApplication)
		}

		// Certificate routes
		certificates := v1.Group("/certificates")
		certificates.Use(requireAuth)
		{
			certificates.POST("", role(models.RoleEmployer, models.RoleAdmin), hm.certificateHandler.IssueCertificate)
			certificates.GET("/student", role(models.RoleStudent), hm.certificateHandler.ListStudentCertificates)
			certificates.GET("/issued", role(models.RoleEmployer), hm.certificateHandler.ListIssuedCertificates)
			certificates.GET("/:id", hm.certificateHandler.GetCertificate)
		}

		// Admin routes - Admins only
		admin := v1.Group("/admin")
		admin.Use(requireAuth, role(models.RoleAdmin))
		{
			admin.GET("/stats", hm.adminHandler.GetStats)
			admin.GET("/employers", hm.adminHandler.ListEmployers)
			admin.PUT("/employers/:id/verify", hm.adminHandler.VerifyEmployer)
			admin.PUT("/opportunities/:id/verify", hm.adminHandler.VerifyOpportunity)
			admin.PUT("/users/:id/status", hm.adminHandler.UpdateUserStatus)
			admin.GET("/reports/export", hm.adminHandler.ExportReport)
		}
	}

	if hm.store != nil {
		router.Static("/uploads", hm.store.Dir())
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := hm.serviceManager.HealthCheck(ctx); err != nil {
			utils.FromContext(c, hm.logger).Warn("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "internship-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "internship-service",
		})
	})
}
