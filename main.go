package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FaithCommunity/controllers"
	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/middlewares"
	"github.com/FaithCommunity/services"
)

func main() {
	cfg, err := initializers.LoadEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db := initializers.ConnectDB(cfg)
	defer db.Close()
	if err := initializers.MigrateDB(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services.InitMetrics()
	middlewares.InitMetrics()
	services.InitEmailService(cfg.Email.ResendAPIKey, cfg.Email.FromAddress)
	services.InitFirebase(ctx, cfg.Firebase.CredentialsPath, cfg.Firebase.StorageBucket)
	services.InitNotifier(cfg.FrontendBaseURL, cfg.APIBaseURL, cfg.Firebase.ProgramsTopic)

	var queue *services.NotificationQueue
	if cfg.Queue.Enabled {
		pool, err := initializers.ConnectQueuePool(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect queue pool: %v", err)
		}
		defer pool.Close()

		queue, err = services.StartNotificationQueue(ctx, pool, cfg.Queue.Workers)
		if err != nil {
			log.Fatalf("Failed to start notification queue: %v", err)
		}
	} else {
		log.Println("Notification queue disabled, dispatching notifications inline")
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middlewares.RequestID, middlewares.Metrics, middlewares.CORS(cfg.CORSOrigin))

	registerRoutes(router, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if queue != nil {
		if err := queue.Stop(shutdownCtx); err != nil {
			log.Printf("Notification queue shutdown: %v", err)
		}
	}
}

func registerRoutes(router *gin.Engine, cfg *initializers.Config) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "pong"})
	})

	api := router.Group("/api")

	// public
	api.POST("/admins/login", middlewares.RateLimitMiddleware(1, 5, middlewares.ClientIPKey("login")), controllers.AdminLogin(cfg.JWT))
	api.POST("/invitations/accept", middlewares.RateLimitMiddleware(1, 3, middlewares.ClientIPKey("invitation")), controllers.AcceptInvitation)

	api.POST("/subscribers", middlewares.RateLimitMiddleware(0.2, 3, middlewares.ClientIPKey("subscribe")), controllers.Subscribe)
	api.GET("/subscribers/verify", controllers.VerifySubscription)
	api.GET("/subscribers/unsubscribe", controllers.Unsubscribe)

	api.GET("/programs", controllers.GetPublicPrograms)
	api.GET("/programs/:slug", controllers.GetPublicProgram)
	api.GET("/news", controllers.GetPublicNews)
	api.GET("/news/:slug", controllers.GetPublicNewsBySlug)
	api.GET("/organizations", controllers.GetOrganizations)
	api.GET("/organizations/:acronym", controllers.GetOrganizationByAcronym)
	api.GET("/faqs", controllers.GetFAQs)

	auth := api.Group("")
	auth.Use(middlewares.CheckAuth(cfg.JWT))
	{
		auth.GET("/admins/me", controllers.GetCurrentAdmin)
		auth.GET("/admins/directory", controllers.GetAdminDirectory)

		auth.GET("/notifications", controllers.GetNotifications)
		auth.PUT("/notifications/read-all", controllers.MarkAllNotificationsRead)
		auth.PUT("/notifications/:id/read", controllers.MarkNotificationRead)

		// owner checks happen in the program service, superadmins pass them
		auth.PUT("/programs/:id", controllers.UpdateProgram)
		auth.PUT("/programs/:id/active", controllers.MarkProgramActive)
		auth.PUT("/programs/:id/complete", controllers.MarkProgramCompleted)
		auth.PUT("/programs/:id/volunteers", controllers.ToggleProgramVolunteers)
		auth.DELETE("/programs/:id", controllers.DeleteProgram)

		auth.GET("/collaborations/invitations", controllers.GetCollaborationInvitations)
		auth.PUT("/collaborations/:id/accept", controllers.AcceptCollaboration)
		auth.PUT("/collaborations/:id/decline", controllers.DeclineCollaboration)
	}

	org := auth.Group("")
	org.Use(middlewares.CheckOrganizationAdmin)
	{
		org.GET("/approvals/mine", controllers.GetMySubmissions)
		org.POST("/approvals/highlights", controllers.SubmitHighlight)

		org.POST("/programs", controllers.CreateProgram)
		org.GET("/admin/programs", controllers.GetManagedPrograms)

		org.GET("/admin/news", controllers.GetOrganizationNews)
		org.GET("/admin/news/deleted", controllers.GetDeletedNews)
		org.POST("/news", controllers.CreateNews)
		org.PUT("/news/:id", controllers.UpdateNews)
		org.DELETE("/news/:id", controllers.DeleteNews)
		org.PUT("/news/:id/restore", controllers.RestoreNews)
		org.DELETE("/news/:id/permanent", controllers.PermanentlyDeleteNews)

		org.PUT("/organizations/:id/profile", controllers.SubmitOrganizationProfile)
		org.PUT("/organizations/:id/advocacy", controllers.SubmitAdvocacy)
		org.PUT("/organizations/:id/competency", controllers.SubmitCompetency)
	}

	super := auth.Group("")
	super.Use(middlewares.CheckSuperadmin)
	{
		super.GET("/approvals/pending", controllers.GetPendingApprovals)
		super.PUT("/approvals/:id/approve", controllers.ApproveSubmission)
		super.PUT("/approvals/:id/reject", controllers.RejectSubmission)
		super.DELETE("/approvals/:id", controllers.DeleteSubmission)
		super.POST("/approvals/bulk/:action", controllers.BulkReviewSubmissions)

		super.GET("/superadmin/programs", controllers.GetAllPrograms)
		super.PUT("/programs/:id/featured", controllers.ToggleProgramFeatured)

		super.PUT("/organizations/:id", controllers.UpdateOrganizationInfo)
		super.POST("/invitations", controllers.CreateInvitation)

		super.GET("/admin/faqs", controllers.GetFAQs)
		super.POST("/faqs", controllers.CreateFAQ)
		super.PUT("/faqs/:id", controllers.UpdateFAQ)
		super.DELETE("/faqs/:id", controllers.DeleteFAQ)
	}
}
