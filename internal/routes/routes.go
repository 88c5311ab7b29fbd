package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/viabetel/via-betel-api/internal/config"
	"github.com/viabetel/via-betel-api/internal/handlers"
	"github.com/viabetel/via-betel-api/internal/middleware"
	"github.com/viabetel/via-betel-api/internal/repository"
	"github.com/viabetel/via-betel-api/internal/services"
	chatws "github.com/viabetel/via-betel-api/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	studentProfileRepo := repository.NewStudentProfileRepository(db)
	instructorProfileRepo := repository.NewInstructorProfileRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	preferencesRepo := repository.NewPreferencesRepository(db)

	authHandler := handlers.NewAuthHandler(
		db,
		userRepo,
		studentProfileRepo,
		instructorProfileRepo,
		cfg.JWTSecret,
	)
	onboardingHandler := handlers.NewOnboardingHandler(studentProfileRepo, instructorProfileRepo)
	profileService := services.NewProfileService(studentProfileRepo, instructorProfileRepo)
	profileHandler := handlers.NewProfileHandler(profileService, studentProfileRepo, instructorProfileRepo)
	discoveryService := services.NewDiscoveryService(instructorProfileRepo)
	discoveryHandler := handlers.NewInstructorDiscoveryHandler(instructorProfileRepo, studentProfileRepo, discoveryService)
	preferencesService := services.NewPreferencesService(preferencesRepo)
	preferencesHandler := handlers.NewPreferencesHandler(preferencesService)
	adminHandler := handlers.NewAdminHandler(instructorProfileRepo, subscriptionRepo)

	usageService := services.NewUsageService(subscriptionRepo, usageRepo, cfg.FreeChatLimit, cfg.NearLimitFraction)
	chatHub := chatws.NewHub()
	go chatHub.Run()
	chatService := services.NewChatService(db, threadRepo, messageRepo, userRepo, usageService)
	chatHandler := handlers.NewChatHandler(chatService, usageService, chatHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	chat := api.Group("/chat", middleware.AuthRequired(cfg.JWTSecret))
	chat.Post("/send", chatHandler.SendMessage)
	chat.Get("/usage", chatHandler.GetUsage)

	// Path kept as the dashboard frontend expects it.
	app.Get("/instrutor/api/profile-status",
		middleware.AuthRequired(cfg.JWTSecret), profileHandler.GetProfileStatus)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	threads := authProtected.Group("/threads")
	threads.Get("", chatHandler.ListThreads)
	threads.Post("", chatHandler.CreateThread)
	threads.Get("/:id/messages", chatHandler.GetMessages)
	threads.Post("/:id/read", chatHandler.MarkRead)
	threads.Patch("/:id/state", chatHandler.UpdateThreadState)

	students := authProtected.Group("/students")
	students.Post("/onboarding", onboardingHandler.StudentOnboarding)
	students.Get("/profile", profileHandler.GetStudentProfile)
	students.Put("/profile", profileHandler.UpdateStudentProfile)

	instructors := authProtected.Group("/instructors")
	instructors.Get("", discoveryHandler.ListInstructors)
	instructors.Post("/onboarding", onboardingHandler.InstructorOnboarding)
	instructors.Get("/profile", profileHandler.GetInstructorProfile)
	instructors.Put("/profile", profileHandler.UpdateInstructorProfile)
	instructors.Get("/recommended", discoveryHandler.GetRecommendedInstructors)
	instructors.Get("/:id", discoveryHandler.GetInstructorDetail)

	admin := authProtected.Group("/admin")
	admin.Patch("/instructors/:id/review", adminHandler.ReviewInstructor)
	admin.Put("/instructors/:id/subscription", adminHandler.UpsertSubscription)

	preferences := authProtected.Group("/preferences")
	preferences.Get("", preferencesHandler.GetPreferences)
	preferences.Put("", preferencesHandler.SavePreferences)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
