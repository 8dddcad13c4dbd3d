package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"challengeHubAPI/handlers"
	"challengeHubAPI/internal/progress"
	"challengeHubAPI/internal/workers"
	"challengeHubAPI/middleware"
	"challengeHubAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool            *pgxpool.Pool
	calculator        *progress.Calculator
	userService       *services.UserService
	challengeService  *services.ChallengeService
	enrollmentService *services.EnrollmentService
	submissionService *services.SubmissionService
	winnerService     *services.WinnerService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	// Day bucketing timezone for progress math. Defaults to UTC so DB and
	// server agree; deployments serving one community can pin theirs.
	tz := os.Getenv("CHALLENGE_TZ")
	loc := time.UTC
	if tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			log.Fatal("Invalid CHALLENGE_TZ:", err)
		}
	}
	calculator = progress.NewCalculator(loc)

	userService = services.NewUserService(dbPool)
	challengeService = services.NewChallengeService(dbPool)
	enrollmentService = services.NewEnrollmentService(dbPool, challengeService, calculator)
	submissionService = services.NewSubmissionService(dbPool, challengeService, enrollmentService)
	winnerService = services.NewWinnerService(dbPool, challengeService, enrollmentService)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, challengeService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	winnerHandler := handlers.NewWinnerHandler(winnerService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()
	workers.StartInviteCleanupWorker(dbPool)

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "challengeHub-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	// Winner listings are public so ended challenges can be shared.
	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuthMiddleware)
	public.HandleFunc("/challenges/{challengeID}/winners", winnerHandler.ListWinners).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")

	protected.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods("GET")
	protected.HandleFunc("/challenges", challengeHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}", challengeHandler.GetChallenge).Methods("GET")
	protected.HandleFunc("/challenges/{challengeID}", challengeHandler.UpdateChallenge).Methods("PUT")
	protected.HandleFunc("/challenges/{challengeID}", challengeHandler.DeleteChallenge).Methods("DELETE")
	protected.HandleFunc("/challenges/{challengeID}/share", challengeHandler.GenerateInvite).Methods("POST")
	protected.HandleFunc("/invites/redeem", enrollmentHandler.RedeemInvite).Methods("POST")

	protected.HandleFunc("/challenges/{challengeID}/join", enrollmentHandler.JoinChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/progress", enrollmentHandler.GetProgress).Methods("GET")
	protected.HandleFunc("/challenges/{challengeID}/leaderboard", enrollmentHandler.GetLeaderboard).Methods("GET")

	protected.HandleFunc("/challenges/{challengeID}/submissions", submissionHandler.CreateProof).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/submissions", submissionHandler.ListProofs).Methods("GET")
	protected.HandleFunc("/challenges/{challengeID}/submissions/active", submissionHandler.GetActiveProof).Methods("GET")
	protected.HandleFunc("/submissions/{proofID}", submissionHandler.DeactivateProof).Methods("DELETE")

	protected.HandleFunc("/challenges/{challengeID}/eligible", winnerHandler.GetEligibleParticipants).Methods("GET")
	protected.HandleFunc("/challenges/{challengeID}/winners/auto-select", winnerHandler.AutoSelectWinners).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/winners", winnerHandler.RecordWinner).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/winners/{userID}", winnerHandler.RemoveWinner).Methods("DELETE")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
