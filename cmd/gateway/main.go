package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"

	api "github.com/learnhub-io/learnhub-portal/internal/api/http"
	"github.com/learnhub-io/learnhub-portal/internal/assist"
	"github.com/learnhub-io/learnhub-portal/internal/auth"
	"github.com/learnhub-io/learnhub-portal/internal/billing"
	"github.com/learnhub-io/learnhub-portal/internal/cohort"
	"github.com/learnhub-io/learnhub-portal/internal/commerce"
	"github.com/learnhub-io/learnhub-portal/internal/config"
	"github.com/learnhub-io/learnhub-portal/internal/db"
	"github.com/learnhub-io/learnhub-portal/internal/grading"
	"github.com/learnhub-io/learnhub-portal/internal/library"
	"github.com/learnhub-io/learnhub-portal/internal/notify"
	"github.com/learnhub-io/learnhub-portal/internal/payments"
	"github.com/learnhub-io/learnhub-portal/internal/portal"
	"github.com/learnhub-io/learnhub-portal/internal/progress"
	"github.com/learnhub-io/learnhub-portal/internal/quiz"
	"github.com/learnhub-io/learnhub-portal/internal/rbac"
	"github.com/learnhub-io/learnhub-portal/internal/storage"
	syncx "github.com/learnhub-io/learnhub-portal/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Mail ---
	var mailer notify.Service
	if cfg.SendGridKey != "" {
		mailer = notify.NewSendGrid(cfg.SendGridKey, cfg.EmailFrom, cfg.EmailName)
	} else {
		mailer = notify.NewConsole()
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	accounts := auth.NewAccounts(dbh, mailer, cfg.PublicURL)

	// --- Push events ---
	hub := syncx.NewHub(syncx.NewEventRepo(dbh))

	// --- Stores ---
	libStore := library.NewSQLStore(dbh)
	progStore := progress.NewSQLStore(dbh)
	quizStore := quiz.NewSQLStore(dbh)
	cohortStore := cohort.NewSQLStore(dbh)
	shopStore := commerce.NewSQLStore(dbh)
	subStore := billing.NewSQLStore(dbh)

	// --- Services ---
	tracker := progress.NewTracker(progStore)
	gateway := payments.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey, cfg.PaymentWebhookSecret)
	subs := billing.NewService(subStore, gateway, hub)
	checkout := commerce.NewCheckout(shopStore, gateway, cfg.PublicURL)
	cohorts := cohort.NewService(cohortStore, hub)
	grades := portal.NewGrading(quizStore, libStore, tracker, hub)
	engine := quiz.NewEngine(quizStore, grading.NewDefaultGrader(),
		quiz.WithFinishHook(grades.OnQuizFinish))

	var helper *assist.Client
	if cfg.AssistAPIURL != "" {
		helper = assist.NewClient(cfg.AssistAPIURL, cfg.AssistAPIKey, cfg.AssistModel)
	}

	assets, err := storage.NewFSStore(cfg.AssetBasePath)
	if err != nil {
		log.Fatalf("asset store: %v", err)
	}

	// Quiz deadline sweeper.
	go engine.Run(context.Background())

	// Hourly subscription expiry plus the weekly-unlock announcer.
	c := cron.New()
	if err := subs.Schedule(c); err != nil {
		log.Fatalf("cron: %v", err)
	}
	if _, err := c.AddFunc("@every 1m", func() {
		cohorts.SweepUnlocks(context.Background())
	}); err != nil {
		log.Fatalf("cron: %v", err)
	}
	c.Start()
	defer c.Stop()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public surface.
	r.Post("/auth/register", api.RegisterHandler(accounts, authSvc))
	r.Post("/auth/login", api.LoginHandler(accounts, authSvc))
	r.Get("/auth/verify", api.VerifyEmailHandler(accounts))
	r.Post("/payments/webhook", api.PaymentWebhookHandler(checkout, gateway))

	// Authenticated API.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/me", api.MeHandler(accounts))
		pr.Post("/me/password", api.ChangePasswordHandler(accounts))

		// Content library.
		pr.With(rbac.Require("resource:view")).
			Get("/resources", api.ListResourcesHandler(libStore))
		pr.With(rbac.Require("resource:view")).
			Get("/resources/{resourceID}", api.GetResourceHandler(libStore, subs))
		pr.With(rbac.Require("resource:view")).
			Get("/resources/{resourceID}/pdf-info", api.PDFInfoHandler(libStore))
		pr.With(rbac.Require("resource:manage")).
			Post("/resources", api.PutResourceHandler(libStore))

		// Progress tracking heartbeats.
		pr.With(rbac.Require("progress:write")).
			Post("/resources/{resourceID}/open", api.OpenResourceHandler(tracker, libStore))
		pr.With(rbac.Require("progress:write")).
			Post("/progress/video", api.VideoSampleHandler(tracker))
		pr.With(rbac.Require("progress:write")).
			Post("/progress/pdf", api.PDFHeartbeatHandler(tracker))
		pr.With(rbac.Require("progress:write")).
			Post("/progress/close", api.CloseResourceHandler(tracker))
		pr.With(rbac.Require("progress:view-own")).
			Get("/progress", api.MyProgressHandler(progStore))

		// Quizzes.
		pr.With(rbac.Require("quiz:manage")).
			Post("/quizzes", api.PutQuizHandler(quizStore))
		pr.With(rbac.Require("quiz:take")).
			Get("/quizzes", api.ListQuizzesHandler(quizStore))
		pr.With(rbac.Require("quiz:take")).
			Get("/quizzes/{quizID}", api.QuizOverviewHandler(engine))
		pr.With(rbac.Require("quiz:take"), auth.RequireVerified()).
			Post("/quizzes/{quizID}/start", api.StartQuizHandler(engine))
		pr.With(rbac.Require("quiz:take")).
			Post("/quizzes/{quizID}/answers", api.SaveAnswerHandler(engine))
		pr.With(rbac.Require("quiz:take")).
			Get("/quizzes/{quizID}/state", api.QuizStateHandler(engine))
		pr.With(rbac.Require("quiz:take")).
			Post("/quizzes/{quizID}/submit", api.SubmitQuizHandler(engine))
		pr.With(rbac.Require("attempt:view-own")).
			Get("/quizzes/{quizID}/review", api.QuizReviewHandler(engine))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(quizStore))
		pr.With(rbac.Require("attempt:grade")).
			Post("/attempts/{attemptID}/grade", api.GradeAttemptHandler(grades))

		// MCAMP cohorts.
		pr.With(rbac.Require("cohort:manage")).
			Post("/cohorts", api.PutCohortHandler(cohortStore))
		pr.With(rbac.Require("cohort:view")).
			Get("/cohorts", api.MyCohortsHandler(cohorts))
		pr.With(rbac.Require("cohort:view"), auth.RequireVerified()).
			Post("/cohorts/{cohortID}/enroll", api.EnrollHandler(cohorts))
		pr.With(rbac.Require("cohort:view")).
			Get("/cohorts/{cohortID}/dashboard", api.CohortDashboardHandler(cohorts))

		// Store.
		pr.With(rbac.Require("store:order")).
			Get("/store/products", api.ListProductsHandler(shopStore))
		pr.With(rbac.Require("resource:manage")).
			Post("/store/products", api.PutProductHandler(shopStore))
		pr.With(rbac.Require("store:order"), auth.RequireVerified()).
			Post("/store/checkout", api.CheckoutHandler(checkout))
		pr.With(rbac.Require("store:order")).
			Get("/store/orders", api.ListOrdersHandler(shopStore))
		pr.With(rbac.Require("store:order")).
			Get("/store/orders/{orderID}", api.GetOrderHandler(shopStore))

		// Subscriptions.
		pr.With(rbac.Require("account:manage")).
			Get("/account/subscription", api.SubscriptionStatusHandler(subs))
		pr.With(rbac.Require("account:manage"), auth.RequireVerified()).
			Post("/account/subscription", api.SubscribeHandler(subs))
		pr.With(rbac.Require("account:manage")).
			Delete("/account/subscription", api.CancelSubscriptionHandler(subs))

		// Study helper.
		pr.With(rbac.Require("assist:ask")).
			Post("/assist/explain", api.ExplainHandler(helper))

		// Push events.
		pr.Get("/events", api.EventsHandler(hub))

		// Media.
		pr.With(rbac.Require("resource:manage")).
			Post("/assets", api.UploadAssetHandler(assets))
		pr.Get("/assets/*", api.AssetHandler(assets))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
