package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jshauns81/daily-bread/internal/bonus"
	"github.com/jshauns81/daily-bread/internal/clock"
	"github.com/jshauns81/daily-bread/internal/handler"
	"github.com/jshauns81/daily-bread/internal/ledger"
	"github.com/jshauns81/daily-bread/internal/middleware"
	"github.com/jshauns81/daily-bread/internal/store"
	"github.com/jshauns81/daily-bread/internal/streak"
)

type Server struct {
	db          *sql.DB
	profileH    *handler.ProfileHandler
	taskH       *handler.TaskHandler
	completionH *handler.CompletionHandler
	ledgerH     *handler.LedgerHandler
	scheduleH   *handler.ScheduleHandler
	bonusH      *handler.BonusHandler
	streakH     *handler.StreakHandler
	goalH       *handler.GoalHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, clk clock.Clock, logger *slog.Logger) *Server {
	profileStore := store.NewProfileStore(db)
	taskStore := store.NewTaskStore(db)
	completionStore := store.NewCompletionStore(db)
	ledgerStore := store.NewLedgerStore(db)
	achievementStore := store.NewAchievementStore(db)
	goalStore := store.NewGoalStore(db)

	engine := bonus.NewEngine(achievementStore, ledgerStore, clk, logger.With("component", "bonus"))
	reconciler := ledger.NewReconciler(taskStore, completionStore, ledgerStore, engine, clk, logger.With("component", "reconciler"))
	streakCalc := streak.NewCalculator(taskStore, completionStore)
	checker := bonus.NewChecker(achievementStore, completionStore, ledgerStore, streakCalc, engine, clk, logger.With("component", "achievements"))

	return &Server{
		db:          db,
		profileH:    handler.NewProfileHandler(profileStore, ledgerStore),
		taskH:       handler.NewTaskHandler(taskStore),
		completionH: handler.NewCompletionHandler(completionStore, taskStore, reconciler, checker),
		ledgerH:     handler.NewLedgerHandler(ledgerStore, profileStore, reconciler),
		scheduleH:   handler.NewScheduleHandler(taskStore, completionStore, clk),
		bonusH:      handler.NewBonusHandler(achievementStore, engine, clk),
		streakH:     handler.NewStreakHandler(streakCalc, clk),
		goalH:       handler.NewGoalHandler(goalStore, ledgerStore),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Profiles
	mux.HandleFunc("POST /api/profiles", s.profileH.Create)
	mux.HandleFunc("GET /api/profiles", s.profileH.List)
	mux.HandleFunc("GET /api/profiles/{id}", s.profileH.Get)
	mux.HandleFunc("PUT /api/profiles/{id}", s.profileH.Update)
	mux.HandleFunc("DELETE /api/profiles/{id}", s.profileH.Deactivate)

	// Accounts and ledger
	mux.HandleFunc("POST /api/profiles/{id}/accounts", s.ledgerH.CreateAccount)
	mux.HandleFunc("GET /api/profiles/{id}/accounts", s.ledgerH.ListAccounts)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.ledgerH.DeactivateAccount)
	mux.HandleFunc("GET /api/accounts/{id}/balance", s.ledgerH.Balance)
	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.ledgerH.ListTransactions)
	mux.HandleFunc("POST /api/transfers", s.rateLimited(s.ledgerH.Transfer))
	mux.HandleFunc("POST /api/payouts", s.rateLimited(s.ledgerH.Payout))
	mux.HandleFunc("POST /api/adjustments", s.rateLimited(s.ledgerH.Adjust))

	// Tasks and schedule overrides
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Deactivate)
	mux.HandleFunc("POST /api/tasks/{id}/overrides", s.taskH.SetOverride)
	mux.HandleFunc("DELETE /api/tasks/{id}/overrides/{date}", s.taskH.DeleteOverride)

	// Completions
	mux.HandleFunc("POST /api/completions", s.completionH.Log)
	mux.HandleFunc("GET /api/completions/{id}", s.completionH.Get)
	mux.HandleFunc("PUT /api/completions/{id}/status", s.completionH.SetStatus)

	// Computed views
	mux.HandleFunc("GET /api/profiles/{id}/schedule", s.scheduleH.Day)
	mux.HandleFunc("GET /api/profiles/{id}/week", s.scheduleH.Week)
	mux.HandleFunc("GET /api/profiles/{id}/streak", s.streakH.Get)

	// Achievements and bonuses
	mux.HandleFunc("POST /api/achievements", s.bonusH.CreateAchievement)
	mux.HandleFunc("GET /api/achievements", s.bonusH.ListAchievements)
	mux.HandleFunc("GET /api/profiles/{id}/bonuses", s.bonusH.Summary)
	mux.HandleFunc("POST /api/profiles/{id}/bonuses/consume", s.bonusH.Consume)
	mux.HandleFunc("POST /api/maintenance/expire-bonuses", s.bonusH.ExpireStale)

	// Savings goals
	mux.HandleFunc("POST /api/profiles/{id}/goals", s.goalH.Create)
	mux.HandleFunc("GET /api/profiles/{id}/goals", s.goalH.List)
	mux.HandleFunc("PUT /api/goals/{id}/complete", s.goalH.SetCompleted)
	mux.HandleFunc("DELETE /api/goals/{id}", s.goalH.Delete)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited caps money-moving endpoints per client IP.
func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 30, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
