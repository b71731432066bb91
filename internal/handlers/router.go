package handlers

import (
	"net/http"

	"wallet/internal/config"
	"wallet/internal/db"
	"wallet/internal/middleware"
	"wallet/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner db.TxRunner
	cfg      config.Config
	accounts AccountStore
	ledger   LedgerStore
	audit    AuditStore
	service  WalletService
	hub      *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, accounts AccountStore, ledger LedgerStore, audit AuditStore, service WalletService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner: txRunner,
		cfg:      cfg,
		accounts: accounts,
		ledger:   ledger,
		audit:    audit,
		service:  service,
		hub:      hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Secret"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/account", h.GetAccount)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Put("/account/profile", h.UpdateProfile)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Put("/account/pin", h.SetPin)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/transfers", h.Transfer)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/topups", h.TopUp)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/ledger", h.ListLedger)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/ledger/{reference}", h.GetLedgerEntry)
	router.Get("/ws/balances", h.WSBalances)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.cfg.AdminSecret))
		r.Post("/adjust", h.AdminAdjust)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
