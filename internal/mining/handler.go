// Package mining holds the dashboard and save-mining handlers: the
// per-user history view and the JSON endpoint that records an amount
// and returns the running total for that currency.
package mining

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ayush/mining-tracker/internal/middleware"
	"github.com/ayush/mining-tracker/internal/models"
	"github.com/ayush/mining-tracker/internal/web"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// UserStore resolves the session's user id to the full user row.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// RecordStore defines the interface for mining-record persistence.
type RecordStore interface {
	InsertMiningRecord(ctx context.Context, rec *models.MiningRecord) error
	TotalMined(ctx context.Context, username, cryptocurrency string) (decimal.Decimal, error)
	ListMiningByUsername(ctx context.Context, username string) ([]models.MiningRecord, error)
}

// Handler holds the mining HTTP handlers.
type Handler struct {
	users   UserStore
	records RecordStore
	views   *web.Renderer
}

func NewHandler(users UserStore, records RecordStore, views *web.Renderer) *Handler {
	return &Handler{users: users, records: records, views: views}
}

// Dashboard renders the caller's full mining history, newest first.
// Records are matched by username, not user id, so the page shows
// whatever history carries the name the user registered with.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFrom(r.Context())

	user, err := h.users.GetUserByID(r.Context(), ident.UserID)
	if err != nil {
		log.Printf("dashboard user lookup: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	records, err := h.records.ListMiningByUsername(r.Context(), user.Username)
	if err != nil {
		log.Printf("dashboard records: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.views.Render(w, "dashboard.html", web.DashboardPage{
		Flash:    web.PopFlash(w, r),
		Username: user.Username,
		Records:  records,
	})
}

// SaveMining records one mining event for the authenticated user and
// replies with the running total for that cryptocurrency, recomputed
// over the whole history so it always matches the committed rows.
func (h *Handler) SaveMining(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFrom(r.Context())

	var req models.SaveMiningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "error": "invalid request body: " + err.Error(),
		})
		return
	}
	if req.Cryptocurrency == "" {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "error": "cryptocurrency is required",
		})
		return
	}

	user, err := h.users.GetUserByID(r.Context(), ident.UserID)
	if err != nil {
		log.Printf("save_mining user lookup: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "error": "user lookup failed",
		})
		return
	}

	rec := &models.MiningRecord{
		Username:       user.Username,
		Email:          user.Email,
		Cryptocurrency: req.Cryptocurrency,
		Amount:         req.Amount,
	}
	if err := h.records.InsertMiningRecord(r.Context(), rec); err != nil {
		log.Printf("save_mining insert: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "error": err.Error(),
		})
		return
	}

	total, err := h.records.TotalMined(r.Context(), user.Username, req.Cryptocurrency)
	if err != nil {
		log.Printf("save_mining total: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, models.SaveMiningResponse{
		Success:     true,
		Username:    user.Username,
		TotalAmount: total.InexactFloat64(),
	})
}
