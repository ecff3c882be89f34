package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/logger"
)

// HistoryReader is the read side of the history store
type HistoryReader interface {
	List() []contracts.RecommendationInfo
	Info(symbol string) (contracts.RecommendationInfo, bool)
	ExcludedSymbols(cooldownDays int) map[string]struct{}
}

// HistoryHandler serves recommendation history
// ⭐ SSOT: 추천 이력 API 핸들러는 이 구조체에서만
type HistoryHandler struct {
	history      HistoryReader
	cooldownDays int
	logger       *logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history HistoryReader, cooldownDays int, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		history:      history,
		cooldownDays: cooldownDays,
		logger:       log,
	}
}

// HistoryItem is one entry with its cooldown status
type HistoryItem struct {
	contracts.RecommendationInfo
	InCooldown bool `json:"in_cooldown"`
}

// List returns every entry, most recent first
// GET /api/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	excluded := h.history.ExcludedSymbols(h.cooldownDays)

	entries := h.history.List()
	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		_, cooling := excluded[e.Symbol]
		items = append(items, HistoryItem{RecommendationInfo: e, InCooldown: cooling})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cooldown_days": h.cooldownDays,
		"count":         len(items),
		"items":         items,
	})
}

// Get returns one symbol
// GET /api/history/{symbol}
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	info, ok := h.history.Info(symbol)
	if !ok {
		respondError(w, http.StatusNotFound, "symbol has never been recommended")
		return
	}

	_, cooling := h.history.ExcludedSymbols(h.cooldownDays)[symbol]
	respondJSON(w, http.StatusOK, HistoryItem{RecommendationInfo: info, InCooldown: cooling})
}
