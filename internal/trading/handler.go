package trading

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lv-tradesense/internal/accounts"
	"lv-tradesense/internal/httputil"
	"lv-tradesense/internal/model"
	"lv-tradesense/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxTradesLimit = 500

type Handler struct {
	svc      *Service
	accounts *accounts.Service
}

func NewHandler(svc *Service, accountSvc *accounts.Service) *Handler {
	return &Handler{svc: svc, accounts: accountSvc}
}

type tradeRequest struct {
	ChallengeID string `json:"challenge_id"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Quantity    string `json:"quantity"`
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request, userID string) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(req.Quantity))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid quantity"})
		return
	}
	c, err := h.accounts.Resolve(r.Context(), userID, req.ChallengeID)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.svc.SettleTrade(r.Context(), TradeRequest{
		ChallengeID: c.ID,
		UserID:      userID,
		Symbol:      req.Symbol,
		Side:        types.TradeSide(strings.ToLower(strings.TrimSpace(req.Side))),
		Quantity:    qty,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request, userID string) {
	c, err := h.accounts.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.EvaluateRules(r.Context(), c.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Positions(w http.ResponseWriter, r *http.Request, userID string) {
	positions, err := h.accounts.Positions(r.Context(), userID, r.URL.Query().Get("challenge_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if positions == nil {
		positions = []model.Position{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

func (h *Handler) Trades(w http.ResponseWriter, r *http.Request, userID string) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxTradesLimit)
	}
	trades, err := h.accounts.Trades(r.Context(), userID, r.URL.Query().Get("challenge_id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"trades": trades})
}

func (h *Handler) DailyReset(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.DailyReset(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{"reset": n, "error": err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"reset": n})
}

func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	evaluated, terminal, err := h.svc.Sweep(r.Context())
	body := map[string]any{"evaluated": evaluated, "terminal": terminal}
	if err != nil {
		body["error"] = err.Error()
		httputil.WriteJSON(w, http.StatusInternalServerError, body)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}

// StatusFor maps a settlement error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, accounts.ErrNotFound), errors.Is(err, accounts.ErrNoActive):
		return http.StatusNotFound
	case errors.Is(err, ErrAccountNotActive):
		return http.StatusConflict
	case errors.Is(err, ErrLockTimeout), errors.Is(err, ErrStaleState):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrPriceUnavailable):
		return http.StatusFailedDependency
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidSide), errors.Is(err, ErrInvalidSymbol),
		errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrInsufficientPosition):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error(), Retryable: Retryable(err)})
}
