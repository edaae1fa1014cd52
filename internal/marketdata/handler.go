package marketdata

import (
	"errors"
	"net/http"

	"lv-tradesense/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type Handler struct {
	provider Provider
	static   *StaticFetcher
}

// NewHandler serves quotes from provider. static may be nil; when set, operators can
// push prices through SetPrice.
func NewHandler(provider Provider, static *StaticFetcher) *Handler {
	return &Handler{provider: provider, static: static}
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol := NormalizeSymbol(chi.URLParam(r, "symbol"))
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	q, err := h.provider.GetPrice(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			httputil.WriteJSON(w, http.StatusFailedDependency, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

func (h *Handler) SetPrice(w http.ResponseWriter, r *http.Request) {
	if h.static == nil {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "static quotes disabled"})
		return
	}
	var req struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	symbol := NormalizeSymbol(req.Symbol)
	price, err := decimal.NewFromString(req.Price)
	if symbol == "" || err != nil || !price.IsPositive() {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol and positive price required"})
		return
	}
	h.static.SetPrice(symbol, price)
	if cp, ok := h.provider.(*CachedProvider); ok {
		q, err := h.static.Fetch(r.Context(), symbol)
		if err == nil {
			cp.Set(q)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"symbol": symbol, "price": price.String()})
}
