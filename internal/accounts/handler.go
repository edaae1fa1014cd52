package accounts

import (
	"errors"
	"net/http"

	"lv-tradesense/internal/httputil"
	"lv-tradesense/internal/model"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"plans": h.svc.Plans()})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, userID string) {
	challenges, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if challenges == nil {
		challenges = []model.Challenge{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"challenges": challenges})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	c, err := h.svc.Create(r.Context(), userID, req.Plan)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"challenge": c})
}

func (h *Handler) Active(w http.ResponseWriter, r *http.Request, userID string) {
	c, err := h.svc.Active(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"challenge": c})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	c, err := h.svc.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"challenge": c})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request, userID string) {
	report, err := h.svc.Status(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request, userID string) {
	m, err := h.svc.Metrics(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoActive):
		status = http.StatusNotFound
	case errors.Is(err, ErrActiveExists):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalidPlan):
		status = http.StatusBadRequest
	}
	httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: err.Error()})
}
