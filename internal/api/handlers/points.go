package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/point-ledger/internal/api/httpx"
	"github.com/baharkarakas/point-ledger/internal/api/validate"
	"github.com/baharkarakas/point-ledger/internal/middleware"
	"github.com/baharkarakas/point-ledger/internal/models"
)

const (
	maxUserIDLen = 128
	maxBodyBytes = 1 << 10
)

type Ledger interface {
	GetBalance(ctx context.Context, userID string) (models.Balance, error)
	GetHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	Charge(ctx context.Context, userID string, amount int64) (models.Balance, error)
	Use(ctx context.Context, userID string, amount int64) (models.Balance, error)
}

type PointHandler struct {
	ledger Ledger
}

func NewPointHandler(l Ledger) *PointHandler { return &PointHandler{ledger: l} }

func (h *PointHandler) Balance(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	b, err := h.ledger.GetBalance(r.Context(), uid)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *PointHandler) Histories(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	entries, err := h.ledger.GetHistory(r.Context(), uid)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

func (h *PointHandler) Charge(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.ledger.Charge)
}

func (h *PointHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.ledger.Use)
}

func (h *PointHandler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, string, int64) (models.Balance, error)) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	amount, err := decodeAmount(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "body must be an amount", nil)
		return
	}
	if errs := validate.Collect(
		validate.IntRange("amount", amount, models.MinTxAmount, models.MaxTxAmount),
	); errs != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_amount", errs.Error(), errs)
		return
	}
	b, err := op(r.Context(), uid, amount)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := chi.URLParam(r, "userID")
	if errs := validate.Collect(
		validate.Required("user_id", uid),
		validate.MaxLen("user_id", uid, maxUserIDLen),
	); errs != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_user", errs.Error(), errs)
		return "", false
	}
	return uid, true
}

// decodeAmount accepts a bare JSON number or {"amount": n}.
func decodeAmount(body io.Reader) (int64, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return 0, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, errors.New("empty body")
	}
	if raw[0] == '{' {
		var req struct {
			Amount *int64 `json:"amount"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return 0, err
		}
		if req.Amount == nil {
			return 0, errors.New("amount missing")
		}
		return *req.Amount, nil
	}
	var amount int64
	if err := json.Unmarshal(raw, &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

func writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidUser):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_user", err.Error(), nil)
	case errors.Is(err, models.ErrBalanceLimitExceeded):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "balance_limit_exceeded", err.Error(), nil)
	case errors.Is(err, models.ErrInsufficientBalance):
		httpx.WriteError(w, http.StatusConflict, "insufficient_balance", err.Error(), nil)
	default:
		slog.Error("ledger", "err", err, "request_id", middleware.RequestIDFrom(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
