package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sawomule/go-resto-pos.git/internal/orders"
	"github.com/sawomule/go-resto-pos.git/internal/payments"
)

type PaymentsHandler struct {
	Service *payments.Service
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/orders/pay", h.settle)
	r.Get("/payments", h.listPayments)
	r.Get("/payments/{id}", h.getPayment)
	r.Post("/payments/{id}/print", h.reprint)
}

func (h *PaymentsHandler) settle(w http.ResponseWriter, r *http.Request) {
	var req payments.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "fail", "message": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Service.Settle(ctx, req)
	if err != nil {
		if errors.Is(err, payments.ErrAlreadySettled) || errors.Is(err, payments.ErrInsufficientCash) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "fail", "message": err.Error()})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"payment":      res.Payment,
		"total_amount": res.TotalAmount,
		"change":       res.Change,
	})
}

func (h *PaymentsHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	var from, to *time.Time
	if v := q.Get("start_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = &t
		}
	}
	if v := q.Get("end_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			to = &end
		}
	}

	ps, err := h.Service.ListPayments(ctx, orders.PaymentMethod(q.Get("payment_method")), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *PaymentsHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "fail", "message": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Service.GetPayment(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentsHandler) reprint(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "fail", "message": "invalid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := h.Service.Reprint(ctx, id); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "fail", "message": "failed to print receipt"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "receipt printed successfully"})
}
