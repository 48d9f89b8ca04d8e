package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/infra/logging"
	"advertiser-billing/internal/infra/metrics"
)

type purchaseResponse struct {
	ID             string     `json:"id"`
	AdvertiserID   string     `json:"advertiser_id"`
	PackageID      string     `json:"package_id"`
	State          string     `json:"state"`
	AmountPaid     string     `json:"amount_paid"`
	PendingAmount  string     `json:"pending_amount"`
	PurchaseDate   time.Time  `json:"purchase_date"`
	PaymentDueDate *time.Time `json:"payment_due_date,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
}

func toPurchaseResponse(p *model.PackagePurchase) purchaseResponse {
	return purchaseResponse{
		ID:             p.ID,
		AdvertiserID:   p.AdvertiserID,
		PackageID:      p.PackageID,
		State:          string(p.State),
		AmountPaid:     p.AmountPaid.String(),
		PendingAmount:  p.PendingAmount.String(),
		PurchaseDate:   p.PurchaseDate,
		PaymentDueDate: p.PaymentDueDate,
		ExpiryDate:     p.ExpiryDate,
	}
}

func (s *Server) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		DurationMonths int    `json:"duration_months"`
		Price          string `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		http.Error(w, "invalid price", http.StatusBadRequest)
		return
	}
	pkg, err := s.catalog.Create(r.Context(), req.Name, req.DurationMonths, price)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, pkg)
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.catalog.ListActive(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pkgs)
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdvertiserID string `json:"advertiser_id"`
		PackageID    string `json:"package_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	ctx := logging.WithAdvertiserID(r.Context(), req.AdvertiserID)
	purchase, err := s.ledger.CreatePurchase(ctx, req.AdvertiserID, req.PackageID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toPurchaseResponse(purchase))
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := s.ledger.GetPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	ctx := logging.WithPurchaseID(r.Context(), chi.URLParam(r, "id"))
	purchase, record, err := s.ledger.RecordPayment(ctx, chi.URLParam(r, "id"), amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOverpayment):
			metrics.IncPayment("rejected_overpayment")
		case errors.Is(err, domain.ErrInvalidStateTransition):
			metrics.IncPayment("rejected_state")
		case errors.Is(err, domain.ErrInvalidArgument):
			metrics.IncPayment("rejected_amount")
		default:
			metrics.IncPayment("error")
		}
		s.writeError(w, err)
		return
	}
	metrics.IncPayment("accepted")
	amt, _ := amount.Float64()
	metrics.AddPaymentAmount(amt)

	s.writeJSON(w, http.StatusOK, struct {
		Purchase purchaseResponse `json:"purchase"`
		Record   struct {
			ID        string    `json:"id"`
			Amount    string    `json:"amount"`
			Invoice   string    `json:"invoice"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"billing_record"`
	}{
		Purchase: toPurchaseResponse(purchase),
		Record: struct {
			ID        string    `json:"id"`
			Amount    string    `json:"amount"`
			Invoice   string    `json:"invoice"`
			CreatedAt time.Time `json:"created_at"`
		}{
			ID:        record.ID,
			Amount:    record.Amount.String(),
			Invoice:   model.InvoiceNumber(record.ID),
			CreatedAt: record.CreatedAt,
		},
	})
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.ledger.ListPurchases(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseResponse(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCancelPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := s.ledger.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

func (s *Server) handleBillingHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.BillingHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	type entry struct {
		ID        string    `json:"id"`
		Amount    string    `json:"amount"`
		Invoice   string    `json:"invoice"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]entry, 0, len(records))
	for _, rec := range records {
		out = append(out, entry{
			ID:        rec.ID,
			Amount:    rec.Amount.String(),
			Invoice:   model.InvoiceNumber(rec.ID),
			CreatedAt: rec.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRenewals(w http.ResponseWriter, r *http.Request) {
	windowDays := intQuery(r, "window_days", 30)
	urgentDays := intQuery(r, "urgent_threshold_days", 0)
	candidates, err := s.renewals.ListRenewals(r.Context(), windowDays, urgentDays)
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics.SetRenewalCandidates(candidates)
	s.writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleRunReconciliation(w http.ResponseWriter, r *http.Request) {
	findings, err := s.recon.Run(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics.ObserveReconciliation(findings)
	s.writeJSON(w, http.StatusOK, struct {
		Discrepancies []model.Discrepancy `json:"discrepancies"`
		Count         int                 `json:"count"`
	}{Discrepancies: findings, Count: len(findings)})
}

func (s *Server) handleExpireOverdue(w http.ResponseWriter, r *http.Request) {
	count, err := s.ledger.ExpireOverdue(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if count > 0 {
		metrics.IncPurchasesExpired(count)
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"expired": count})
}

func intQuery(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInactivePackage):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidStateTransition), errors.Is(err, domain.ErrOverpayment):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}
