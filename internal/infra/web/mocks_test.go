package web

import (
	"context"

	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain/model"
)

// Stub use cases returning canned values; handler tests only exercise the
// HTTP layer.

type stubLedger struct {
	purchase *model.PackagePurchase
	record   *model.BillingRecord
	expired  int
	err      error
}

func (s *stubLedger) CreatePurchase(_ context.Context, _, _ string) (*model.PackagePurchase, error) {
	return s.purchase, s.err
}

func (s *stubLedger) RecordPayment(_ context.Context, _ string, _ decimal.Decimal) (*model.PackagePurchase, *model.BillingRecord, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.purchase, s.record, nil
}

func (s *stubLedger) Cancel(_ context.Context, _ string) (*model.PackagePurchase, error) {
	return s.purchase, s.err
}

func (s *stubLedger) ExpireOverdue(_ context.Context) (int, error) {
	return s.expired, s.err
}

func (s *stubLedger) GetPurchase(_ context.Context, _ string) (*model.PackagePurchase, error) {
	return s.purchase, s.err
}

func (s *stubLedger) ListPurchases(_ context.Context, _ string) ([]*model.PackagePurchase, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.purchase == nil {
		return nil, nil
	}
	return []*model.PackagePurchase{s.purchase}, nil
}

func (s *stubLedger) BillingHistory(_ context.Context, _ string) ([]*model.BillingRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.record == nil {
		return nil, nil
	}
	return []*model.BillingRecord{s.record}, nil
}

type stubCatalog struct {
	pkg *model.PackageDefinition
	err error
}

func (s *stubCatalog) Create(_ context.Context, _ string, _ int, _ decimal.Decimal) (*model.PackageDefinition, error) {
	return s.pkg, s.err
}

func (s *stubCatalog) Get(_ context.Context, _ string) (*model.PackageDefinition, error) {
	return s.pkg, s.err
}

func (s *stubCatalog) ListActive(_ context.Context) ([]*model.PackageDefinition, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*model.PackageDefinition{s.pkg}, nil
}

func (s *stubCatalog) SetActive(_ context.Context, _ string, _ bool) error { return s.err }

func (s *stubCatalog) UpdatePrice(_ context.Context, _ string, _ decimal.Decimal) error {
	return s.err
}

type stubRenewals struct {
	candidates []*model.RenewalCandidate
	sent       int
	err        error
}

func (s *stubRenewals) ListRenewals(_ context.Context, _, _ int) ([]*model.RenewalCandidate, error) {
	return s.candidates, s.err
}

func (s *stubRenewals) SendReminders(_ context.Context, _ int) (int, error) {
	return s.sent, s.err
}

type stubRecon struct {
	findings []model.Discrepancy
	err      error
}

func (s *stubRecon) Run(_ context.Context) ([]model.Discrepancy, error) {
	return s.findings, s.err
}
