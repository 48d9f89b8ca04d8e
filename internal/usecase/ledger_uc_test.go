package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

type ledgerFixture struct {
	advertisers *memAdvertiserRepo
	packages    *memPackageRepo
	purchases   *memPurchaseRepo
	billing     *memBillingRepo
	uc          *ledgerUC

	advertiserID string
	packageID    string
	price        decimal.Decimal
}

// newLedgerFixture seeds one advertiser and one active 3-month package priced
// 9999.00, wired to in-memory repositories.
func newLedgerFixture(t *testing.T, opts LedgerOptions) *ledgerFixture {
	t.Helper()
	ctx := context.Background()

	f := &ledgerFixture{
		advertisers:  newMemAdvertiserRepo(),
		packages:     newMemPackageRepo(),
		purchases:    newMemPurchaseRepo(),
		billing:      newMemBillingRepo(),
		advertiserID: "adv-1",
		packageID:    "pkg-1",
		price:        mustDecimal(t, "9999.00"),
	}
	if opts.Epsilon.IsZero() {
		opts.Epsilon = mustDecimal(t, "0.01")
	}

	adv, err := model.NewAdvertiser(f.advertiserID, "Acme Outdoor Media", "billing@acme.example")
	if err != nil {
		t.Fatalf("new advertiser: %v", err)
	}
	if err := f.advertisers.Save(ctx, repository.NoTX, adv); err != nil {
		t.Fatalf("save advertiser: %v", err)
	}
	pkg, err := model.NewPackageDefinition(f.packageID, "Business Quarterly", 3, f.price)
	if err != nil {
		t.Fatalf("new package: %v", err)
	}
	if err := f.packages.Save(ctx, repository.NoTX, pkg); err != nil {
		t.Fatalf("save package: %v", err)
	}

	recorder := NewBillingRecorder(f.billing)
	f.uc = NewLedgerUseCase(f.advertisers, f.packages, f.purchases, recorder, nil, opts, testLogger())
	return f
}

func (f *ledgerFixture) mustCreatePurchase(t *testing.T) *model.PackagePurchase {
	t.Helper()
	p, err := f.uc.CreatePurchase(context.Background(), f.advertiserID, f.packageID)
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	return p
}

func (f *ledgerFixture) assertInvariant(t *testing.T, purchaseID string) {
	t.Helper()
	p, err := f.purchases.FindByID(context.Background(), repository.NoTX, purchaseID)
	if err != nil {
		t.Fatalf("find purchase: %v", err)
	}
	if !p.TotalsConsistent(f.price, f.uc.opts.Epsilon) {
		t.Fatalf("totals inconsistent: paid=%s pending=%s price=%s",
			p.AmountPaid, p.PendingAmount, f.price)
	}
	sum, _, err := f.billing.SumByPurchase(context.Background(), repository.NoTX, purchaseID)
	if err != nil {
		t.Fatalf("sum records: %v", err)
	}
	if sum.Sub(p.AmountPaid).Abs().GreaterThan(f.uc.opts.Epsilon) {
		t.Fatalf("ledger sum %s != amount paid %s", sum, p.AmountPaid)
	}
}

func TestCreatePurchase(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{PaymentDueDays: 14})

	p := f.mustCreatePurchase(t)
	if p.State != model.PurchaseStatePending {
		t.Fatalf("state = %s, want pending", p.State)
	}
	if !p.AmountPaid.IsZero() {
		t.Fatalf("amount paid = %s, want 0", p.AmountPaid)
	}
	if !p.PendingAmount.Equal(f.price) {
		t.Fatalf("pending = %s, want %s", p.PendingAmount, f.price)
	}
	if p.PaymentDueDate == nil {
		t.Fatal("payment due date not set")
	}
	if p.ExpiryDate != nil {
		t.Fatal("expiry date set before activation")
	}
	f.assertInvariant(t, p.ID)
}

func TestCreatePurchase_Rejections(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()

	if _, err := f.uc.CreatePurchase(ctx, "nobody", f.packageID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown advertiser: err = %v, want ErrNotFound", err)
	}
	if _, err := f.uc.CreatePurchase(ctx, f.advertiserID, "no-such-pkg"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown package: err = %v, want ErrNotFound", err)
	}

	if err := f.packages.SetActive(ctx, repository.NoTX, f.packageID, false); err != nil {
		t.Fatalf("deactivate package: %v", err)
	}
	if _, err := f.uc.CreatePurchase(ctx, f.advertiserID, f.packageID); !errors.Is(err, domain.ErrInactivePackage) {
		t.Fatalf("inactive package: err = %v, want ErrInactivePackage", err)
	}
}

func TestRecordPayment_FullAmount(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()
	p := f.mustCreatePurchase(t)

	got, rec, err := f.uc.RecordPayment(ctx, p.ID, f.price)
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if got.State != model.PurchaseStateActive {
		t.Fatalf("state = %s, want active", got.State)
	}
	if !got.AmountPaid.Equal(f.price) || !got.PendingAmount.IsZero() {
		t.Fatalf("paid=%s pending=%s, want %s and 0", got.AmountPaid, got.PendingAmount, f.price)
	}
	if got.ExpiryDate == nil {
		t.Fatal("expiry date not set on activation")
	}
	wantExpiry := got.PurchaseDate.AddDate(0, 3, 0)
	if !got.ExpiryDate.Equal(wantExpiry) {
		t.Fatalf("expiry = %s, want %s", got.ExpiryDate, wantExpiry)
	}
	if !rec.Amount.Equal(f.price) {
		t.Fatalf("record amount = %s, want %s", rec.Amount, f.price)
	}

	recs, err := f.billing.ListByPurchase(ctx, repository.NoTX, p.ID)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	f.assertInvariant(t, p.ID)
}

func TestRecordPayment_Installments(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()
	p := f.mustCreatePurchase(t)

	first, _, err := f.uc.RecordPayment(ctx, p.ID, mustDecimal(t, "3000.00"))
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	// default policy activates on the first accepted payment
	if first.State != model.PurchaseStateActive {
		t.Fatalf("state after first payment = %s, want active", first.State)
	}
	if !first.PendingAmount.Equal(mustDecimal(t, "6999.00")) {
		t.Fatalf("pending = %s, want 6999.00", first.PendingAmount)
	}
	f.assertInvariant(t, p.ID)

	second, _, err := f.uc.RecordPayment(ctx, p.ID, mustDecimal(t, "6999.00"))
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !second.PendingAmount.IsZero() || !second.AmountPaid.Equal(f.price) {
		t.Fatalf("paid=%s pending=%s after settling", second.AmountPaid, second.PendingAmount)
	}

	recs, err := f.uc.BillingHistory(ctx, p.ID)
	if err != nil {
		t.Fatalf("billing history: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].ID >= recs[1].ID {
		t.Fatalf("records out of creation order: %s, %s", recs[0].ID, recs[1].ID)
	}
	f.assertInvariant(t, p.ID)
}

func TestRecordPayment_FullPaymentPolicy(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{Policy: ActivateOnFullPayment})
	ctx := context.Background()
	p := f.mustCreatePurchase(t)

	partial, _, err := f.uc.RecordPayment(ctx, p.ID, mustDecimal(t, "5000.00"))
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if partial.State != model.PurchaseStatePending {
		t.Fatalf("state after partial = %s, want pending", partial.State)
	}
	if partial.ExpiryDate != nil {
		t.Fatal("expiry set before full payment")
	}

	settled, _, err := f.uc.RecordPayment(ctx, p.ID, mustDecimal(t, "4999.00"))
	if err != nil {
		t.Fatalf("settling payment: %v", err)
	}
	if settled.State != model.PurchaseStateActive {
		t.Fatalf("state after settling = %s, want active", settled.State)
	}
	f.assertInvariant(t, p.ID)
}

func TestRecordPayment_Overpayment(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()
	p := f.mustCreatePurchase(t)

	_, _, err := f.uc.RecordPayment(ctx, p.ID, mustDecimal(t, "9999.02"))
	if !errors.Is(err, domain.ErrOverpayment) {
		t.Fatalf("err = %v, want ErrOverpayment", err)
	}

	// rejected payments must leave no trace
	got, err := f.purchases.FindByID(ctx, repository.NoTX, p.ID)
	if err != nil {
		t.Fatalf("find purchase: %v", err)
	}
	if !got.AmountPaid.IsZero() || got.State != model.PurchaseStatePending {
		t.Fatalf("purchase mutated by rejected payment: paid=%s state=%s", got.AmountPaid, got.State)
	}
	if _, count, _ := f.billing.SumByPurchase(ctx, repository.NoTX, p.ID); count != 0 {
		t.Fatalf("records = %d, want 0", count)
	}
}

func TestRecordPayment_EpsilonOvershoot(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()
	p := f.mustCreatePurchase(t)

	// one cent above the price is inside the tolerance; the pending amount
	// clamps to zero instead of going negative
	got, _, err := f.uc.RecordPayment(ctx, p.ID, mustDecimal(t, "9999.01"))
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if !got.PendingAmount.IsZero() {
		t.Fatalf("pending = %s, want 0", got.PendingAmount)
	}
	if !got.AmountPaid.Equal(f.price) {
		t.Fatalf("paid = %s, want clamped to %s", got.AmountPaid, f.price)
	}
	f.assertInvariant(t, p.ID)
}

func TestRecordPayment_TerminalStates(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()
	p := f.mustCreatePurchase(t)

	if _, err := f.uc.Cancel(ctx, p.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, _, err := f.uc.RecordPayment(ctx, p.ID, mustDecimal(t, "100.00"))
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("err = %v, want ErrInvalidStateTransition", err)
	}
	if _, count, _ := f.billing.SumByPurchase(ctx, repository.NoTX, p.ID); count != 0 {
		t.Fatalf("records = %d, want 0", count)
	}
}

func TestRecordPayment_InvalidAmount(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()
	p := f.mustCreatePurchase(t)

	for _, amount := range []string{"0", "-5.00"} {
		if _, _, err := f.uc.RecordPayment(ctx, p.ID, mustDecimal(t, amount)); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("amount %s: err = %v, want ErrInvalidArgument", amount, err)
		}
	}
}

func TestRecordPayment_AppendFailureLeavesPurchaseUntouched(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()
	p := f.mustCreatePurchase(t)

	f.billing.insertErr = errors.New("ledger down")
	if _, _, err := f.uc.RecordPayment(ctx, p.ID, mustDecimal(t, "100.00")); err == nil {
		t.Fatal("expected error when the billing append fails")
	}
	got, err := f.purchases.FindByID(ctx, repository.NoTX, p.ID)
	if err != nil {
		t.Fatalf("find purchase: %v", err)
	}
	if !got.AmountPaid.IsZero() || got.State != model.PurchaseStatePending {
		t.Fatalf("purchase mutated despite failed append: paid=%s state=%s", got.AmountPaid, got.State)
	}
}

func TestRecordPayment_Concurrent(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()
	p := f.mustCreatePurchase(t)

	const workers = 9
	share := mustDecimal(t, "1111.00") // 9 x 1111.00 == 9999.00

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := f.uc.RecordPayment(ctx, p.ID, share); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent payment: %v", err)
	}

	got, err := f.purchases.FindByID(ctx, repository.NoTX, p.ID)
	if err != nil {
		t.Fatalf("find purchase: %v", err)
	}
	if !got.AmountPaid.Equal(f.price) || !got.PendingAmount.IsZero() {
		t.Fatalf("paid=%s pending=%s after concurrent payments", got.AmountPaid, got.PendingAmount)
	}
	sum, count, err := f.billing.SumByPurchase(ctx, repository.NoTX, p.ID)
	if err != nil {
		t.Fatalf("sum records: %v", err)
	}
	if count != workers || !sum.Equal(f.price) {
		t.Fatalf("records=%d sum=%s, want %d and %s", count, sum, workers, f.price)
	}
	f.assertInvariant(t, p.ID)
}

func TestListPurchases(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()

	first := f.mustCreatePurchase(t)
	second := f.mustCreatePurchase(t)

	got, err := f.uc.ListPurchases(ctx, f.advertiserID)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("purchases = %d, want 2", len(got))
	}
	ids := map[string]bool{first.ID: false, second.ID: false}
	for _, p := range got {
		ids[p.ID] = true
	}
	for id, seen := range ids {
		if !seen {
			t.Fatalf("purchase %s missing from listing", id)
		}
	}

	if _, err := f.uc.ListPurchases(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown advertiser: err = %v, want ErrNotFound", err)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()

	pending := f.mustCreatePurchase(t)
	got, err := f.uc.Cancel(ctx, pending.ID)
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if got.State != model.PurchaseStateCancelled {
		t.Fatalf("state = %s, want cancelled", got.State)
	}

	// cancelling twice is a state violation
	if _, err := f.uc.Cancel(ctx, pending.ID); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("double cancel: err = %v, want ErrInvalidStateTransition", err)
	}

	if _, err := f.uc.Cancel(ctx, "no-such-purchase"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown purchase: err = %v, want ErrNotFound", err)
	}
}

func TestExpireOverdue(t *testing.T) {
	t.Parallel()
	f := newLedgerFixture(t, LedgerOptions{})
	ctx := context.Background()

	p := f.mustCreatePurchase(t)
	if _, _, err := f.uc.RecordPayment(ctx, p.ID, f.price); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	// push the expiry into the past directly in the store
	stored, err := f.purchases.FindByID(ctx, repository.NoTX, p.ID)
	if err != nil {
		t.Fatalf("find purchase: %v", err)
	}
	past := time.Now().Add(-48 * time.Hour)
	stored.ExpiryDate = &past
	if err := f.purchases.Save(ctx, repository.NoTX, stored); err != nil {
		t.Fatalf("save purchase: %v", err)
	}

	count, err := f.uc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatalf("expire overdue: %v", err)
	}
	if count != 1 {
		t.Fatalf("expired = %d, want 1", count)
	}
	got, err := f.purchases.FindByID(ctx, repository.NoTX, p.ID)
	if err != nil {
		t.Fatalf("find purchase: %v", err)
	}
	if got.State != model.PurchaseStateExpired {
		t.Fatalf("state = %s, want expired", got.State)
	}

	// second sweep finds nothing
	count, err = f.uc.ExpireOverdue(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired on second sweep = %d, want 0", count)
	}
}
