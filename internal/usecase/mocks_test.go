package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"advertiser-billing/internal/domain"
	"advertiser-billing/internal/domain/model"
	"advertiser-billing/internal/domain/ports/repository"
)

// In-memory repository implementations used by unit tests.

type memAdvertiserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Advertiser
}

func newMemAdvertiserRepo() *memAdvertiserRepo {
	return &memAdvertiserRepo{store: make(map[string]*model.Advertiser)}
}

func (m *memAdvertiserRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Advertiser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAdvertiserRepo) Save(ctx context.Context, _ repository.Tx, a *model.Advertiser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

type memPackageRepo struct {
	mu    sync.RWMutex
	store map[string]*model.PackageDefinition
}

func newMemPackageRepo() *memPackageRepo {
	return &memPackageRepo{store: make(map[string]*model.PackageDefinition)}
}

func (m *memPackageRepo) Save(ctx context.Context, _ repository.Tx, pkg *model.PackageDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pkg
	m.store[pkg.ID] = &cp
	return nil
}

func (m *memPackageRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.PackageDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pkg, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *pkg
	return &cp, nil
}

func (m *memPackageRepo) ListActive(ctx context.Context, _ repository.Tx) ([]*model.PackageDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PackageDefinition
	for _, pkg := range m.store {
		if pkg.IsActive {
			cp := *pkg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPackageRepo) SetActive(ctx context.Context, _ repository.Tx, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	pkg.IsActive = active
	return nil
}

func (m *memPackageRepo) UpdatePrice(ctx context.Context, _ repository.Tx, id string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	pkg.Price = price
	return nil
}

type memPurchaseRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.PackagePurchase
	saveErr error // set by tests to simulate save failures
}

func newMemPurchaseRepo() *memPurchaseRepo {
	return &memPurchaseRepo{store: make(map[string]*model.PackagePurchase)}
}

func copyPurchase(p *model.PackagePurchase) *model.PackagePurchase {
	cp := *p
	if p.PaymentDueDate != nil {
		d := *p.PaymentDueDate
		cp.PaymentDueDate = &d
	}
	if p.ExpiryDate != nil {
		e := *p.ExpiryDate
		cp.ExpiryDate = &e
	}
	return &cp
}

func (m *memPurchaseRepo) Save(ctx context.Context, _ repository.Tx, p *model.PackagePurchase) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[p.ID] = copyPurchase(p)
	return nil
}

func (m *memPurchaseRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.PackagePurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyPurchase(p), nil
}

func (m *memPurchaseRepo) ListByAdvertiser(ctx context.Context, _ repository.Tx, advertiserID string) ([]*model.PackagePurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PackagePurchase
	for _, p := range m.store {
		if p.AdvertiserID == advertiserID {
			out = append(out, copyPurchase(p))
		}
	}
	return out, nil
}

func (m *memPurchaseRepo) ListActiveExpiredBefore(ctx context.Context, _ repository.Tx, cutoff time.Time, limit int) ([]*model.PackagePurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PackagePurchase
	for _, p := range m.store {
		if p.State == model.PurchaseStateActive && p.ExpiryDate != nil && p.ExpiryDate.Before(cutoff) {
			out = append(out, copyPurchase(p))
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memPurchaseRepo) ListActiveExpiringWithin(ctx context.Context, _ repository.Tx, from time.Time, window time.Duration) ([]*model.PackagePurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	until := from.Add(window)
	var out []*model.PackagePurchase
	for _, p := range m.store {
		if p.State != model.PurchaseStateActive || p.ExpiryDate == nil {
			continue
		}
		if p.ExpiryDate.Before(from) || p.ExpiryDate.After(until) {
			continue
		}
		out = append(out, copyPurchase(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(*out[j].ExpiryDate) })
	return out, nil
}

func (m *memPurchaseRepo) ListWithPayments(ctx context.Context, _ repository.Tx) ([]*model.PackagePurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PackagePurchase
	for _, p := range m.store {
		if p.AmountPaid.IsPositive() {
			out = append(out, copyPurchase(p))
		}
	}
	return out, nil
}

func (m *memPurchaseRepo) CountByState(ctx context.Context, _ repository.Tx) (map[model.PurchaseState]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.PurchaseState]int)
	for _, p := range m.store {
		out[p.State]++
	}
	return out, nil
}

type memBillingRepo struct {
	mu        sync.RWMutex
	records   []*model.BillingRecord
	insertErr error // set by tests to simulate append failures
}

func newMemBillingRepo() *memBillingRepo {
	return &memBillingRepo{}
}

func (m *memBillingRepo) Insert(ctx context.Context, _ repository.Tx, rec *model.BillingRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *memBillingRepo) ListByPurchase(ctx context.Context, _ repository.Tx, purchaseID string) ([]*model.BillingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.BillingRecord
	for _, rec := range m.records {
		if rec.PurchaseID == purchaseID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memBillingRepo) SumByPurchase(ctx context.Context, _ repository.Tx, purchaseID string) (decimal.Decimal, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	count := 0
	for _, rec := range m.records {
		if rec.PurchaseID == purchaseID {
			sum = sum.Add(rec.Amount)
			count++
		}
	}
	return sum, count, nil
}

type memReminderLog struct {
	mu    sync.Mutex
	store map[string]struct{}
}

func newMemReminderLog() *memReminderLog {
	return &memReminderLog{store: make(map[string]struct{})}
}

func reminderKey(purchaseID string, day time.Time) string {
	return purchaseID + "@" + day.Format("2006-01-02")
}

func (m *memReminderLog) MarkSent(ctx context.Context, _ repository.Tx, purchaseID string, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := reminderKey(purchaseID, day)
	if _, ok := m.store[k]; ok {
		return false, nil
	}
	m.store[k] = struct{}{}
	return true, nil
}

func (m *memReminderLog) Exists(ctx context.Context, _ repository.Tx, purchaseID string, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.store[reminderKey(purchaseID, day)]
	return ok, nil
}

// stubNotifier collects reminders and optionally fails specific purchases.
type stubNotifier struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]error
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{failFor: make(map[string]error)}
}

func (n *stubNotifier) SendRenewalReminder(ctx context.Context, c *model.RenewalCandidate) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.failFor[c.PurchaseID]; ok {
		return err
	}
	n.sent = append(n.sent, c.PurchaseID)
	return nil
}

func (n *stubNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
