package services

import (
	"context"
	"sync"
	"time"

	"github.com/baharkarakas/paywall-backend/internal/models"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
)

type entKey struct{ user, work, ep string }

// memStore backs every repository interface with maps. Transactions are
// serialised and roll back by restoring a snapshot.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	wallets      map[string]int64
	entitlements map[entKey]int
	payments     map[string]models.Payment
	episodes     map[string]models.Episode
	packages     map[int64]int64
	ledger       []models.LedgerEntry
	audit        []models.AuditLog
}

func newMemStore() *memStore {
	return &memStore{
		wallets:      map[string]int64{},
		entitlements: map[entKey]int{},
		payments:     map[string]models.Payment{},
		episodes:     map[string]models.Episode{},
		packages:     map[int64]int64{1000: 1000, 3000: 3300, 5000: 5800, 10000: 12000},
	}
}

type memSnapshot struct {
	wallets      map[string]int64
	entitlements map[entKey]int
	payments     map[string]models.Payment
	ledger       int
	audit        int
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		wallets:      map[string]int64{},
		entitlements: map[entKey]int{},
		payments:     map[string]models.Payment{},
		ledger:       len(m.ledger),
		audit:        len(m.audit),
	}
	for k, v := range m.wallets {
		s.wallets[k] = v
	}
	for k, v := range m.entitlements {
		s.entitlements[k] = v
	}
	for k, v := range m.payments {
		s.payments[k] = v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets = s.wallets
	m.entitlements = s.entitlements
	m.payments = s.payments
	m.ledger = m.ledger[:s.ledger]
	m.audit = m.audit[:s.audit]
}

type inTx struct{}

func (m *memStore) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTx{}) != nil {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()
	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, inTx{}, true)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// wallets

type memWallets struct{ *memStore }

func (w memWallets) Get(_ context.Context, userID string) (models.Wallet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return models.Wallet{UserID: userID, Points: w.wallets[userID]}, nil
}

func (w memWallets) Credit(_ context.Context, userID string, amount int64) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.wallets[userID] += amount
	return w.wallets[userID], nil
}

func (w memWallets) Debit(_ context.Context, userID string, amount int64) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.wallets[userID] < amount {
		return 0, repo.ErrInsufficientFunds
	}
	w.wallets[userID] -= amount
	return w.wallets[userID], nil
}

// entitlements

type memEntitlements struct{ *memStore }

func (e memEntitlements) GetUnlockedUntil(_ context.Context, u, wk, ep string, free int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n, ok := e.entitlements[entKey{u, wk, ep}]; ok && n > free {
		return n, nil
	}
	return free, nil
}

func (e memEntitlements) AdvanceUnlockedUntil(_ context.Context, u, wk, ep string, free, target int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := entKey{u, wk, ep}
	n, ok := e.entitlements[k]
	if !ok {
		n = free
	}
	if target > n {
		n = target
	}
	e.entitlements[k] = n
	return n, nil
}

// payments

type memPayments struct{ *memStore }

func (p memPayments) Create(_ context.Context, pay models.Payment) (models.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.payments[pay.OrderID]; ok {
		return models.Payment{}, repo.ErrDuplicate
	}
	pay.CreatedAt = time.Now()
	p.payments[pay.OrderID] = pay
	return pay, nil
}

func (p memPayments) Get(_ context.Context, orderID string) (models.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pay, ok := p.payments[orderID]
	if !ok {
		return models.Payment{}, repo.ErrNotFound
	}
	return pay, nil
}

func (p memPayments) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Payment
	for _, pay := range p.payments {
		if pay.UserID == userID {
			out = append(out, pay)
		}
	}
	return out, nil
}

func (p memPayments) MarkPaid(_ context.Context, orderID string, raw []byte, paidAt time.Time) (models.Payment, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pay, ok := p.payments[orderID]
	if !ok {
		return models.Payment{}, false, repo.ErrNotFound
	}
	if pay.Status == models.PaymentPaid {
		return pay, false, nil
	}
	pay.Status = models.PaymentPaid
	pay.RawPayload = append([]byte(nil), raw...)
	pay.PaidAt = &paidAt
	p.payments[orderID] = pay
	return pay, true, nil
}

func (p memPayments) MarkFailed(_ context.Context, orderID string, raw []byte) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pay, ok := p.payments[orderID]
	if !ok || pay.Status != models.PaymentPending {
		return false, nil
	}
	pay.Status = models.PaymentFailed
	pay.RawPayload = append([]byte(nil), raw...)
	p.payments[orderID] = pay
	return true, nil
}

// catalog

type memCatalog struct{ *memStore }

func (c memCatalog) Episode(_ context.Context, work, ep string) (models.Episode, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.episodes[work+"/"+ep]
	return e, ok, nil
}

func (c memCatalog) ListEpisodes(_ context.Context, work string) ([]models.Episode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Episode
	for _, e := range c.episodes {
		if e.WorkID == work {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c memCatalog) UpsertEpisode(_ context.Context, e models.Episode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.episodes[e.WorkID+"/"+e.EpisodeID] = e
	return nil
}

func (c memCatalog) PackageForAmount(_ context.Context, amount int64) (models.PointPackage, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pts, ok := c.packages[amount]
	return models.PointPackage{Amount: amount, Points: pts}, ok, nil
}

// ledger + audit

type memLedger struct{ *memStore }

func (l memLedger) Append(_ context.Context, e models.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Reason == models.ReasonSettlement {
		for _, x := range l.ledger {
			if x.Reason == models.ReasonSettlement && x.Reference == e.Reference {
				return repo.ErrDuplicate
			}
		}
	}
	l.ledger = append(l.ledger, e)
	return nil
}

func (l memLedger) ListByUser(_ context.Context, userID string, limit, offset int) ([]models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range l.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memAudit struct{ *memStore }

func (a memAudit) Create(_ context.Context, l models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.audit = append(a.audit, l)
	return nil
}

func (m *memStore) balance(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[userID]
}

func (m *memStore) ledgerFor(userID string) []models.LedgerEntry {
	out, _ := memLedger{m}.ListByUser(context.Background(), userID, 0, 0)
	return out
}

// recordingEmitter captures emitted events synchronously.
type recordingEmitter struct {
	mu   sync.Mutex
	keys []string
	sent []any
}

func (r *recordingEmitter) Emit(key string, body any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.sent = append(r.sent, body)
}

func (r *recordingEmitter) routingKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

var testDefaults = CatalogDefaults{TotalParts: 30, FreeParts: 8, PointsPerPart: 60}
