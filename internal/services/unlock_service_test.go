package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/baharkarakas/paywall-backend/internal/events"
	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnlock(st *memStore) (*UnlockService, *recordingEmitter) {
	em := &recordingEmitter{}
	cat := NewCatalogService(memCatalog{st}, testDefaults)
	return NewUnlockService(UnlockDeps{
		Catalog:      cat,
		Wallets:      memWallets{st},
		Entitlements: memEntitlements{st},
		Ledger:       memLedger{st},
		Audit:        memAudit{st},
		Tx:           st,
		Emitter:      em,
	}), em
}

func TestUnlockCharges(t *testing.T) {
	st := newMemStore()
	st.wallets["u1"] = 120
	svc, em := newUnlock(st)

	res, err := svc.UnlockWithPoints(context.Background(), UnlockInput{UserID: "u1", WorkID: "cheonmujin", EpisodeID: "ep1", TargetPart: 9})
	require.NoError(t, err)
	assert.Equal(t, UnlockResult{Points: 60, UnlockedUntilPart: 9, Charged: 60}, res)
	assert.Equal(t, int64(60), st.balance("u1"))

	entries := st.ledgerFor("u1")
	require.Len(t, entries, 1)
	assert.Equal(t, int64(60), entries[0].Points)
	assert.Equal(t, int64(60), entries[0].BalanceAfter)
	assert.Equal(t, []string{events.RoutingEntitlementUnlocked}, em.routingKeys())
}

func TestUnlockInsufficientPoints(t *testing.T) {
	st := newMemStore()
	st.wallets["u1"] = 50
	svc, _ := newUnlock(st)

	_, err := svc.UnlockWithPoints(context.Background(), UnlockInput{UserID: "u1", WorkID: "cheonmujin", EpisodeID: "ep1", TargetPart: 9})
	require.ErrorIs(t, err, ErrInsufficientPoints)

	var ip *InsufficientPointsError
	require.True(t, errors.As(err, &ip))
	assert.Equal(t, int64(60), ip.Need)
	require.NotNil(t, ip.Have)
	assert.Equal(t, int64(50), *ip.Have)
	assert.Equal(t, int64(50), st.balance("u1"))
	assert.Empty(t, st.entitlements)
	assert.Empty(t, st.ledgerFor("u1"))
}

type unreadableWallets struct{ memWallets }

func (unreadableWallets) Get(context.Context, string) (models.Wallet, error) {
	return models.Wallet{}, errors.New("connection reset")
}

func TestUnlockInsufficientPointsBalanceUnreadable(t *testing.T) {
	st := newMemStore()
	st.wallets["u1"] = 50
	svc := NewUnlockService(UnlockDeps{
		Catalog:      NewCatalogService(memCatalog{st}, testDefaults),
		Wallets:      unreadableWallets{memWallets{st}},
		Entitlements: memEntitlements{st},
		Ledger:       memLedger{st},
		Audit:        memAudit{st},
		Tx:           st,
	})

	_, err := svc.UnlockWithPoints(context.Background(), UnlockInput{UserID: "u1", WorkID: "cheonmujin", EpisodeID: "ep1", TargetPart: 9})
	require.ErrorIs(t, err, ErrInsufficientPoints)

	var ip *InsufficientPointsError
	require.True(t, errors.As(err, &ip))
	assert.Equal(t, int64(60), ip.Need)
	assert.Nil(t, ip.Have, "an unread balance is not reported as zero")
	assert.Equal(t, "not enough points: need 60", ip.Error())
}

func TestUnlockAlreadyUnlockedIsFree(t *testing.T) {
	st := newMemStore()
	st.wallets["u1"] = 120
	st.entitlements[entKey{"u1", "cheonmujin", "ep1"}] = 12
	svc, em := newUnlock(st)

	for _, target := range []int{3, 8, 12} {
		res, err := svc.UnlockWithPoints(context.Background(), UnlockInput{UserID: "u1", WorkID: "cheonmujin", EpisodeID: "ep1", TargetPart: target})
		require.NoError(t, err)
		assert.Equal(t, 12, res.UnlockedUntilPart)
		assert.Zero(t, res.Charged)
	}
	assert.Equal(t, int64(120), st.balance("u1"))
	assert.Empty(t, em.routingKeys())
}

func TestUnlockClampsToTotal(t *testing.T) {
	st := newMemStore()
	st.wallets["u1"] = 60
	svc, _ := newUnlock(st)

	res, err := svc.UnlockWithPoints(context.Background(), UnlockInput{UserID: "u1", WorkID: "cheonmujin", EpisodeID: "ep1", TargetPart: 99})
	require.NoError(t, err)
	assert.Equal(t, 30, res.UnlockedUntilPart)
}

func TestUnlockUsesCatalogPrice(t *testing.T) {
	st := newMemStore()
	st.wallets["u1"] = 100
	st.episodes["cheonmujin/ep2"] = episode("cheonmujin", "ep2", 6, 2, 25)
	svc, _ := newUnlock(st)

	res, err := svc.UnlockWithPoints(context.Background(), UnlockInput{UserID: "u1", WorkID: "cheonmujin", EpisodeID: "ep2", TargetPart: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.Charged)
	assert.Equal(t, int64(75), res.Points)
}

func TestUnlockValidation(t *testing.T) {
	svc, _ := newUnlock(newMemStore())

	_, err := svc.UnlockWithPoints(context.Background(), UnlockInput{UserID: "u1", WorkID: "w", EpisodeID: "e", TargetPart: 0})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = svc.UnlockWithPoints(context.Background(), UnlockInput{UserID: "u1", EpisodeID: "e", TargetPart: 9})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestUnlockConcurrentSameTarget(t *testing.T) {
	st := newMemStore()
	st.wallets["u1"] = 600
	svc, _ := newUnlock(st)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UnlockWithPoints(context.Background(), UnlockInput{UserID: "u1", WorkID: "cheonmujin", EpisodeID: "ep1", TargetPart: 9})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(540), st.balance("u1"))
	assert.Len(t, st.ledgerFor("u1"), 1)
}
