package services

import (
	"context"
	"testing"

	"github.com/baharkarakas/paywall-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualCredit(t *testing.T) {
	st := newMemStore()
	svc := NewWalletService(memWallets{st}, memLedger{st}, st)

	bal, err := svc.ManualCredit(context.Background(), "u1", 500, "confirm:order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), bal)

	entries, err := svc.History(context.Background(), "u1", 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ReasonManual, entries[0].Reason)

	_, err = svc.ManualCredit(context.Background(), "u1", 0, "x")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCurrentWalletMissingIsZero(t *testing.T) {
	svc := NewWalletService(memWallets{newMemStore()}, nil, nil)

	w, err := svc.Current(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, w.Points)
}
