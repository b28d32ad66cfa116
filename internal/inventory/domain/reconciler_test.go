package domain

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/warehouse-erp/pkg/apperr"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSignedDelta(t *testing.T) {
	tests := []struct {
		name    string
		typ     MovementType
		qty     string
		want    string
		errKind apperr.Kind
	}{
		{name: "in adds", typ: MovementIn, qty: "5", want: "5"},
		{name: "out removes", typ: MovementOut, qty: "2.5", want: "-2.5"},
		{name: "adjustment keeps sign", typ: MovementAdjustment, qty: "-3", want: "-3"},
		{name: "zero", typ: MovementIn, qty: "0", errKind: apperr.KindInvalidQuantity},
		{name: "zero adjustment", typ: MovementAdjustment, qty: "0", errKind: apperr.KindInvalidQuantity},
		{name: "negative in", typ: MovementIn, qty: "-1", errKind: apperr.KindValidation},
		{name: "negative out", typ: MovementOut, qty: "-1", errKind: apperr.KindValidation},
		{name: "unknown type", typ: "MOVE", qty: "1", errKind: apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignedDelta(tt.typ, d(tt.qty))
			if tt.errKind != "" {
				assert.Equal(t, tt.errKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}
}

func TestReconcileRejectsNegativeUnlessAllowed(t *testing.T) {
	next, err := Reconcile(d("40"), d("-45"), false)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.True(t, next.Equal(d("40")))

	next, err = Reconcile(d("40"), d("-45"), true)
	require.NoError(t, err)
	assert.True(t, next.Equal(d("-5")))

	next, err = Reconcile(d("40"), d("-40"), false)
	require.NoError(t, err)
	assert.True(t, next.IsZero())
}

// Replaying any sequence through Reconcile ends at the sum of the accepted
// deltas and never goes below zero.
func TestReconcileReplayMatchesAcceptedDeltas(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := []MovementType{MovementIn, MovementOut, MovementAdjustment}

	for run := 0; run < 200; run++ {
		level := decimal.Zero
		accepted := decimal.Zero
		for i := 0; i < 50; i++ {
			typ := types[rng.Intn(len(types))]
			qty := decimal.NewFromInt(int64(rng.Intn(20) + 1))
			if typ == MovementAdjustment && rng.Intn(2) == 0 {
				qty = qty.Neg()
			}
			delta, err := SignedDelta(typ, qty)
			require.NoError(t, err)

			next, err := Reconcile(level, delta, false)
			if err != nil {
				assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
				assert.True(t, next.Equal(level))
				continue
			}
			level = next
			accepted = accepted.Add(delta)
			assert.False(t, level.IsNegative())
		}
		assert.True(t, level.Equal(accepted), "run %d: level %s accepted %s", run, level, accepted)
	}
}
