package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocationRows(id, paymentID, installmentID uuid.UUID, amount decimal.Decimal, isReversal bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at",
		"payment_id", "installment_id", "allocated_amount", "is_reversal",
	}).AddRow(
		id, now, now,
		paymentID, installmentID, amount, isReversal,
	)
}

func TestGormAllocationRepository_FindByPayment(t *testing.T) {
	t.Run("lists allocations for a payment", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormAllocationRepository(gormDB)

		paymentID := uuid.New()
		allocationID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payment_allocations" WHERE payment_id = \$1 ORDER BY created_at ASC`).
			WithArgs(paymentID).
			WillReturnRows(allocationRows(allocationID, paymentID, uuid.New(), decimal.NewFromInt(500), false))

		allocations, err := repo.FindByPayment(context.Background(), paymentID)

		require.NoError(t, err)
		require.Len(t, allocations, 1)
		assert.Equal(t, allocationID, allocations[0].ID)
		assert.True(t, decimal.NewFromInt(500).Equal(allocations[0].AllocatedAmount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAllocationRepository_FindLiveByPayment(t *testing.T) {
	t.Run("excludes allocations already offset by a reversal", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormAllocationRepository(gormDB)

		paymentID := uuid.New()
		liveID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payment_allocations" WHERE .*is_reversal = false.* AND id NOT IN .*reverses_allocation_id IS NOT NULL.* ORDER BY created_at ASC`).
			WithArgs(paymentID).
			WillReturnRows(allocationRows(liveID, paymentID, uuid.New(), decimal.NewFromInt(300), false))

		allocations, err := repo.FindLiveByPayment(context.Background(), paymentID)

		require.NoError(t, err)
		require.Len(t, allocations, 1)
		assert.Equal(t, liveID, allocations[0].ID)
		assert.False(t, allocations[0].IsReversal)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAllocationRepository_FindByObligation(t *testing.T) {
	t.Run("resolves allocations through installments", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormAllocationRepository(gormDB)

		obligationID := uuid.New()
		allocationID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payment_allocations" WHERE installment_id IN \(SELECT id FROM "monthly_installments" WHERE obligation_id = \$1\) ORDER BY created_at ASC`).
			WithArgs(obligationID).
			WillReturnRows(allocationRows(allocationID, uuid.New(), uuid.New(), decimal.NewFromInt(-500), true))

		allocations, err := repo.FindByObligation(context.Background(), obligationID)

		require.NoError(t, err)
		require.Len(t, allocations, 1)
		assert.True(t, allocations[0].IsReversal)
		assert.True(t, allocations[0].AllocatedAmount.IsNegative())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormAllocationRepository_CreateBatch(t *testing.T) {
	t.Run("no-op for empty batch", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormAllocationRepository(gormDB)

		err := repo.CreateBatch(context.Background(), nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
