package integration

import (
	"context"
	"testing"
	"time"

	"fersal/internal/model"
	"fersal/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVoucher(code, amount string, addedAt time.Time) model.Voucher {
	return model.Voucher{
		Code:       code,
		Amount:     amount,
		ExpiryDate: addedAt.AddDate(0, 0, 180),
		DateAdded:  addedAt,
		Source:     "email-scan",
	}
}

func TestVoucherRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	repo := repository.NewVoucherRepository(testDB.Pool, logger)

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("InsertIfAbsent stores a new voucher", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		v := testVoucher("11111111111111111111", "50", base)
		inserted, err := repo.InsertIfAbsent(ctx, &v)
		require.NoError(t, err)
		assert.True(t, inserted)

		stored, err := repo.GetByCode(ctx, v.Code)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "50", stored.Amount)
		assert.False(t, stored.IsUsed)
		assert.Equal(t, "email-scan", stored.Source)
	})

	t.Run("InsertIfAbsent skips a duplicate code", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		v := testVoucher("11111111111111111111", "50", base)
		inserted, err := repo.InsertIfAbsent(ctx, &v)
		require.NoError(t, err)
		require.True(t, inserted)

		// Same code, different amount: the original row wins.
		dup := testVoucher("11111111111111111111", "100", base.Add(time.Hour))
		inserted, err = repo.InsertIfAbsent(ctx, &dup)
		require.NoError(t, err)
		assert.False(t, inserted)

		stored, err := repo.GetByCode(ctx, v.Code)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "50", stored.Amount)
	})

	t.Run("GetByCode returns nil for unknown code", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		stored, err := repo.GetByCode(ctx, "99999999999999999999")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("FindFirstAvailable picks the oldest unused voucher", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedVouchers(t, testDB.Pool, []model.Voucher{
			testVoucher("22222222222222222222", "50", base.Add(time.Hour)),
			testVoucher("11111111111111111111", "50", base),
			testVoucher("33333333333333333333", "100", base),
		})

		v, err := repo.FindFirstAvailable(ctx, "50", nil)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, "11111111111111111111", v.Code)
	})

	t.Run("FindFirstAvailable skips excluded codes", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedVouchers(t, testDB.Pool, []model.Voucher{
			testVoucher("11111111111111111111", "50", base),
			testVoucher("22222222222222222222", "50", base.Add(time.Hour)),
		})

		v, err := repo.FindFirstAvailable(ctx, "50", []string{"11111111111111111111"})
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, "22222222222222222222", v.Code)

		// Excluding every candidate behaves like an exhausted denomination.
		v, err = repo.FindFirstAvailable(ctx, "50", []string{
			"11111111111111111111",
			"22222222222222222222",
		})
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("FindFirstAvailable skips redeemed vouchers", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		used := testVoucher("11111111111111111111", "50", base)
		used.IsUsed = true
		usedAt := base.Add(time.Hour)
		used.DateUsed = &usedAt
		SeedVouchers(t, testDB.Pool, []model.Voucher{
			used,
			testVoucher("22222222222222222222", "50", base.Add(2*time.Hour)),
		})

		v, err := repo.FindFirstAvailable(ctx, "50", nil)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, "22222222222222222222", v.Code)
	})

	t.Run("FindFirstAvailable returns nil when none match", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedVouchers(t, testDB.Pool, []model.Voucher{
			testVoucher("11111111111111111111", "50", base),
		})

		v, err := repo.FindFirstAvailable(ctx, "200", nil)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("ListAvailable excludes redeemed vouchers", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		used := testVoucher("33333333333333333333", "100", base)
		used.IsUsed = true
		SeedVouchers(t, testDB.Pool, []model.Voucher{
			testVoucher("11111111111111111111", "50", base),
			testVoucher("22222222222222222222", "50", base.Add(time.Hour)),
			used,
		})

		vouchers, err := repo.ListAvailable(ctx)
		require.NoError(t, err)
		require.Len(t, vouchers, 2)
		assert.Equal(t, "11111111111111111111", vouchers[0].Code)
		assert.Equal(t, "22222222222222222222", vouchers[1].Code)
	})

	t.Run("CountAvailable groups by amount", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		used := testVoucher("44444444444444444444", "100", base)
		used.IsUsed = true
		SeedVouchers(t, testDB.Pool, []model.Voucher{
			testVoucher("11111111111111111111", "50", base),
			testVoucher("22222222222222222222", "50", base.Add(time.Hour)),
			testVoucher("33333333333333333333", "100", base),
			used,
		})

		counts, err := repo.CountAvailable(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"50": 2, "100": 1}, counts)
	})

	t.Run("MarkUsed flips an unused voucher exactly once", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedVouchers(t, testDB.Pool, []model.Voucher{
			testVoucher("11111111111111111111", "50", base),
		})

		usedAt := base.Add(24 * time.Hour)
		updated, err := repo.MarkUsed(ctx, "11111111111111111111", usedAt)
		require.NoError(t, err)
		assert.True(t, updated)

		stored, err := repo.GetByCode(ctx, "11111111111111111111")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, stored.IsUsed)
		require.NotNil(t, stored.DateUsed)

		// A repeat redemption attempt finds nothing to update.
		updated, err = repo.MarkUsed(ctx, "11111111111111111111", usedAt.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("MarkUsed on unknown code reports no update", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		updated, err := repo.MarkUsed(ctx, "99999999999999999999", base)
		require.NoError(t, err)
		assert.False(t, updated)
	})
}
