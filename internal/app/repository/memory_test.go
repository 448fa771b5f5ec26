package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestMemory_UserLookupsAndUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u := &models.User{ExternalID: "user_ext_1", Email: "a@b.c", Name: "Ada", StripeCustomerID: "cus_1"}
	require.NoError(t, m.CreateUser(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := m.GetUserByExternalID(ctx, "user_ext_1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	got, err = m.GetUserByStripeCustomerID(ctx, "cus_1")
	require.NoError(t, err)
	require.Equal(t, "Ada", got.Name)

	err = m.CreateUser(ctx, &models.User{ExternalID: "user_ext_1", StripeCustomerID: "cus_2"})
	require.True(t, errors.Is(err, ErrAlreadyExists))

	_, err = m.GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_CurrentSubscriptionPointer(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := &models.User{ExternalID: "ext"}
	require.NoError(t, m.CreateUser(ctx, u))

	require.NoError(t, m.SetCurrentSubscription(ctx, u.ID, "sub-a"))
	// clearing a different subscription leaves the pointer alone
	require.NoError(t, m.ClearCurrentSubscription(ctx, u.ID, "sub-b"))
	got, _ := m.GetUserByID(ctx, u.ID)
	require.Equal(t, "sub-a", *got.CurrentSubscriptionID)

	require.NoError(t, m.ClearCurrentSubscription(ctx, u.ID, "sub-a"))
	got, _ = m.GetUserByID(ctx, u.ID)
	require.Nil(t, got.CurrentSubscriptionID)

	require.ErrorIs(t, m.SetCurrentSubscription(ctx, "missing", "x"), ErrNotFound)
}

func TestMemory_CreatePurchaseIfNotExists_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.CreatePurchaseIfNotExists(ctx, &models.Purchase{UserID: "u", CourseID: "c", Amount: 1999, StripePurchaseID: "cs_1"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = m.CreatePurchaseIfNotExists(ctx, &models.Purchase{UserID: "u", CourseID: "c", Amount: 1999, StripePurchaseID: "cs_1"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, 1, m.CountPurchases())

	p, err := m.GetPurchase(ctx, "u", "c")
	require.NoError(t, err)
	require.Equal(t, int64(1999), p.Amount)

	_, err = m.GetPurchase(ctx, "u", "other")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ListPurchases(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, uid := range []string{"u1", "u2", "u1"} {
		_, err := m.CreatePurchaseIfNotExists(ctx, &models.Purchase{
			UserID: uid, CourseID: "c", StripePurchaseID: "cs_" + string(rune('a'+i)), CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	res, err := m.ListPurchases(ctx, &ListPurchasesRequest{
		Filters:   []*types.CommonFilter{{Field: "user_id", Operator: types.CommonFilterOperatorEq, Values: []any{"u1"}}},
		SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Total)
	require.Equal(t, "cs_a", res.Items[0].StripePurchaseID)
	require.Equal(t, "cs_c", res.Items[1].StripePurchaseID)

	res, err = m.ListPurchases(ctx, &ListPurchasesRequest{Size: 1, From: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Total)
	require.Len(t, res.Items, 1)
	require.Equal(t, "cs_b", res.Items[0].StripePurchaseID)

	_, err = m.ListPurchases(ctx, &ListPurchasesRequest{Filters: []*types.CommonFilter{{Field: "password", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}}})
	require.Error(t, err)
}

func TestMemory_SubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s := &models.Subscription{UserID: "u", StripeSubscriptionID: "sub_1", Status: types.SubscriptionStatusActive}
	require.NoError(t, m.CreateSubscription(ctx, s))
	require.ErrorIs(t, m.CreateSubscription(ctx, &models.Subscription{StripeSubscriptionID: "sub_1"}), ErrAlreadyExists)

	got, err := m.GetSubscriptionByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	got.CancelAtPeriodEnd = true
	require.NoError(t, m.UpdateSubscription(ctx, got))

	again, err := m.GetSubscriptionByID(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, again.CancelAtPeriodEnd)

	require.NoError(t, m.DeleteSubscription(ctx, s.ID))
	require.ErrorIs(t, m.DeleteSubscription(ctx, s.ID), ErrNotFound)
	require.Equal(t, 0, m.CountSubscriptions())
}
