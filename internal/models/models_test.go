package models

import (
	"testing"

	"github.com/fatflowers/masterclass/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestCourse_UnitAmount(t *testing.T) {
	cases := map[float64]int64{
		19.99: 1999,
		0.1:   10,
		49:    4900,
		0:     0,
	}
	for price, want := range cases {
		c := &Course{Price: price}
		require.Equal(t, want, c.UnitAmount(), "price %v", price)
	}
}

func TestSubscription_Valid(t *testing.T) {
	var nilSub *Subscription
	require.False(t, nilSub.Valid())
	require.Nil(t, nilSub.Info())

	s := &Subscription{Status: types.SubscriptionStatusActive, PlanType: types.PlanPeriodYear, StripeSubscriptionID: "sub_1"}
	require.True(t, s.Valid())
	require.Equal(t, "sub_1", s.Info().StripeSubscriptionID)

	s.Status = types.SubscriptionStatusPastDue
	require.False(t, s.Valid())
}

func TestTableNames(t *testing.T) {
	require.Equal(t, "user", User{}.TableName())
	require.Equal(t, "course", Course{}.TableName())
	require.Equal(t, "purchase", Purchase{}.TableName())
	require.Equal(t, "subscription", Subscription{}.TableName())
	require.Equal(t, "subscription_log", SubscriptionLog{}.TableName())
	require.Equal(t, "webhook_event_log", WebhookEventLog{}.TableName())
}
