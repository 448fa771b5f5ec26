package statistics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/masterclass/pkg/types"
)

func TestSalesStatisticRequest_Validate(t *testing.T) {
	ok := &SalesStatisticRequest{DataItems: []*SalesStatisticDataItem{{ID: StatisticTypeDailyGmv}}}
	require.NoError(t, ok.Validate())

	badItem := &SalesStatisticRequest{DataItems: []*SalesStatisticDataItem{{ID: "refund_rate"}}}
	require.Error(t, badItem.Validate())

	badFilter := &SalesStatisticRequest{
		Filters:   []*types.CommonFilter{{Field: "user_id; drop table purchase", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}},
		DataItems: []*SalesStatisticDataItem{{ID: StatisticTypeDailyGmv}},
	}
	require.Error(t, badFilter.Validate())
}

func TestSalesStatisticRequest_Applicable(t *testing.T) {
	r := &SalesStatisticRequest{Filters: []*types.CommonFilter{{Field: string(FilterTypeCurrency), Operator: types.CommonFilterOperatorEq, Values: []any{"usd"}}}}
	require.True(t, r.applicable(StatisticTypeDailyGmv))
	require.True(t, r.applicable(StatisticTypeDailyPurchaseCount))
	require.False(t, r.applicable(StatisticTypeActiveSubscriptionCount))
	require.False(t, r.applicable(StatisticTypeTotalGmv))
}

func TestCollect_FansOutAndSkipsInapplicable(t *testing.T) {
	r := &SalesStatisticRequest{
		Filters: []*types.CommonFilter{{Field: string(FilterTypePlanType), Operator: types.CommonFilterOperatorEq, Values: []any{"month"}}},
		DataItems: []*SalesStatisticDataItem{
			{ID: StatisticTypeActiveSubscriptionCount},
			{ID: StatisticTypeDailyGmv},
		},
	}
	var calls []StatisticType
	resp, err := collect(context.Background(), r, func(_ context.Context, _ *SalesStatisticRequest, di *SalesStatisticDataItem) ([]SalesStatisticResponseDataItem, error) {
		calls = append(calls, di.ID)
		return []SalesStatisticResponseDataItem{{Label: "month", Value: 3}}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []StatisticType{StatisticTypeActiveSubscriptionCount}, calls)
	require.Len(t, resp.DataItems, 2)
	require.Equal(t, int64(3), resp.DataItems[StatisticTypeActiveSubscriptionCount][0].Value)
	require.Nil(t, resp.DataItems[StatisticTypeDailyGmv])
}

func TestCollect_PropagatesError(t *testing.T) {
	r := &SalesStatisticRequest{DataItems: []*SalesStatisticDataItem{{ID: StatisticTypeTotalGmv}}}
	boom := errors.New("boom")
	_, err := collect(context.Background(), r, func(context.Context, *SalesStatisticRequest, *SalesStatisticDataItem) ([]SalesStatisticResponseDataItem, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}
