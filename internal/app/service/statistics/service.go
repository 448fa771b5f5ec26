package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/masterclass/internal/models"
	"github.com/fatflowers/masterclass/pkg/types"
)

type StatisticType string

const (
	// Purchase ledger
	StatisticTypeDailyPurchaseCount StatisticType = "daily_purchase_count"
	StatisticTypeDailyGmv           StatisticType = "daily_gmv"
	StatisticTypeTotalGmv           StatisticType = "total_gmv"

	// Pro subscriptions
	StatisticTypeDailyNewSubscriptionCount   StatisticType = "daily_new_subscription_count"
	StatisticTypeActiveSubscriptionCount     StatisticType = "active_subscription_count"
	StatisticTypeDailyAccumulatedSubscribers StatisticType = "daily_accumulated_subscriber_count"
)

var statisticTypes = []StatisticType{
	StatisticTypeDailyPurchaseCount,
	StatisticTypeDailyGmv,
	StatisticTypeTotalGmv,
	StatisticTypeDailyNewSubscriptionCount,
	StatisticTypeActiveSubscriptionCount,
	StatisticTypeDailyAccumulatedSubscribers,
}

// FilterType names a filter that only some statistics understand.
type FilterType string

const (
	FilterTypeCourseID FilterType = "course_id"
	FilterTypeCurrency FilterType = "currency"
	FilterTypePlanType FilterType = "plan_type"
)

var filterTypes = []FilterType{FilterTypeCourseID, FilterTypeCurrency, FilterTypePlanType}

var validFilters = map[FilterType][]StatisticType{
	FilterTypeCourseID: {StatisticTypeDailyPurchaseCount, StatisticTypeDailyGmv},
	FilterTypeCurrency: {StatisticTypeDailyPurchaseCount, StatisticTypeDailyGmv},
	FilterTypePlanType: {StatisticTypeActiveSubscriptionCount},
}

type SalesStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type SalesStatisticRequest struct {
	Filters   []*types.CommonFilter     `json:"filters"`
	DataItems []*SalesStatisticDataItem `json:"data_items" binding:"required,min=1"`
}

// Validate rejects unknown statistics and filter fields.
func (r *SalesStatisticRequest) Validate() error {
	for _, di := range r.DataItems {
		if di == nil || !lo.Contains(statisticTypes, di.ID) {
			return fmt.Errorf("invalid data item id: %v", di)
		}
	}
	return types.ValidateFields(r.Filters, lo.Map(filterTypes, func(f FilterType, _ int) string { return string(f) }))
}

// applicable reports whether every filter in the request applies to st.
func (r *SalesStatisticRequest) applicable(st StatisticType) bool {
	for _, filter := range r.Filters {
		ft := FilterType(filter.Field)
		if lo.Contains(filterTypes, ft) && !lo.Contains(validFilters[ft], st) {
			return false
		}
	}
	return true
}

// where returns the filters as a WHERE expression.
func (r *SalesStatisticRequest) where() clause.Where {
	if len(r.Filters) == 0 {
		return clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "1=1"}}}
	}
	return clause.Where{Exprs: []clause.Expression{types.FiltersAnd(r.Filters)}}
}

type SalesStatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type SalesStatisticResponse struct {
	DataItems map[StatisticType][]SalesStatisticResponseDataItem `json:"data_items"`
}

// Service computes admin sales statistics directly in postgres.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getDailyPurchaseCount(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Purchase{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(request.where()).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyGmv(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Purchase{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, currency AS label, sum(amount) as value").
		Where(request.where()).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalGmv(ctx context.Context, _ *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(created_at)) as min_date, MAX(DATE(created_at)) as max_date
    FROM purchase
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
dates AS (
    SELECT TO_CHAR(date, 'YYYY-MM-DD') as date FROM distinct_dates
),
currencies AS (
    SELECT DISTINCT currency as label FROM purchase
),
date_currency_combinations AS (
    SELECT d.date, c.label FROM dates d CROSS JOIN currencies c
),
gmv_date AS (
    SELECT dc.date, dc.label, COALESCE(SUM(p.amount), 0) as value
    FROM date_currency_combinations dc
    LEFT JOIN purchase p
      ON TO_CHAR(p.created_at, 'YYYY-MM-DD') = dc.date
     AND p.currency = dc.label
    GROUP BY dc.date, dc.label
)
SELECT d.date as date, d.label as label, SUM(s.value) as value
FROM gmv_date d
LEFT JOIN gmv_date s ON s.date <= d.date AND s.label = d.label
GROUP BY d.date, d.label
ORDER BY d.date DESC, d.label ASC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNewSubscriptionCount(ctx context.Context, _ *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Subscription{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, COUNT(DISTINCT user_id) as value").
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getActiveSubscriptionCount(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Subscription{}).TableName()).
		Select("plan_type as label, count(*) as value").
		Where(request.where()).
		Where("status = ?", types.SubscriptionStatusActive).
		Where("current_period_end >= ?", time.Now()).
		Group("plan_type").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyAccumulatedSubscribers(ctx context.Context, _ *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(created_at)) as min_date, MAX(DATE(created_at)) as max_date FROM subscription
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
user_id_date AS (
    SELECT user_id, DATE(created_at) as date FROM subscription
)
SELECT TO_CHAR(d.date, 'YYYY-MM-DD') as date, COUNT(DISTINCT s.user_id) as value
FROM distinct_dates d
LEFT JOIN user_id_date s ON s.date <= d.date
GROUP BY d.date
ORDER BY d.date DESC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatistic(ctx context.Context, request *SalesStatisticRequest, dataItem *SalesStatisticDataItem) ([]SalesStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyPurchaseCount:
		return s.getDailyPurchaseCount(ctx, request)
	case StatisticTypeDailyGmv:
		return s.getDailyGmv(ctx, request)
	case StatisticTypeTotalGmv:
		return s.getTotalGmv(ctx, request)
	case StatisticTypeDailyNewSubscriptionCount:
		return s.getDailyNewSubscriptionCount(ctx, request)
	case StatisticTypeActiveSubscriptionCount:
		return s.getActiveSubscriptionCount(ctx, request)
	case StatisticTypeDailyAccumulatedSubscribers:
		return s.getDailyAccumulatedSubscribers(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

type statFunc func(ctx context.Context, request *SalesStatisticRequest, dataItem *SalesStatisticDataItem) ([]SalesStatisticResponseDataItem, error)

// collect runs fn for every data item concurrently. Items that a filter does
// not apply to are returned as nil.
func collect(ctx context.Context, request *SalesStatisticRequest, fn statFunc) (*SalesStatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []SalesStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *SalesStatisticDataItem) {
			defer wg.Done()
			if !request.applicable(di.ID) {
				resChan <- &lo.Entry[StatisticType, []SalesStatisticResponseDataItem]{Key: di.ID, Value: nil}
				return
			}
			res, err := fn(ctx, request, di)
			if err != nil {
				errChan <- fmt.Errorf("%s: %w", di.ID, err)
				return
			}
			resChan <- &lo.Entry[StatisticType, []SalesStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]SalesStatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &SalesStatisticResponse{DataItems: results}, nil
}

func (s *Service) GetSalesStatistic(ctx context.Context, request *SalesStatisticRequest) (*SalesStatisticResponse, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	return collect(ctx, request, s.getStatistic)
}

var Module = fx.Options(
	fx.Provide(New),
)
