package services

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/models"
	"go-pizzeria-management/repository"
)

const (
	defaultTopProducts = 10
	maxTopProducts     = 100
)

type ReportQuery struct {
	From     string
	To       string
	Grouping string
	Limit    int
}

type Dashboard struct {
	OrdersToday        int          `json:"orders_today"`
	ActiveOrders       int          `json:"active_orders"`
	RevenueToday       models.Money `json:"revenue_today"`
	AveragePrepMinutes int          `json:"average_prep_minutes"`
}

type SalesTotals struct {
	Revenue       models.Money `json:"revenue"`
	Orders        int          `json:"orders"`
	AverageTicket models.Money `json:"average_ticket"`
}

type SalesReport struct {
	Grouping repository.Grouping      `json:"grouping"`
	Buckets  []repository.SalesBucket `json:"buckets"`
	Totals   SalesTotals              `json:"totals"`
}

// DurationStats summarises interval lengths in whole minutes. Min and Max are
// nil when no order had both ends of the interval.
type DurationStats struct {
	Orders int  `json:"orders"`
	Mean   int  `json:"mean"`
	Min    *int `json:"min"`
	Max    *int `json:"max"`
}

type TimesReport struct {
	Preparation DurationStats `json:"preparation"`
	Delivery    DurationStats `json:"delivery"`
	Total       DurationStats `json:"total"`
}

type ChannelShare struct {
	repository.ChannelSales
	RevenueShare float64 `json:"revenue_share"`
	OrdersShare  float64 `json:"orders_share"`
}

type ChannelReport struct {
	Channels []ChannelShare `json:"channels"`
	Totals   SalesTotals    `json:"totals"`
}

type ReportService struct {
	orders  repository.OrderRepository
	reports repository.ReportRepository
	loc     *time.Location
}

func NewReportService(orders repository.OrderRepository, reports repository.ReportRepository, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{orders: orders, reports: reports, loc: loc}
}

func (s *ReportService) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	from := startOfDay(now, s.loc)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
	active := true

	today, err := s.orders.List(ctx, repository.OrderFilter{From: &from, To: &to, Active: &active})
	if err != nil {
		return nil, err
	}
	open, err := s.orders.List(ctx, repository.OrderFilter{Statuses: models.OpenStatuses, Active: &active})
	if err != nil {
		return nil, err
	}

	d := &Dashboard{OrdersToday: len(today), ActiveOrders: len(open)}
	var prepTotal time.Duration
	prepCount := 0
	for _, o := range today {
		if o.Status == models.StatusDelivered {
			d.RevenueToday = d.RevenueToday.Add(o.Payment.Total)
		}
		if o.Times.PreparationStarted != nil && o.Times.PreparationFinished != nil {
			prepTotal += o.Times.PreparationFinished.Sub(*o.Times.PreparationStarted)
			prepCount++
		}
	}
	if prepCount > 0 {
		d.AveragePrepMinutes = int(math.Round(prepTotal.Minutes() / float64(prepCount)))
	}
	return d, nil
}

func (s *ReportService) Sales(ctx context.Context, q ReportQuery) (*SalesReport, error) {
	grouping := repository.GroupByDay
	if q.Grouping != "" {
		grouping = repository.Grouping(q.Grouping)
		if !grouping.Valid() {
			return nil, apperrors.Validation("grouping must be one of: hour day month")
		}
	}
	r, err := ParseDateRange(q.From, q.To, s.loc)
	if err != nil {
		return nil, err
	}
	buckets, err := s.reports.SalesByPeriod(ctx, r, grouping, s.loc)
	if err != nil {
		return nil, apperrors.Internal(err, "could not build sales report")
	}

	report := &SalesReport{Grouping: grouping, Buckets: buckets}
	for _, b := range buckets {
		report.Totals.Revenue = report.Totals.Revenue.Add(b.Revenue)
		report.Totals.Orders += b.Orders
	}
	report.Totals.AverageTicket = report.Totals.Revenue.Div(report.Totals.Orders)
	return report, nil
}

func (s *ReportService) Products(ctx context.Context, q ReportQuery) ([]repository.ProductSales, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultTopProducts
	}
	if limit > maxTopProducts {
		limit = maxTopProducts
	}
	r, err := ParseDateRange(q.From, q.To, s.loc)
	if err != nil {
		return nil, err
	}
	products, err := s.reports.TopProducts(ctx, r, limit)
	if err != nil {
		return nil, apperrors.Internal(err, "could not build products report")
	}
	return products, nil
}

func summarize(minutes []int) DurationStats {
	stats := DurationStats{Orders: len(minutes)}
	if len(minutes) == 0 {
		return stats
	}
	lo, hi, sum := minutes[0], minutes[0], 0
	for _, m := range minutes {
		sum += m
		if m < lo {
			lo = m
		}
		if m > hi {
			hi = m
		}
	}
	stats.Mean = int(math.Round(float64(sum) / float64(len(minutes))))
	stats.Min = &lo
	stats.Max = &hi
	return stats
}

// Times measures preparation, delivery and end-to-end durations. An order
// only counts towards an interval when both of its ends were recorded.
func (s *ReportService) Times(ctx context.Context, q ReportQuery) (*TimesReport, error) {
	r, err := ParseDateRange(q.From, q.To, s.loc)
	if err != nil {
		return nil, err
	}
	active := true
	orders, err := s.orders.List(ctx, repository.OrderFilter{
		Statuses: []models.OrderStatus{models.StatusReady, models.StatusDispatched, models.StatusDelivered},
		From:     r.From,
		To:       r.To,
		Active:   &active,
	})
	if err != nil {
		return nil, err
	}

	var prep, delivery, total []int
	for _, o := range orders {
		t := o.Times
		if t.PreparationStarted != nil && t.PreparationFinished != nil {
			prep = append(prep, models.MinutesBetween(*t.PreparationStarted, *t.PreparationFinished))
		}
		if t.Dispatched != nil && t.Delivered != nil {
			delivery = append(delivery, models.MinutesBetween(*t.Dispatched, *t.Delivered))
		}
		if !t.Created.IsZero() && t.Delivered != nil {
			total = append(total, models.MinutesBetween(t.Created, *t.Delivered))
		}
	}
	return &TimesReport{
		Preparation: summarize(prep),
		Delivery:    summarize(delivery),
		Total:       summarize(total),
	}, nil
}

var hundred = decimal.NewFromInt(100)

func share(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	f, _ := part.Mul(hundred).Div(whole).Round(2).Float64()
	return f
}

func (s *ReportService) Channels(ctx context.Context, q ReportQuery) (*ChannelReport, error) {
	r, err := ParseDateRange(q.From, q.To, s.loc)
	if err != nil {
		return nil, err
	}
	channels, err := s.reports.SalesByChannel(ctx, r)
	if err != nil {
		return nil, apperrors.Internal(err, "could not build channels report")
	}

	report := &ChannelReport{Channels: make([]ChannelShare, 0, len(channels))}
	for _, c := range channels {
		report.Totals.Revenue = report.Totals.Revenue.Add(c.Revenue)
		report.Totals.Orders += c.Orders
	}
	report.Totals.AverageTicket = report.Totals.Revenue.Div(report.Totals.Orders)

	orders := decimal.NewFromInt(int64(report.Totals.Orders))
	for _, c := range channels {
		report.Channels = append(report.Channels, ChannelShare{
			ChannelSales: c,
			RevenueShare: share(c.Revenue.Decimal, report.Totals.Revenue.Decimal),
			OrdersShare:  share(decimal.NewFromInt(int64(c.Orders)), orders),
		})
	}
	return report, nil
}
