package service

import (
	"context"
	"encoding/json"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/model"
	"sipndash/internal/repository"
)

const (
	summaryRecentOrders = 5
	summaryTopProducts  = 5
	summaryEventDays    = 30
)

type AnalyticsService interface {
	RecordEvent(ctx context.Context, req dto.RecordEventRequest) error
	Summary(ctx context.Context) (*dto.AnalyticsSummaryResponse, error)
}

type analyticsService struct {
	repo repository.AnalyticsRepository
	now  func() time.Time
}

func NewAnalyticsService(repo repository.AnalyticsRepository) AnalyticsService {
	return &analyticsService{repo: repo, now: time.Now}
}

func (s *analyticsService) RecordEvent(ctx context.Context, req dto.RecordEventRequest) error {
	data := "{}"
	if len(req.EventData) > 0 {
		if !json.Valid(req.EventData) {
			return invalid("event_data", "must be valid JSON")
		}
		data = string(req.EventData)
	}
	return s.repo.CreateEvent(ctx, &model.AnalyticsEvent{
		EventType: req.EventType,
		EventData: data,
		UserID:    req.UserID,
	})
}

func (s *analyticsService) Summary(ctx context.Context) (*dto.AnalyticsSummaryResponse, error) {
	var (
		resp dto.AnalyticsSummaryResponse
		err  error
	)
	if resp.TotalUsers, err = s.repo.CountUsers(ctx); err != nil {
		return nil, err
	}
	if resp.TotalProducts, err = s.repo.CountActiveProducts(ctx); err != nil {
		return nil, err
	}
	if resp.TotalOrders, err = s.repo.CountOrders(ctx); err != nil {
		return nil, err
	}
	if resp.TotalRevenue, err = s.repo.Revenue(ctx); err != nil {
		return nil, err
	}

	recent, err := s.repo.RecentOrders(ctx, summaryRecentOrders)
	if err != nil {
		return nil, err
	}
	resp.RecentOrders = make([]dto.OrderResponse, len(recent))
	for i := range recent {
		resp.RecentOrders[i] = *orderToResponse(&recent[i])
	}

	top, err := s.repo.TopProducts(ctx, summaryTopProducts)
	if err != nil {
		return nil, err
	}
	resp.TopProducts = make([]dto.TopProduct, len(top))
	for i, t := range top {
		resp.TopProducts[i] = dto.TopProduct{ProductID: t.ProductID.String(), Name: t.Name, TotalSold: t.TotalSold}
	}

	since := startOfDay(s.now().UTC()).AddDate(0, 0, -(summaryEventDays - 1))
	times, err := s.repo.EventTimes(ctx, since)
	if err != nil {
		return nil, err
	}
	resp.EventsPerDay = bucketByDay(times, since, summaryEventDays)
	return &resp, nil
}

// bucketByDay counts times per UTC day, returning one entry per day starting at from,
// zero-filled.
func bucketByDay(times []time.Time, from time.Time, days int) []dto.DailyCount {
	counts := make(map[string]int64, days)
	for _, t := range times {
		counts[t.UTC().Format("2006-01-02")]++
	}
	out := make([]dto.DailyCount, days)
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = dto.DailyCount{Date: day, Count: counts[day]}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
