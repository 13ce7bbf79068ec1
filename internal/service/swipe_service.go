package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/observability"
	"github.com/buspass-vn/buspass-go-api/internal/repository"
	"github.com/buspass-vn/buspass-go-api/pkg/vntime"
)

const (
	swipeFeedBufferSize = 16
	historyMinPageSize  = 8
	historyMaxPageSize  = 20
	summaryDays         = 7
)

// SwipeService ingests card swipes from the bus readers and serves the
// history and chart views built on top of them.
type SwipeService interface {
	Ingest(ctx context.Context, req dto.SwipeIngestRequest) (dto.SwipeIngestResponse, error)
	History(ctx context.Context, cardID string, page, pageSize int) (dto.SwipeHistoryResponse, error)
	WeeklySummary(ctx context.Context, cardID string) (dto.WeeklySummaryResponse, error)
	Subscribe(cardID string) (<-chan dto.SwipeEventResponse, func())
}

type swipeService struct {
	pending   repository.PendingCardRepository
	cards     repository.CardStatusRepository
	redis     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	broker    *swipeBroker
}

type swipeBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.SwipeEventResponse]struct{}
}

// NewSwipeService constructs the swipe service. The redis client is optional;
// without it the weekly summary is computed on every request.
func NewSwipeService(db *gorm.DB, redisClient *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) SwipeService {
	return &swipeService{
		pending:   repository.NewPendingCardRepository(db),
		cards:     repository.NewCardStatusRepository(db),
		redis:     redisClient,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger.With().Str("component", "swipe_service").Logger(),
		tracer:    otel.Tracer("github.com/buspass-vn/buspass-go-api/internal/service/swipe"),
		broker: &swipeBroker{
			subscribers: make(map[string]map[chan dto.SwipeEventResponse]struct{}),
		},
	}
}

// Ingest records one swipe. A known card appends to its log and updates the
// last status; an unknown card lands in the pending queue instead of being
// dropped, so an admin can enroll it later.
func (s *swipeService) Ingest(ctx context.Context, req dto.SwipeIngestRequest) (dto.SwipeIngestResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SwipeIngestResponse{}, err
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		parsed, err := vntime.Parse(req.OccurredAt)
		if err != nil {
			return dto.SwipeIngestResponse{}, fmt.Errorf("unparseable swipe timestamp %q: %w", req.OccurredAt, err)
		}
		occurredAt = parsed
	}

	attrs := []attribute.KeyValue{
		attribute.String("swipe.card_id", req.CardID),
		attribute.String("swipe.status", req.Status),
	}
	spanCtx, span := s.tracer.Start(ctx, "swipes.ingest", trace.WithAttributes(attrs...))
	defer span.End()

	event := models.SwipeEvent{
		CardID:     req.CardID,
		Status:     req.Status,
		OccurredAt: occurredAt,
	}

	err := s.cards.AppendSwipe(spanCtx, &event)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.pending.Upsert(spanCtx, &models.PendingCard{
			CardID:      req.CardID,
			FirstSeenAt: occurredAt,
		}); err != nil {
			span.RecordError(err)
			return dto.SwipeIngestResponse{}, err
		}

		s.logger.Info().Str("card_id", req.CardID).Msg("unknown card queued for enrollment")
		return dto.SwipeIngestResponse{
			CardID:  req.CardID,
			Outcome: dto.SwipeOutcomePending,
		}, nil
	}
	if err != nil {
		span.RecordError(err)
		return dto.SwipeIngestResponse{}, err
	}

	observability.SwipeEventsTotal().WithLabelValues(req.Status).Inc()
	s.broker.broadcast(req.CardID, dto.NewSwipeEventResponse(event))
	s.invalidateSummary(spanCtx, req.CardID)

	return dto.SwipeIngestResponse{
		CardID:     req.CardID,
		Outcome:    dto.SwipeOutcomeRecorded,
		Status:     req.Status,
		OccurredAt: occurredAt,
	}, nil
}

// History returns a page of the card's swipe log, newest first. The page size
// is clamped to the window the dashboard widget renders.
func (s *swipeService) History(ctx context.Context, cardID string, page, pageSize int) (dto.SwipeHistoryResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize < historyMinPageSize {
		pageSize = historyMinPageSize
	}
	if pageSize > historyMaxPageSize {
		pageSize = historyMaxPageSize
	}

	status, err := s.cards.Get(ctx, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SwipeHistoryResponse{}, ErrCardNotEnrolled
		}
		return dto.SwipeHistoryResponse{}, err
	}

	events, total, err := s.cards.History(ctx, cardID, pageSize, (page-1)*pageSize)
	if err != nil {
		return dto.SwipeHistoryResponse{}, err
	}

	return dto.SwipeHistoryResponse{
		CardID:     cardID,
		LastStatus: status.LastStatus,
		Items:      dto.NewSwipeEventResponseSlice(events),
		Pagination: paginationMeta(page, pageSize, total),
	}, nil
}

// WeeklySummary aggregates the last seven calendar days of swipes, today
// included. Days without swipes are present with zero counts so the chart
// always has seven points.
func (s *swipeService) WeeklySummary(ctx context.Context, cardID string) (dto.WeeklySummaryResponse, error) {
	cacheKey := "buspass:summary:" + cardID

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var summary dto.WeeklySummaryResponse
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return summary, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("summary cache read failed")
		}
	}

	if _, err := s.cards.Get(ctx, cardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WeeklySummaryResponse{}, ErrCardNotEnrolled
		}
		return dto.WeeklySummaryResponse{}, err
	}

	now := time.Now()
	year, month, day := now.Date()
	windowStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(summaryDays - 1))

	events, err := s.cards.EventsSince(ctx, cardID, windowStart)
	if err != nil {
		return dto.WeeklySummaryResponse{}, err
	}

	boarded := make(map[string]int)
	alighted := make(map[string]int)
	for _, event := range events {
		key := vntime.DayKey(event.OccurredAt)
		switch event.Status {
		case models.SwipeStatusBoarded:
			boarded[key]++
		case models.SwipeStatusAlighted:
			alighted[key]++
		}
	}

	summary := dto.WeeklySummaryResponse{
		CardID: cardID,
		Days:   make([]dto.DaySummary, 0, summaryDays),
	}
	for i := 0; i < summaryDays; i++ {
		dayKey := vntime.DayKey(windowStart.AddDate(0, 0, i))
		summary.Days = append(summary.Days, dto.DaySummary{
			Date:     dayKey,
			Boarded:  boarded[dayKey],
			Alighted: alighted[dayKey],
		})
	}

	if s.redis != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.redis.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("summary cache write failed")
			}
		}
	}

	return summary, nil
}

func (s *swipeService) invalidateSummary(ctx context.Context, cardID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, "buspass:summary:"+cardID).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("summary cache invalidation failed")
	}
}

// Subscribe registers a live feed listener for one card.
func (s *swipeService) Subscribe(cardID string) (<-chan dto.SwipeEventResponse, func()) {
	channel := make(chan dto.SwipeEventResponse, swipeFeedBufferSize)

	s.broker.subscribe(cardID, channel)
	observability.StreamClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(cardID, channel)
		observability.StreamClientsActive().Dec()
	}

	return channel, cleanup
}

func (b *swipeBroker) subscribe(cardID string, channel chan dto.SwipeEventResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[cardID] == nil {
		b.subscribers[cardID] = make(map[chan dto.SwipeEventResponse]struct{})
	}
	b.subscribers[cardID][channel] = struct{}{}
}

func (b *swipeBroker) unsubscribe(cardID string, channel chan dto.SwipeEventResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[cardID]; ok {
		delete(subs, channel)
		if len(subs) == 0 {
			delete(b.subscribers, cardID)
		}
	}
	close(channel)
}

func (b *swipeBroker) broadcast(cardID string, event dto.SwipeEventResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for channel := range b.subscribers[cardID] {
		select {
		case channel <- event:
		default:
		}
	}
}
