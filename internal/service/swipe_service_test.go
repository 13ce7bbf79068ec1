package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/pkg/vntime"
)

func TestIngestUnknownCardQueuesForEnrollment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSwipeService(db, nil, time.Minute, newValidate(), testLogger())
	ctx := context.Background()

	first, err := svc.Ingest(ctx, dto.SwipeIngestRequest{
		CardID:     "CARD-400",
		Status:     models.SwipeStatusBoarded,
		OccurredAt: "17-12-2025 07:01:02",
	})
	require.NoError(t, err)
	require.Equal(t, dto.SwipeOutcomePending, first.Outcome)

	var pending models.PendingCard
	require.NoError(t, db.First(&pending, "card_id = ?", "CARD-400").Error)
	firstSeen := pending.FirstSeenAt

	// A repeat swipe keeps the earliest sighting.
	_, err = svc.Ingest(ctx, dto.SwipeIngestRequest{
		CardID:     "CARD-400",
		Status:     models.SwipeStatusBoarded,
		OccurredAt: "17-12-2025 07:05:00",
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.PendingCard{}).Where("card_id = ?", "CARD-400").Count(&count).Error)
	require.Equal(t, int64(1), count)

	require.NoError(t, db.First(&pending, "card_id = ?", "CARD-400").Error)
	require.WithinDuration(t, firstSeen, pending.FirstSeenAt, time.Second)
}

func TestIngestKnownCardAppendsAndUpdatesStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSwipeService(db, nil, time.Minute, newValidate(), testLogger())
	ctx := context.Background()

	seedStudent(t, db, "CARD-401", "Mai Van Khoa", "6A", "maivan222")

	result, err := svc.Ingest(ctx, dto.SwipeIngestRequest{
		CardID: "CARD-401",
		Status: models.SwipeStatusBoarded,
	})
	require.NoError(t, err)
	require.Equal(t, dto.SwipeOutcomeRecorded, result.Outcome)

	var status models.CardStatus
	require.NoError(t, db.First(&status, "card_id = ?", "CARD-401").Error)
	require.Equal(t, models.SwipeStatusBoarded, status.LastStatus)

	var eventCount int64
	require.NoError(t, db.Model(&models.SwipeEvent{}).Where("card_id = ?", "CARD-401").Count(&eventCount).Error)
	require.Equal(t, int64(1), eventCount)
}

func TestIngestRejectsBadTimestamp(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSwipeService(db, nil, time.Minute, newValidate(), testLogger())

	_, err := svc.Ingest(context.Background(), dto.SwipeIngestRequest{
		CardID:     "CARD-402",
		Status:     models.SwipeStatusBoarded,
		OccurredAt: "not-a-time",
	})
	require.Error(t, err)
}

func TestHistoryClampsPageSize(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSwipeService(db, nil, time.Minute, newValidate(), testLogger())
	ctx := context.Background()

	seedStudent(t, db, "CARD-403", "Phan Thi Yen", "6A", "phanth333")

	result, err := svc.History(ctx, "CARD-403", 1, 100)
	require.NoError(t, err)
	require.Equal(t, historyMaxPageSize, result.Pagination.PageSize)

	result, err = svc.History(ctx, "CARD-403", 1, 1)
	require.NoError(t, err)
	require.Equal(t, historyMinPageSize, result.Pagination.PageSize)

	_, err = svc.History(ctx, "NOPE", 1, 10)
	require.ErrorIs(t, err, ErrCardNotEnrolled)
}

func TestWeeklySummaryZeroFillsSevenDays(t *testing.T) {
	db := setupTestDB(t)

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	svc := NewSwipeService(db, redisClient, time.Minute, newValidate(), testLogger())
	ctx := context.Background()

	seedStudent(t, db, "CARD-404", "Duong Van Tien", "6A", "duongv444")

	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)
	events := []models.SwipeEvent{
		{CardID: "CARD-404", Status: models.SwipeStatusBoarded, OccurredAt: now},
		{CardID: "CARD-404", Status: models.SwipeStatusAlighted, OccurredAt: now},
		{CardID: "CARD-404", Status: models.SwipeStatusBoarded, OccurredAt: yesterday},
		// Outside the window, must not be counted.
		{CardID: "CARD-404", Status: models.SwipeStatusBoarded, OccurredAt: now.AddDate(0, 0, -10)},
	}
	for i := range events {
		require.NoError(t, db.Create(&events[i]).Error)
	}

	summary, err := svc.WeeklySummary(ctx, "CARD-404")
	require.NoError(t, err)
	require.Len(t, summary.Days, 7)

	byDate := map[string]dto.DaySummary{}
	totalBoarded := 0
	for _, day := range summary.Days {
		byDate[day.Date] = day
		totalBoarded += day.Boarded
	}
	require.Equal(t, 2, totalBoarded)
	require.Equal(t, 1, byDate[vntime.DayKey(now)].Alighted)
	require.Equal(t, 1, byDate[vntime.DayKey(yesterday)].Boarded)

	// The oldest day of the window has no swipes but is still present.
	oldest := summary.Days[0]
	require.Equal(t, vntime.DayKey(now.AddDate(0, 0, -6)), oldest.Date)
	require.Zero(t, oldest.Boarded)
	require.Zero(t, oldest.Alighted)

	require.True(t, mini.Exists("buspass:summary:CARD-404"))
}

func TestWeeklySummaryCacheInvalidatedOnIngest(t *testing.T) {
	db := setupTestDB(t)

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	svc := NewSwipeService(db, redisClient, time.Minute, newValidate(), testLogger())
	ctx := context.Background()

	seedStudent(t, db, "CARD-405", "Ta Van Hieu", "6A", "tavanh555")

	_, err = svc.WeeklySummary(ctx, "CARD-405")
	require.NoError(t, err)
	require.True(t, mini.Exists("buspass:summary:CARD-405"))

	_, err = svc.Ingest(ctx, dto.SwipeIngestRequest{
		CardID: "CARD-405",
		Status: models.SwipeStatusBoarded,
	})
	require.NoError(t, err)
	require.False(t, mini.Exists("buspass:summary:CARD-405"))

	summary, err := svc.WeeklySummary(ctx, "CARD-405")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Days[6].Boarded)
}

func TestSubscribeReceivesLiveSwipes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSwipeService(db, nil, time.Minute, newValidate(), testLogger())
	ctx := context.Background()

	seedStudent(t, db, "CARD-406", "Ho Thi Trang", "6A", "hothit666")

	stream, cleanup := svc.Subscribe("CARD-406")
	defer cleanup()

	_, err := svc.Ingest(ctx, dto.SwipeIngestRequest{
		CardID: "CARD-406",
		Status: models.SwipeStatusAlighted,
	})
	require.NoError(t, err)

	select {
	case event := <-stream:
		require.Equal(t, models.SwipeStatusAlighted, event.Status)
		require.Equal(t, "CARD-406", event.CardID)
	case <-time.After(time.Second):
		t.Fatal("expected a live swipe event")
	}
}
