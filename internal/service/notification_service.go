package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
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
)

const notificationBufferSize = 16

// Canned message bodies for the one-tap notification types. A custom type
// must bring its own message.
var cannedMessages = map[string]string{
	models.NotificationTypeSleepy: "Em ngủ quên trên xe, phụ huynh vui lòng kiểm tra.",
	models.NotificationTypeHealth: "Em có dấu hiệu không khỏe trên xe, phụ huynh vui lòng liên hệ nhà trường.",
}

// NotificationService sends guardian notifications and streams them to the
// dashboard via SSE.
type NotificationService interface {
	Send(ctx context.Context, actor ActivityActor, req dto.NotificationSendRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, cardID string, limit, offset int) (dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, id uint, cardID string) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, cardID string) (dto.MarkAllReadResponse, error)
	Subscribe(cardID string) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo        repository.NotificationRepository
	students    repository.StudentRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	activity    ActivityRecorder
	broker      *notificationBroker
	nodeID      string
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.NotificationResponse]struct{}
}

// NewNotificationService constructs the notification service. Redis and NATS
// are optional; with neither configured the in-process broker still serves
// local SSE clients.
func NewNotificationService(db *gorm.DB, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger, activity ActivityRecorder) NotificationService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:        repository.NewNotificationRepository(db),
		students:    repository.NewStudentRepository(db),
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		validator:   validate,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		tracer:      otel.Tracer("github.com/buspass-vn/buspass-go-api/internal/service/notification"),
		sanitizer:   bluemonday.StrictPolicy(),
		activity:    activity,
		broker: &notificationBroker{
			subscribers: make(map[string]map[chan dto.NotificationResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *notificationService) Send(ctx context.Context, actor ActivityActor, req dto.NotificationSendRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.NotificationResponse{}, err
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(req.Message))
	if message == "" {
		canned, ok := cannedMessages[req.Type]
		if !ok {
			return dto.NotificationResponse{}, ErrMessageRequired
		}
		message = canned
	}

	attrs := []attribute.KeyValue{
		attribute.String("notification.recipient", req.RecipientCardID),
		attribute.String("notification.type", req.Type),
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.send", trace.WithAttributes(attrs...))
	defer span.End()

	if _, err := s.students.Get(spanCtx, req.RecipientCardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrCardNotEnrolled
		}
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	model := models.Notification{
		RecipientCardID: req.RecipientCardID,
		Type:            req.Type,
		Message:         message,
		SenderUsername:  actor.Username,
		SentAt:          time.Now(),
		Status:          models.NotificationStatusUnread,
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	response := dto.NewNotificationResponse(model)
	s.broker.broadcast(response.RecipientCardID, response)
	if err := s.publish(spanCtx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification to broker")
	}

	observability.NotificationsSentTotal().WithLabelValues(response.Type).Inc()
	s.activity.Record(ctx, actor, "notification.send", "notification", req.RecipientCardID, map[string]interface{}{
		"type": req.Type,
	})

	return response, nil
}

func (s *notificationService) List(ctx context.Context, cardID string, limit, offset int) (dto.NotificationListResponse, error) {
	if strings.TrimSpace(cardID) == "" {
		return dto.NotificationListResponse{}, ErrCardNotEnrolled
	}

	notifications, _, err := s.repo.ListByRecipient(ctx, cardID, limit, offset)
	if err != nil {
		return dto.NotificationListResponse{}, err
	}

	unread, err := s.repo.CountUnread(ctx, cardID)
	if err != nil {
		return dto.NotificationListResponse{}, err
	}

	return dto.NotificationListResponse{
		Items:       dto.NewNotificationResponseSlice(notifications),
		UnreadCount: unread,
	}, nil
}

// MarkRead flips a single notification to read. Marking an already read
// notification is a no-op, not an error.
func (s *notificationService) MarkRead(ctx context.Context, id uint, cardID string) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationMissing
		}
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

// MarkAllRead flips every unread notification for the recipient in one
// update and reports how many rows changed.
func (s *notificationService) MarkAllRead(ctx context.Context, cardID string) (dto.MarkAllReadResponse, error) {
	updated, err := s.repo.MarkAllRead(ctx, cardID)
	if err != nil {
		return dto.MarkAllReadResponse{}, err
	}

	return dto.MarkAllReadResponse{Updated: updated}, nil
}

func (s *notificationService) Subscribe(cardID string) (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)

	s.broker.subscribe(cardID, channel)
	observability.StreamClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(cardID, channel)
		observability.StreamClientsActive().Dec()
	}

	return channel, cleanup
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "buspass-notifications", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broker.broadcast(event.Notification.RecipientCardID, event.Notification)
}

func (b *notificationBroker) subscribe(cardID string, channel chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[cardID] == nil {
		b.subscribers[cardID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[cardID][channel] = struct{}{}
}

func (b *notificationBroker) unsubscribe(cardID string, channel chan dto.NotificationResponse) {
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

func (b *notificationBroker) broadcast(cardID string, notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for channel := range b.subscribers[cardID] {
		select {
		case channel <- notification:
		default:
		}
	}
}
