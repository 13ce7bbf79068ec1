package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/observability"
	"github.com/buspass-vn/buspass-go-api/internal/repository"
	"github.com/buspass-vn/buspass-go-api/pkg/username"
)

// EnrollmentService owns the pending card queue and the approval transaction
// that turns an unknown card into a full student record.
type EnrollmentService interface {
	ListPending(ctx context.Context, page, pageSize int) (dto.PendingCardListResponse, error)
	Approve(ctx context.Context, actor ActivityActor, cardID string, req dto.ApprovalRequest) (dto.ApprovalResponse, error)
	Reject(ctx context.Context, actor ActivityActor, cardID string) error
}

type enrollmentService struct {
	db        *gorm.DB
	pending   repository.PendingCardRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	activity  ActivityRecorder
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(db *gorm.DB, validate *validator.Validate, logger zerolog.Logger, activity ActivityRecorder) EnrollmentService {
	return &enrollmentService{
		db:        db,
		pending:   repository.NewPendingCardRepository(db),
		validator: validate,
		logger:    logger.With().Str("component", "enrollment_service").Logger(),
		tracer:    otel.Tracer("github.com/buspass-vn/buspass-go-api/internal/service/enrollment"),
		activity:  activity,
	}
}

func (s *enrollmentService) ListPending(ctx context.Context, page, pageSize int) (dto.PendingCardListResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	cards, total, err := s.pending.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return dto.PendingCardListResponse{}, err
	}

	return dto.PendingCardListResponse{
		Items:      dto.NewPendingCardResponseSlice(cards),
		Pagination: paginationMeta(page, pageSize, total),
	}, nil
}

// Approve runs the enrollment transaction: it removes the card from the
// pending queue and creates the student profile, the card status record, the
// login account and the roster entry as one unit. The generated username
// doubles as the default password, which the admin is expected to hand to the
// guardian for a first login.
func (s *enrollmentService) Approve(ctx context.Context, actor ActivityActor, cardID string, req dto.ApprovalRequest) (dto.ApprovalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ApprovalResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.String("enrollment.card_id", cardID),
		attribute.String("enrollment.class", req.ClassName),
	}
	spanCtx, span := s.tracer.Start(ctx, "enrollment.approve", trace.WithAttributes(attrs...))
	defer span.End()

	var (
		profile   models.StudentProfile
		loginName string
	)

	err := s.db.WithContext(spanCtx).Transaction(func(tx *gorm.DB) error {
		pendingRepo := repository.NewPendingCardRepository(tx)
		studentRepo := repository.NewStudentRepository(tx)
		cardRepo := repository.NewCardStatusRepository(tx)
		accountRepo := repository.NewAccountRepository(tx)
		classRepo := repository.NewClassRepository(tx)

		if _, err := pendingRepo.Get(spanCtx, cardID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPendingCardNotFound
			}
			return err
		}

		if _, err := studentRepo.Get(spanCtx, cardID); err == nil {
			return ErrCardAlreadyEnrolled
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		generated, err := s.generateUsername(spanCtx, accountRepo, req.Name)
		if err != nil {
			return err
		}
		loginName = generated

		hash, err := bcrypt.GenerateFromPassword([]byte(loginName), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now()
		profile = models.StudentProfile{
			CardID:        cardID,
			Name:          req.Name,
			GuardianName:  req.GuardianName,
			ClassName:     req.ClassName,
			GuardianPhone: req.GuardianPhone,
			StudentPhone:  req.StudentPhone,
			Address:       req.Address,
			Gender:        req.Gender,
			DateOfBirth:   req.DateOfBirth,
			Email:         req.Email,
		}
		if err := studentRepo.Create(spanCtx, &profile); err != nil {
			return err
		}

		if err := cardRepo.Create(spanCtx, &models.CardStatus{
			CardID:     cardID,
			LastStatus: models.SwipeStatusUnset,
		}); err != nil {
			return err
		}

		linkedCard := cardID
		if err := accountRepo.Create(spanCtx, &models.Account{
			Username:     loginName,
			LinkedCardID: &linkedCard,
			Role:         models.RoleStudent,
			PasswordHash: string(hash),
		}); err != nil {
			return err
		}

		if _, err := classRepo.EnsureClass(spanCtx, req.ClassName); err != nil {
			return err
		}
		if err := classRepo.CreateMember(spanCtx, &models.ClassMembership{
			ClassName: req.ClassName,
			CardID:    cardID,
			Name:      req.Name,
			JoinedAt:  now,
		}); err != nil {
			return err
		}

		return pendingRepo.Delete(spanCtx, cardID)
	})
	if err != nil {
		span.RecordError(err)
		return dto.ApprovalResponse{}, err
	}

	observability.ApprovalsTotal().Inc()
	s.activity.Record(ctx, actor, "enrollment.approve", "student", cardID, map[string]interface{}{
		"class":    req.ClassName,
		"username": loginName,
	})
	s.logger.Info().
		Str("card_id", cardID).
		Str("class", req.ClassName).
		Str("username", loginName).
		Msg("enrollment approved")

	return dto.ApprovalResponse{
		CardID:   cardID,
		Username: loginName,
		Profile:  dto.NewStudentProfileResponse(profile),
	}, nil
}

// Reject drops a card from the pending queue without creating any records.
func (s *enrollmentService) Reject(ctx context.Context, actor ActivityActor, cardID string) error {
	if err := s.pending.Delete(ctx, cardID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPendingCardNotFound
		}
		return err
	}

	s.activity.Record(ctx, actor, "enrollment.reject", "pending_card", cardID, nil)
	return nil
}

// generateUsername derives a login name from the student's name and retries
// with mutated candidates on collision. After the retry budget is exhausted a
// timestamp-based name guarantees progress.
func (s *enrollmentService) generateUsername(ctx context.Context, accounts repository.AccountRepository, name string) (string, error) {
	source := name
	candidate := username.Candidate(source)

	for attempt := 0; attempt < username.MaxAttempts; attempt++ {
		taken, err := accounts.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		source = username.Mutate(source)
		candidate = username.Candidate(source)
	}

	return username.TimestampFallback(time.Now()), nil
}
