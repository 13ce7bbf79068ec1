package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/repository"
)

// AccountService manages login credentials and sessions.
type AccountService interface {
	Authenticate(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Create(ctx context.Context, actor ActivityActor, req dto.AccountCreateRequest) (dto.AccountResponse, error)
	Get(ctx context.Context, username string) (dto.AccountResponse, error)
	List(ctx context.Context, req dto.AccountListRequest) (dto.AccountListResponse, error)
	Delete(ctx context.Context, actor ActivityActor, username string) error
}

type accountService struct {
	db        *gorm.DB
	accounts  repository.AccountRepository
	classes   repository.ClassRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	activity  ActivityRecorder
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAccountService constructs the account service.
func NewAccountService(db *gorm.DB, validate *validator.Validate, logger zerolog.Logger, activity ActivityRecorder, jwtSecret string, tokenTTL time.Duration) AccountService {
	return &accountService{
		db:        db,
		accounts:  repository.NewAccountRepository(db),
		classes:   repository.NewClassRepository(db),
		validator: validate,
		logger:    logger.With().Str("component", "account_service").Logger(),
		tracer:    otel.Tracer("github.com/buspass-vn/buspass-go-api/internal/service/account"),
		activity:  activity,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Authenticate checks credentials and issues a bearer token. An unknown
// username, a wrong password and an account row without a password hash are
// three distinct failures: the caller tells the user the account does not
// exist, that the password is wrong, or that the record needs recreating.
func (s *accountService) Authenticate(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "accounts.authenticate")
	defer span.End()

	account, err := s.accounts.Get(spanCtx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrAccountNotFound
		}
		span.RecordError(err)
		return dto.LoginResponse{}, err
	}

	if account.PasswordHash == "" {
		s.logger.Error().Str("username", account.Username).Msg("account has no password hash")
		return dto.LoginResponse{}, ErrMissingPasswordHash
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	now := time.Now()
	token, err := s.issueToken(account, now)
	if err != nil {
		span.RecordError(err)
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Str("username", account.Username).Str("role", account.Role).Msg("login succeeded")

	return dto.LoginResponse{
		Token: token,
		Principal: dto.PrincipalResponse{
			Username:         account.Username,
			Role:             account.Role,
			LinkedCardID:     account.LinkedCardID,
			ManagedClassName: account.ManagedClassName,
			LoginAt:          now,
		},
	}, nil
}

func (s *accountService) issueToken(account models.Account, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  account.Username,
		"role": account.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	if account.LinkedCardID != nil {
		claims["card_id"] = *account.LinkedCardID
	}
	if account.ManagedClassName != nil {
		claims["class"] = *account.ManagedClassName
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// Create provisions a teacher or admin account. The username is also the
// initial password, matching the enrollment flow. The existence pre-check is
// best effort; the primary key constraint is what actually guarantees
// uniqueness under concurrent creates.
func (s *accountService) Create(ctx context.Context, actor ActivityActor, req dto.AccountCreateRequest) (dto.AccountResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AccountResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.String("account.username", req.Username),
		attribute.String("account.role", req.Role),
	}
	spanCtx, span := s.tracer.Start(ctx, "accounts.create", trace.WithAttributes(attrs...))
	defer span.End()

	taken, err := s.accounts.Exists(spanCtx, req.Username)
	if err != nil {
		span.RecordError(err)
		return dto.AccountResponse{}, err
	}
	if taken {
		return dto.AccountResponse{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Username), bcrypt.DefaultCost)
	if err != nil {
		return dto.AccountResponse{}, err
	}

	account := models.Account{
		Username:     req.Username,
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	if req.Role == models.RoleTeacher {
		className := req.ManagedClassName
		account.ManagedClassName = &className
	}

	err = s.db.WithContext(spanCtx).Transaction(func(tx *gorm.DB) error {
		accountRepo := repository.NewAccountRepository(tx)
		classRepo := repository.NewClassRepository(tx)

		if err := accountRepo.Create(spanCtx, &account); err != nil {
			return err
		}

		if account.ManagedClassName != nil {
			if _, err := classRepo.EnsureClass(spanCtx, *account.ManagedClassName); err != nil {
				return err
			}
			teacher := account.Username
			if err := classRepo.SetTeacher(spanCtx, *account.ManagedClassName, &teacher); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.AccountResponse{}, err
	}

	s.activity.Record(ctx, actor, "account.create", "account", account.Username, map[string]interface{}{
		"role": account.Role,
	})

	return dto.NewAccountResponse(account), nil
}

func (s *accountService) Get(ctx context.Context, username string) (dto.AccountResponse, error) {
	account, err := s.accounts.Get(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AccountResponse{}, ErrAccountNotFound
		}
		return dto.AccountResponse{}, err
	}
	return dto.NewAccountResponse(account), nil
}

func (s *accountService) List(ctx context.Context, req dto.AccountListRequest) (dto.AccountListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AccountListResponse{}, err
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	accounts, total, err := s.accounts.List(ctx, repository.AccountFilter{
		Search:    req.Search,
		Role:      req.Role,
		ClassName: req.ClassName,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return dto.AccountListResponse{}, err
	}

	return dto.AccountListResponse{
		Items:      dto.NewAccountResponseSlice(accounts),
		Pagination: paginationMeta(page, pageSize, total),
	}, nil
}

// Delete removes an account and, for student accounts, everything keyed by
// the linked card: profile, card status with its swipe log, notifications and
// the roster entry. For teachers the managed class is detached instead.
func (s *accountService) Delete(ctx context.Context, actor ActivityActor, username string) error {
	spanCtx, span := s.tracer.Start(ctx, "accounts.delete",
		trace.WithAttributes(attribute.String("account.username", username)))
	defer span.End()

	err := s.db.WithContext(spanCtx).Transaction(func(tx *gorm.DB) error {
		accountRepo := repository.NewAccountRepository(tx)
		studentRepo := repository.NewStudentRepository(tx)
		cardRepo := repository.NewCardStatusRepository(tx)
		notificationRepo := repository.NewNotificationRepository(tx)
		classRepo := repository.NewClassRepository(tx)

		account, err := accountRepo.Get(spanCtx, username)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if account.LinkedCardID != nil {
			cardID := *account.LinkedCardID

			if err := studentRepo.Delete(spanCtx, cardID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := cardRepo.Delete(spanCtx, cardID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := notificationRepo.DeleteByRecipient(spanCtx, cardID); err != nil {
				return err
			}
			if err := classRepo.DeleteMemberByCard(spanCtx, cardID); err != nil {
				return err
			}
		}

		if account.ManagedClassName != nil {
			if err := classRepo.SetTeacher(spanCtx, *account.ManagedClassName, nil); err != nil {
				return err
			}
		}

		return accountRepo.Delete(spanCtx, username)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.activity.Record(ctx, actor, "account.delete", "account", username, nil)
	s.logger.Info().Str("username", username).Msg("account deleted")

	return nil
}
