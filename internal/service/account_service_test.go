package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
)

const testSecret = "test-secret"

func newAccountService(t *testing.T, db *gorm.DB) AccountService {
	t.Helper()
	return NewAccountService(db, newValidate(), testLogger(), noopRecorder{}, testSecret, time.Hour)
}

func TestAuthenticateIssuesToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db)
	ctx := context.Background()

	seedStudent(t, db, "CARD-100", "Tran Thi Mai", "6A", "tranth123")

	result, err := svc.Authenticate(ctx, dto.LoginRequest{Username: "tranth123", Password: "tranth123"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, models.RoleStudent, result.Principal.Role)
	require.NotNil(t, result.Principal.LinkedCardID)
	require.Equal(t, "CARD-100", *result.Principal.LinkedCardID)

	parsed, err := jwt.Parse(result.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "tranth123", claims["sub"])
	require.Equal(t, models.RoleStudent, claims["role"])
	require.Equal(t, "CARD-100", claims["card_id"])
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db)
	ctx := context.Background()

	seedStudent(t, db, "CARD-101", "Le Van Nam", "6A", "levann456")

	_, err := svc.Authenticate(ctx, dto.LoginRequest{Username: "levann456", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db)
	ctx := context.Background()

	seedStudent(t, db, "CARD-101", "Le Van Nam", "6A", "levann456")

	_, err := svc.Authenticate(ctx, dto.LoginRequest{Username: "nobody", Password: "whatever"})
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateReportsMissingHash(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db)

	require.NoError(t, db.Create(&models.Account{
		Username: "brokenrow",
		Role:     models.RoleStudent,
	}).Error)

	_, err := svc.Authenticate(context.Background(), dto.LoginRequest{Username: "brokenrow", Password: "brokenrow"})
	require.ErrorIs(t, err, ErrMissingPasswordHash)
}

func TestCreateTeacherAccountLinksClass(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db)
	ctx := context.Background()

	result, err := svc.Create(ctx, testActor(), dto.AccountCreateRequest{
		Username:         "teacher6a",
		Role:             models.RoleTeacher,
		ManagedClassName: "6A",
	})
	require.NoError(t, err)
	require.NotNil(t, result.ManagedClassName)

	var class models.Class
	require.NoError(t, db.First(&class, "class_name = ?", "6A").Error)
	require.NotNil(t, class.TeacherUsername)
	require.Equal(t, "teacher6a", *class.TeacherUsername)

	_, err = svc.Create(ctx, testActor(), dto.AccountCreateRequest{
		Username:         "teacher6a",
		Role:             models.RoleTeacher,
		ManagedClassName: "6A",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreateTeacherRequiresClass(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, testActor(), dto.AccountCreateRequest{
		Username: "teacher6d",
		Role:     models.RoleTeacher,
	})

	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	var count int64
	require.NoError(t, db.Model(&models.Account{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeleteStudentAccountCascades(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db)
	ctx := context.Background()

	seedStudent(t, db, "CARD-102", "Pham Quoc Huy", "6B", "phamqu789")
	require.NoError(t, db.Create(&models.SwipeEvent{
		CardID:     "CARD-102",
		Status:     models.SwipeStatusBoarded,
		OccurredAt: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&models.Notification{
		RecipientCardID: "CARD-102",
		Type:            models.NotificationTypeSleepy,
		Message:         "test",
		SenderUsername:  "teacher6b",
		SentAt:          time.Now(),
		Status:          models.NotificationStatusUnread,
	}).Error)

	require.NoError(t, svc.Delete(ctx, testActor(), "phamqu789"))

	for _, probe := range []struct {
		name  string
		model interface{}
	}{
		{"account", &models.Account{}},
		{"profile", &models.StudentProfile{}},
		{"card status", &models.CardStatus{}},
		{"membership", &models.ClassMembership{}},
	} {
		var count int64
		require.NoError(t, db.Model(probe.model).Count(&count).Error)
		require.Zero(t, count, probe.name)
	}

	var eventCount int64
	require.NoError(t, db.Model(&models.SwipeEvent{}).Where("card_id = ?", "CARD-102").Count(&eventCount).Error)
	require.Zero(t, eventCount)

	var notificationCount int64
	require.NoError(t, db.Model(&models.Notification{}).Where("recipient_card_id = ?", "CARD-102").Count(&notificationCount).Error)
	require.Zero(t, notificationCount)

	require.ErrorIs(t, svc.Delete(ctx, testActor(), "phamqu789"), ErrAccountNotFound)
}

func TestDeleteTeacherDetachesClass(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, testActor(), dto.AccountCreateRequest{
		Username:         "teacher6c",
		Role:             models.RoleTeacher,
		ManagedClassName: "6C",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, testActor(), "teacher6c"))

	var class models.Class
	require.NoError(t, db.First(&class, "class_name = ?", "6C").Error)
	require.Nil(t, class.TeacherUsername)
}
