package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/validation"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newValidate() *validator.Validate {
	return validation.New()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.PendingCard{},
		&models.StudentProfile{},
		&models.CardStatus{},
		&models.SwipeEvent{},
		&models.Account{},
		&models.Class{},
		&models.ClassMembership{},
		&models.Notification{},
		&models.ActivityLog{},
	))

	return db
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, ActivityActor, string, string, string, map[string]interface{}) {
}

func testActor() ActivityActor {
	return ActivityActor{Username: "admin1", Role: models.RoleAdmin}
}

// seedStudent inserts the full record set an approval would have produced.
func seedStudent(t *testing.T, db *gorm.DB, cardID, name, className, username string) {
	t.Helper()

	require.NoError(t, db.Create(&models.StudentProfile{
		CardID:    cardID,
		Name:      name,
		ClassName: className,
	}).Error)
	require.NoError(t, db.Create(&models.CardStatus{
		CardID:     cardID,
		LastStatus: models.SwipeStatusUnset,
	}).Error)
	require.NoError(t, db.Create(&models.ClassMembership{
		ClassName: className,
		CardID:    cardID,
		Name:      name,
		JoinedAt:  time.Now().Add(-24 * time.Hour),
	}).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte(username), bcrypt.DefaultCost)
	require.NoError(t, err)
	linked := cardID
	require.NoError(t, db.Create(&models.Account{
		Username:     username,
		LinkedCardID: &linked,
		Role:         models.RoleStudent,
		PasswordHash: string(hash),
	}).Error)

	var class models.Class
	require.NoError(t, db.Where(models.Class{ClassName: className}).FirstOrCreate(&class).Error)
}
