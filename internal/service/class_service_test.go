package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestUpdateStudentTransfersBetweenClasses(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClassService(db, newValidate(), testLogger(), noopRecorder{})
	ctx := context.Background()

	seedStudent(t, db, "CARD-200", "Hoang Van Long", "6A", "hoangv111")

	var before models.ClassMembership
	require.NoError(t, db.First(&before, "card_id = ?", "CARD-200").Error)

	result, err := svc.UpdateStudent(ctx, testActor(), "CARD-200", dto.StudentUpdateRequest{
		ClassName: strPtr("6B"),
	})
	require.NoError(t, err)
	require.Equal(t, "6B", result.ClassName)

	var memberships []models.ClassMembership
	require.NoError(t, db.Where("card_id = ?", "CARD-200").Find(&memberships).Error)
	require.Len(t, memberships, 1)
	require.Equal(t, "6B", memberships[0].ClassName)
	require.WithinDuration(t, before.JoinedAt, memberships[0].JoinedAt, time.Second)
	require.NotNil(t, memberships[0].TransferredAt)

	var profile models.StudentProfile
	require.NoError(t, db.First(&profile, "card_id = ?", "CARD-200").Error)
	require.Equal(t, "6B", profile.ClassName)

	var class models.Class
	require.NoError(t, db.First(&class, "class_name = ?", "6B").Error)
}

func TestUpdateStudentEditsWithoutTransfer(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClassService(db, newValidate(), testLogger(), noopRecorder{})
	ctx := context.Background()

	seedStudent(t, db, "CARD-201", "Vu Thi Hoa", "6A", "vuthih222")

	result, err := svc.UpdateStudent(ctx, testActor(), "CARD-201", dto.StudentUpdateRequest{
		Name:          strPtr("Vu Thi Hoa Updated"),
		GuardianPhone: strPtr("0987654321"),
	})
	require.NoError(t, err)
	require.Equal(t, "Vu Thi Hoa Updated", result.Name)
	require.Equal(t, "0987654321", result.GuardianPhone)
	require.Equal(t, "6A", result.ClassName)

	// The roster name follows the profile.
	var member models.ClassMembership
	require.NoError(t, db.First(&member, "card_id = ?", "CARD-201").Error)
	require.Equal(t, "Vu Thi Hoa Updated", member.Name)
	require.Nil(t, member.TransferredAt)
}

func TestUpdateStudentUnknownCard(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClassService(db, newValidate(), testLogger(), noopRecorder{})

	_, err := svc.UpdateStudent(context.Background(), testActor(), "NOPE", dto.StudentUpdateRequest{
		Name: strPtr("Anyone"),
	})
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestRemoveMemberClearsProfileClass(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClassService(db, newValidate(), testLogger(), noopRecorder{})
	ctx := context.Background()

	seedStudent(t, db, "CARD-202", "Dang Van Minh", "6A", "dangva333")

	require.NoError(t, svc.RemoveMember(ctx, testActor(), "6A", "CARD-202"))

	var memberCount int64
	require.NoError(t, db.Model(&models.ClassMembership{}).Where("card_id = ?", "CARD-202").Count(&memberCount).Error)
	require.Zero(t, memberCount)

	var profile models.StudentProfile
	require.NoError(t, db.First(&profile, "card_id = ?", "CARD-202").Error)
	require.Empty(t, profile.ClassName)
}

func TestResyncRosterRepairsDrift(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClassService(db, newValidate(), testLogger(), noopRecorder{})
	ctx := context.Background()

	// Profile says 6A but the roster row is missing.
	require.NoError(t, db.Create(&models.StudentProfile{CardID: "CARD-210", Name: "Missing Row", ClassName: "6A"}).Error)

	// Profile says 6A but the roster row sits in 6B.
	require.NoError(t, db.Create(&models.StudentProfile{CardID: "CARD-211", Name: "Wrong Class", ClassName: "6A"}).Error)
	require.NoError(t, db.Create(&models.ClassMembership{
		ClassName: "6B",
		CardID:    "CARD-211",
		Name:      "Wrong Class",
		JoinedAt:  time.Now().Add(-48 * time.Hour),
	}).Error)

	// Roster row in 6A with no backing profile.
	require.NoError(t, db.Create(&models.ClassMembership{
		ClassName: "6A",
		CardID:    "CARD-212",
		Name:      "Ghost",
		JoinedAt:  time.Now().Add(-48 * time.Hour),
	}).Error)

	report, err := svc.ResyncRoster(ctx, testActor(), "6A")
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)
	require.Equal(t, 1, report.Moved)
	require.Equal(t, 1, report.Removed)

	members, err := NewClassService(db, newValidate(), testLogger(), noopRecorder{}).Roster(ctx, "6A")
	require.NoError(t, err)
	require.Len(t, members.Members, 2)

	cards := map[string]bool{}
	for _, member := range members.Members {
		cards[member.CardID] = true
	}
	require.True(t, cards["CARD-210"])
	require.True(t, cards["CARD-211"])
	require.False(t, cards["CARD-212"])
}

func TestListClassesCountsMembers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClassService(db, newValidate(), testLogger(), noopRecorder{})
	ctx := context.Background()

	seedStudent(t, db, "CARD-220", "Student One", "6A", "stuone444")
	seedStudent(t, db, "CARD-221", "Student Two", "6A", "stutwo555")

	classes, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, "6A", classes[0].ClassName)
	require.Equal(t, 2, classes[0].MemberCount)
}
