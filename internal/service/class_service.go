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
	"gorm.io/gorm"

	"github.com/buspass-vn/buspass-go-api/internal/dto"
	"github.com/buspass-vn/buspass-go-api/internal/models"
	"github.com/buspass-vn/buspass-go-api/internal/repository"
)

// ClassService manages student profiles, class rosters and transfers between
// classes. The student profile's class field is the source of truth; roster
// rows are the denormalized view the dashboard reads.
type ClassService interface {
	List(ctx context.Context) ([]dto.ClassResponse, error)
	Roster(ctx context.Context, className string) (dto.RosterResponse, error)
	GetStudent(ctx context.Context, cardID string) (dto.StudentProfileResponse, error)
	ListStudents(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	UpdateStudent(ctx context.Context, actor ActivityActor, cardID string, req dto.StudentUpdateRequest) (dto.StudentProfileResponse, error)
	RemoveMember(ctx context.Context, actor ActivityActor, className, cardID string) error
	ResyncRoster(ctx context.Context, actor ActivityActor, className string) (dto.ResyncReportResponse, error)
}

type classService struct {
	db        *gorm.DB
	classes   repository.ClassRepository
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	activity  ActivityRecorder
}

// NewClassService constructs the class service.
func NewClassService(db *gorm.DB, validate *validator.Validate, logger zerolog.Logger, activity ActivityRecorder) ClassService {
	return &classService{
		db:        db,
		classes:   repository.NewClassRepository(db),
		students:  repository.NewStudentRepository(db),
		validator: validate,
		logger:    logger.With().Str("component", "class_service").Logger(),
		tracer:    otel.Tracer("github.com/buspass-vn/buspass-go-api/internal/service/class"),
		activity:  activity,
	}
}

func (s *classService) List(ctx context.Context) ([]dto.ClassResponse, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.classes.AllMembers(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(classes))
	for _, member := range members {
		counts[member.ClassName]++
	}

	out := make([]dto.ClassResponse, 0, len(classes))
	for _, class := range classes {
		out = append(out, dto.ClassResponse{
			ClassName:       class.ClassName,
			TeacherUsername: class.TeacherUsername,
			MemberCount:     counts[class.ClassName],
		})
	}

	return out, nil
}

func (s *classService) Roster(ctx context.Context, className string) (dto.RosterResponse, error) {
	class, err := s.classes.Get(ctx, className)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RosterResponse{}, ErrClassNotFound
		}
		return dto.RosterResponse{}, err
	}

	members, err := s.classes.Members(ctx, className)
	if err != nil {
		return dto.RosterResponse{}, err
	}

	return dto.RosterResponse{
		ClassName:       class.ClassName,
		TeacherUsername: class.TeacherUsername,
		Members:         dto.NewMembershipResponseSlice(members),
	}, nil
}

func (s *classService) GetStudent(ctx context.Context, cardID string) (dto.StudentProfileResponse, error) {
	profile, err := s.students.Get(ctx, cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentProfileResponse{}, ErrStudentNotFound
		}
		return dto.StudentProfileResponse{}, err
	}
	return dto.NewStudentProfileResponse(profile), nil
}

func (s *classService) ListStudents(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentListResponse{}, err
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	profiles, total, err := s.students.List(ctx, repository.StudentFilter{
		Search:    req.Search,
		ClassName: req.ClassName,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	return dto.StudentListResponse{
		Items:      dto.NewStudentProfileResponseSlice(profiles),
		Pagination: paginationMeta(page, pageSize, total),
	}, nil
}

// UpdateStudent applies profile edits. A changed class name runs the transfer
// path in the same transaction: the roster row moves to the new class by
// updating in place, so the original join date survives and the unique card
// index guarantees the student never appears on two rosters.
func (s *classService) UpdateStudent(ctx context.Context, actor ActivityActor, cardID string, req dto.StudentUpdateRequest) (dto.StudentProfileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentProfileResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "classes.update_student",
		trace.WithAttributes(attribute.String("student.card_id", cardID)))
	defer span.End()

	var (
		updated     models.StudentProfile
		transferred bool
		fromClass   string
		toClass     string
	)

	err := s.db.WithContext(spanCtx).Transaction(func(tx *gorm.DB) error {
		studentRepo := repository.NewStudentRepository(tx)
		classRepo := repository.NewClassRepository(tx)

		profile, err := studentRepo.Get(spanCtx, cardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		setString := func(column string, value *string) {
			if value != nil {
				updates[column] = *value
			}
		}
		setString("name", req.Name)
		setString("guardian_name", req.GuardianName)
		setString("guardian_phone", req.GuardianPhone)
		setString("student_phone", req.StudentPhone)
		setString("address", req.Address)
		setString("gender", req.Gender)
		setString("date_of_birth", req.DateOfBirth)
		setString("email", req.Email)

		newName := profile.Name
		if req.Name != nil {
			newName = *req.Name
		}

		if req.ClassName != nil && *req.ClassName != profile.ClassName {
			transferred = true
			fromClass = profile.ClassName
			toClass = *req.ClassName
			updates["class_name"] = toClass

			if _, err := classRepo.EnsureClass(spanCtx, toClass); err != nil {
				return err
			}

			now := time.Now()
			member, err := classRepo.MemberByCard(spanCtx, cardID)
			switch {
			case err == nil:
				member.ClassName = toClass
				member.Name = newName
				member.TransferredAt = &now
				if err := classRepo.SaveMember(spanCtx, &member); err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				// Roster drifted from the profile at some point; recreate
				// the row in the target class.
				if err := classRepo.CreateMember(spanCtx, &models.ClassMembership{
					ClassName: toClass,
					CardID:    cardID,
					Name:      newName,
					JoinedAt:  now,
				}); err != nil {
					return err
				}
			default:
				return err
			}
		} else if req.Name != nil && *req.Name != profile.Name {
			member, err := classRepo.MemberByCard(spanCtx, cardID)
			if err == nil {
				member.Name = newName
				if err := classRepo.SaveMember(spanCtx, &member); err != nil {
					return err
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		if len(updates) == 0 {
			updated = profile
			return nil
		}

		updated, err = studentRepo.Update(spanCtx, cardID, updates)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return dto.StudentProfileResponse{}, err
	}

	if transferred {
		s.activity.Record(ctx, actor, "class.transfer", "student", cardID, map[string]interface{}{
			"from": fromClass,
			"to":   toClass,
		})
		s.logger.Info().
			Str("card_id", cardID).
			Str("from", fromClass).
			Str("to", toClass).
			Msg("student transferred between classes")
	} else {
		s.activity.Record(ctx, actor, "student.update", "student", cardID, nil)
	}

	return dto.NewStudentProfileResponse(updated), nil
}

// RemoveMember drops a student from a roster and clears the class on the
// profile so a later resync does not resurrect the row.
func (s *classService) RemoveMember(ctx context.Context, actor ActivityActor, className, cardID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		classRepo := repository.NewClassRepository(tx)
		studentRepo := repository.NewStudentRepository(tx)

		if err := classRepo.DeleteMember(ctx, className, cardID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return err
		}

		if _, err := studentRepo.Update(ctx, cardID, map[string]interface{}{"class_name": ""}); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.activity.Record(ctx, actor, "class.remove_member", "student", cardID, map[string]interface{}{
		"class": className,
	})
	return nil
}

// ResyncRoster repairs a class roster against the student profiles. Profiles
// are authoritative: missing rows are created, rows pointing at the wrong
// class are moved in place, and rows without a backing profile are removed.
func (s *classService) ResyncRoster(ctx context.Context, actor ActivityActor, className string) (dto.ResyncReportResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "classes.resync_roster",
		trace.WithAttributes(attribute.String("class.name", className)))
	defer span.End()

	report := dto.ResyncReportResponse{ClassName: className}

	err := s.db.WithContext(spanCtx).Transaction(func(tx *gorm.DB) error {
		classRepo := repository.NewClassRepository(tx)
		studentRepo := repository.NewStudentRepository(tx)

		if _, err := classRepo.EnsureClass(spanCtx, className); err != nil {
			return err
		}

		profiles, _, err := studentRepo.List(spanCtx, repository.StudentFilter{ClassName: className})
		if err != nil {
			return err
		}

		members, err := classRepo.Members(spanCtx, className)
		if err != nil {
			return err
		}

		byCard := make(map[string]models.ClassMembership, len(members))
		for _, member := range members {
			byCard[member.CardID] = member
		}

		now := time.Now()

		for _, profile := range profiles {
			if member, ok := byCard[profile.CardID]; ok {
				if member.Name != profile.Name {
					member.Name = profile.Name
					if err := classRepo.SaveMember(spanCtx, &member); err != nil {
						return err
					}
				}
				delete(byCard, profile.CardID)
				continue
			}

			existing, err := classRepo.MemberByCard(spanCtx, profile.CardID)
			switch {
			case err == nil:
				existing.ClassName = className
				existing.Name = profile.Name
				existing.TransferredAt = &now
				if err := classRepo.SaveMember(spanCtx, &existing); err != nil {
					return err
				}
				report.Moved++
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := classRepo.CreateMember(spanCtx, &models.ClassMembership{
					ClassName: className,
					CardID:    profile.CardID,
					Name:      profile.Name,
					JoinedAt:  now,
				}); err != nil {
					return err
				}
				report.Created++
			default:
				return err
			}
		}

		// Rows left in byCard have no profile in this class.
		for _, member := range byCard {
			profile, err := studentRepo.Get(spanCtx, member.CardID)
			switch {
			case err == nil && profile.ClassName != "" && profile.ClassName != className:
				if _, err := classRepo.EnsureClass(spanCtx, profile.ClassName); err != nil {
					return err
				}
				member.ClassName = profile.ClassName
				member.Name = profile.Name
				member.TransferredAt = &now
				if err := classRepo.SaveMember(spanCtx, &member); err != nil {
					return err
				}
				report.Moved++
			case errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && profile.ClassName == ""):
				if err := classRepo.DeleteMember(spanCtx, className, member.CardID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				report.Removed++
			case err != nil:
				return err
			}
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.ResyncReportResponse{}, err
	}

	s.activity.Record(ctx, actor, "class.resync", "class", className, map[string]interface{}{
		"created": report.Created,
		"moved":   report.Moved,
		"removed": report.Removed,
	})
	s.logger.Info().
		Str("class", className).
		Int("created", report.Created).
		Int("moved", report.Moved).
		Int("removed", report.Removed).
		Msg("roster resynced")

	return report, nil
}
