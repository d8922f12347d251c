package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"social_chat/internal/domain"
	"social_chat/internal/repository"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"
)

type UserService interface {
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*domain.User, error)
	AddContact(ctx context.Context, ownerID int64, input ContactInput) (*domain.Contact, error)
	ListContacts(ctx context.Context, ownerID int64) ([]*domain.Contact, error)
	RemoveContact(ctx context.Context, ownerID, contactID int64) error
}

// UpdateProfileInput - nil поле не меняется
type UpdateProfileInput struct {
	Username  *string `json:"username" validate:"omitempty,min=1,max=50"`
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone_number" validate:"omitempty,min=1,max=32"`
}

// ContactInput - контакт ищется по телефону, а если его нет, по email
type ContactInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone_number" validate:"required_without=Email,max=32"`
	Email     string `json:"email" validate:"required_without=Phone,omitempty,email"`
}

type userService struct {
	userRepo    repository.UserRepository
	contactRepo repository.ContactRepository
	audit       AuditService
	log         logger.Logger
}

func NewUserService(userRepo repository.UserRepository, contactRepo repository.ContactRepository, audit AuditService, log logger.Logger) UserService {
	return &userService{
		userRepo:    userRepo,
		contactRepo: contactRepo,
		audit:       audit,
		log:         log,
	}
}

func (s *userService) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, input UpdateProfileInput) (*domain.User, error) {
	input.Username = trimPtr(input.Username)
	input.FirstName = trimPtr(input.FirstName)
	input.LastName = trimPtr(input.LastName)
	input.Email = trimPtr(input.Email)
	input.Phone = trimPtr(input.Phone)
	if input.Email != nil {
		*input.Email = strings.ToLower(*input.Email)
	}

	// omitempty пропускает пустые строки, а очищать поля нельзя
	var blank []string
	for field, v := range map[string]*string{
		"username":     input.Username,
		"first_name":   input.FirstName,
		"last_name":    input.LastName,
		"email":        input.Email,
		"phone_number": input.Phone,
	} {
		if v != nil && *v == "" {
			blank = append(blank, field)
		}
	}
	if len(blank) > 0 {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation,
			"missing or invalid fields: "+strings.Join(blank, ", "), blank...)
	}

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	before, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Update(ctx, userID, domain.UserUpdate{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
	})
	if err != nil {
		return nil, err
	}

	if before.Username != user.Username {
		err := s.audit.LogEvent(ctx, userID, nil, domain.EventTypeUserRenamed, map[string]interface{}{
			"from": before.Username,
			"to":   user.Username,
		})
		if err != nil {
			s.log.Warn("Failed to write audit event", "error", err, "event", domain.EventTypeUserRenamed)
		}
	}

	return user, nil
}

func (s *userService) AddContact(ctx context.Context, ownerID int64, input ContactInput) (*domain.Contact, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var (
		target *domain.User
		err    error
	)
	if input.Phone != "" {
		target, err = s.userRepo.GetByPhone(ctx, input.Phone)
	} else {
		target, err = s.userRepo.GetByEmail(ctx, input.Email)
	}
	if err != nil {
		return nil, err
	}

	if target.ID == ownerID {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation, "cannot add yourself as a contact", "phone_number", "email")
	}

	contact := &domain.Contact{
		OwnerID:   ownerID,
		ContactID: target.ID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  target.Username,
		Email:     target.Email,
		Phone:     target.Phone,
	}
	if err := s.contactRepo.Add(ctx, contact); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add contact: %w", err)
	}

	return contact, nil
}

func (s *userService) ListContacts(ctx context.Context, ownerID int64) ([]*domain.Contact, error) {
	return s.contactRepo.List(ctx, ownerID)
}

func (s *userService) RemoveContact(ctx context.Context, ownerID, contactID int64) error {
	return s.contactRepo.Remove(ctx, ownerID, contactID)
}
