// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	deliverycontext "emuss/internal/delivery/context"
	"emuss/internal/domain/entity"
	domainerrors "emuss/internal/domain/errors"
	"emuss/internal/domain/repository"
	"emuss/internal/domain/service"
	"emuss/internal/domain/validation"
	"emuss/internal/errors"
	"emuss/internal/usecase"

	"go.uber.org/fx"
)

const (
	msgLoginSuccessful = "Login successful"
	msgUserRegistered  = "User registered successfully"
	msgUserUpdated     = "User updated successfully"
	msgUserDeleted     = "User deleted successfully"
	msgUsersFetched    = "Users fetched successfully"
)

// userService implements the UserUsecase interface.
type userService struct {
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	publisher service.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Publisher service.EventPublisher
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		publisher: params.Publisher,
		logger:    params.Logger,
		now:       time.Now,
	}
}

// Authenticate verifies credentials and stamps last_login. Unknown emails and
// wrong passwords return the same error.
func (s *userService) Authenticate(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	creds, err := s.userRepo.FindCredentials(ctx, input.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.log(ctx).Info("Login rejected", slog.String("reason", "user not found"))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "error authenticating user")
	}
	if err != nil {
		return nil, errors.Wrap(err, "error authenticating user")
	}

	if !s.hasher.Check(input.Password, creds.PasswordHash) {
		s.log(ctx).Info("Login rejected",
			slog.String("reason", "invalid password"),
			slog.Int64("userID", creds.User.ID))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "error authenticating user")
	}

	user := creds.User
	loginAt := s.now().UTC()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, loginAt); err != nil {
		return nil, errors.Wrap(err, "error authenticating user")
	}
	user.LastLogin = &loginAt

	s.publish(ctx, entity.UserEventAuthenticated, user)

	return &usecase.LoginOutput{
		Success: true,
		Message: msgLoginSuccessful,
		User:    user,
	}, nil
}

// RegisterUser validates the payload and creates the account.
func (s *userService) RegisterUser(ctx context.Context, input usecase.RegisterUserInput) (*usecase.RegisterOutput, error) {
	err := validation.ValidateRegistration(validation.RegistrationFields{
		Email:      input.Email,
		Password:   input.Password,
		SchoolID:   input.SchoolID.Raw,
		OfficeID:   input.OfficeID.Raw,
		PositionID: input.PositionID.Raw,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error registering user")
	}

	newUser := &entity.NewUser{
		Email:       input.Email,
		Password:    input.Password,
		Role:        input.Role.NonEmptyPtr(),
		Designation: input.Designation.NonEmptyPtr(),
	}
	// Validation guarantees the ids parse. Falsy values are stored as null.
	newUser.SchoolID, _ = input.SchoolID.NonZeroInt64()
	newUser.OfficeID, _ = input.OfficeID.NonZeroInt64()
	newUser.PositionID, _ = input.PositionID.NonZeroInt64()

	user, err := s.userRepo.Create(ctx, newUser)
	if err != nil {
		return nil, errors.Wrap(err, "error registering user")
	}

	s.log(ctx).Info("User registered", slog.Int64("userID", user.ID))
	s.publish(ctx, entity.UserEventRegistered, user)

	return &usecase.RegisterOutput{
		Success: true,
		Message: msgUserRegistered,
		User:    user,
	}, nil
}

// UpdateUser applies the keys present in input to the user identified by rawID.
func (s *userService) UpdateUser(ctx context.Context, rawID string, input usecase.UpdateUserInput) (*usecase.UpdateOutput, error) {
	id, err := parseUserID(rawID)
	if err != nil {
		return nil, errors.Wrap(err, "error updating user")
	}

	fields := validation.UpdateFields{
		SchoolID:   input.SchoolID.Raw,
		OfficeID:   input.OfficeID.Raw,
		PositionID: input.PositionID.Raw,
	}
	// A null email or password is validated as an empty value.
	if input.Email.Present {
		fields.Email = &input.Email.Value
	}
	if input.Password.Present {
		fields.Password = &input.Password.Value
	}
	if err := validation.ValidateUpdate(fields); err != nil {
		return nil, errors.Wrap(err, "error updating user")
	}

	user, err := s.userRepo.Update(ctx, id, toUserPatch(input))
	if err != nil {
		return nil, errors.Wrap(err, "error updating user")
	}

	s.publish(ctx, entity.UserEventUpdated, user)

	return &usecase.UpdateOutput{
		Success: true,
		Message: msgUserUpdated,
		User:    user,
	}, nil
}

// DeleteUser removes the user identified by rawID.
func (s *userService) DeleteUser(ctx context.Context, rawID string) (*usecase.DeleteOutput, error) {
	id, err := parseUserID(rawID)
	if err != nil {
		return nil, errors.Wrap(err, "error deleting user")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return nil, errors.Wrap(err, "error deleting user")
	}

	s.publish(ctx, entity.UserEventDeleted, &entity.User{ID: id})

	return &usecase.DeleteOutput{
		Success: true,
		Message: msgUserDeleted,
		UserID:  id,
	}, nil
}

// GetAllUsers lists every user.
func (s *userService) GetAllUsers(ctx context.Context) (*usecase.ListOutput, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error getting all users")
	}

	return &usecase.ListOutput{
		Success: true,
		Message: msgUsersFetched,
		Users:   users,
	}, nil
}

// publish emits a lifecycle event. Failures are logged only.
func (s *userService) publish(ctx context.Context, eventType entity.UserEventType, user *entity.User) {
	if s.publisher == nil || user == nil {
		return
	}

	event := entity.NewUserEvent(eventType, user.ID, user.Email, s.now().UTC())
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)

	if err := s.publisher.PublishUserEvent(ctx, event); err != nil {
		s.log(ctx).Warn("Failed to publish user event",
			slog.String("eventType", string(eventType)),
			slog.Int64("userID", user.ID),
			slog.Any("error", err))
	}
}

func (s *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

// parseUserID accepts only a base-10 integer.
func parseUserID(rawID string) (int64, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return 0, errors.WithStack(domainerrors.ErrUserIDRequired)
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, errors.WithStack(domainerrors.ErrInvalidUserID.WithDetails(map[string]string{"id": rawID}))
	}

	return id, nil
}

func toUserPatch(input usecase.UpdateUserInput) *entity.UserPatch {
	patch := &entity.UserPatch{
		Email:       stringField(input.Email),
		Password:    stringField(input.Password),
		Role:        stringField(input.Role),
		Designation: stringField(input.Designation),
		SchoolID:    idField(input.SchoolID),
		OfficeID:    idField(input.OfficeID),
		PositionID:  idField(input.PositionID),
	}

	return patch
}

func stringField(value usecase.OptionalString) entity.Field[string] {
	if !value.Present {
		return entity.Field[string]{}
	}
	if value.Null {
		return entity.ClearField[string]()
	}

	return entity.SetField(value.Value)
}

// idField expects a validated value; blank clears the column.
func idField(value usecase.IDField) entity.Field[int64] {
	if !value.Present {
		return entity.Field[int64]{}
	}

	parsed, err := value.Int64()
	if err != nil || parsed == nil {
		return entity.ClearField[int64]()
	}

	return entity.SetField(*parsed)
}
