package impl

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	deliverycontext "emuss/internal/delivery/context"
	"emuss/internal/domain/entity"
	domainerrors "emuss/internal/domain/errors"
	"emuss/internal/domain/repository"
	"emuss/internal/domain/validation"
	mockRepo "emuss/internal/mocks/repository"
	mockSvc "emuss/internal/mocks/service"
	"emuss/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

// userServiceFixtures holds all test dependencies for user service tests.
type userServiceFixtures struct {
	service   usecase.UserUsecase
	userRepo  *mockRepo.MockUserRepository
	hasher    *mockSvc.MockPasswordHasher
	publisher *mockSvc.MockEventPublisher
}

func createTestUserService(t *testing.T) userServiceFixtures {
	userRepo := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	publisher := mockSvc.NewMockEventPublisher(t)

	svc := NewUserService(UserServiceParams{
		UserRepo:  userRepo,
		Hasher:    hasher,
		Publisher: publisher,
		Logger:    newDiscardLogger(),
	})
	svc.(*userService).now = fixedClock(testNow)

	return userServiceFixtures{
		service:   svc,
		userRepo:  userRepo,
		hasher:    hasher,
		publisher: publisher,
	}
}

func eventOfType(eventType entity.UserEventType, userID int64) any {
	return mock.MatchedBy(func(event *entity.UserEvent) bool {
		return event.Type == eventType && event.UserID == userID && event.ID != ""
	})
}

func TestUserService_Authenticate_Success(t *testing.T) {
	fx := createTestUserService(t)
	ctx := deliverycontext.WithRequestID(context.Background(), "req-42")

	user := newTestUser(1, "a@x.io")
	fx.userRepo.EXPECT().FindCredentials(ctx, "a@x.io").
		Return(&entity.Credentials{User: user, PasswordHash: "hashed"}, nil)
	fx.hasher.EXPECT().Check("secret1", "hashed").Return(true)
	fx.userRepo.EXPECT().TouchLastLogin(ctx, int64(1), testNow).Return(nil)
	fx.publisher.EXPECT().
		PublishUserEvent(ctx, mock.MatchedBy(func(event *entity.UserEvent) bool {
			return event.Type == entity.UserEventAuthenticated && event.RequestID == "req-42"
		})).
		Return(nil)

	output, err := fx.service.Authenticate(ctx, usecase.LoginInput{Email: "a@x.io", Password: "secret1"})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, "Login successful", output.Message)
	require.NotNil(t, output.User.LastLogin)
	assert.Equal(t, testNow, *output.User.LastLogin)
}

func TestUserService_Authenticate_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindCredentials(ctx, "ghost@x.io").Return(nil, repository.ErrUserNotFound)

	_, unknownErr := fx.service.Authenticate(ctx, usecase.LoginInput{Email: "ghost@x.io", Password: "secret1"})

	fx.userRepo.EXPECT().FindCredentials(ctx, "a@x.io").
		Return(&entity.Credentials{User: newTestUser(1, "a@x.io"), PasswordHash: "hashed"}, nil)
	fx.hasher.EXPECT().Check("wrong", "hashed").Return(false)

	_, wrongErr := fx.service.Authenticate(ctx, usecase.LoginInput{Email: "a@x.io", Password: "wrong"})

	for _, err := range []error{unknownErr, wrongErr} {
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
		assert.Equal(t, domainerrors.KindAuthentication, domainerrors.KindOf(err))
	}
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestUserService_Authenticate_StorageFailure(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindCredentials(ctx, "a@x.io").Return(nil, errors.New("connection reset"))

	_, err := fx.service.Authenticate(ctx, usecase.LoginInput{Email: "a@x.io", Password: "secret1"})

	require.Error(t, err)
	assert.Equal(t, domainerrors.KindInternal, domainerrors.KindOf(err))
	assert.Contains(t, err.Error(), "error authenticating user")
}

func TestUserService_RegisterUser_Success(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	input := usecase.RegisterUserInput{
		Email:      "a@x.io",
		Password:   "secret1",
		SchoolID:   usecase.NewIDField("12"),
		OfficeID:   usecase.NewIDField(""),
		Role:       usecase.NewOptionalString("principal"),
		PositionID: usecase.IDField{},
	}

	fx.userRepo.EXPECT().
		Create(ctx, mock.AnythingOfType("*entity.NewUser")).
		RunAndReturn(func(_ context.Context, newUser *entity.NewUser) (*entity.User, error) {
			assert.Equal(t, "secret1", newUser.Password)
			require.NotNil(t, newUser.SchoolID)
			assert.Equal(t, int64(12), *newUser.SchoolID)
			assert.Nil(t, newUser.OfficeID)
			assert.Nil(t, newUser.PositionID)
			assert.Equal(t, "principal", *newUser.Role)
			assert.Nil(t, newUser.Designation)

			user := newTestUser(7, newUser.Email)
			user.SchoolID = newUser.SchoolID
			user.Role = newUser.Role

			return user, nil
		})
	fx.publisher.EXPECT().PublishUserEvent(ctx, eventOfType(entity.UserEventRegistered, 7)).Return(nil)

	output, err := fx.service.RegisterUser(ctx, input)

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, "User registered successfully", output.Message)
	assert.Equal(t, int64(7), output.User.ID)
}

func TestUserService_RegisterUser_FalsyValuesStoredAsNull(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	var input usecase.RegisterUserInput
	require.NoError(t, json.Unmarshal(
		[]byte(`{"email":"a@x.io","password":"secret1","schoolId":0,"officeId":"0","role":"","designation":""}`),
		&input,
	))

	fx.userRepo.EXPECT().
		Create(ctx, mock.AnythingOfType("*entity.NewUser")).
		RunAndReturn(func(_ context.Context, newUser *entity.NewUser) (*entity.User, error) {
			assert.Nil(t, newUser.SchoolID)
			assert.Nil(t, newUser.OfficeID)
			assert.Nil(t, newUser.PositionID)
			assert.Nil(t, newUser.Role)
			assert.Nil(t, newUser.Designation)

			return newTestUser(8, newUser.Email), nil
		})
	fx.publisher.EXPECT().PublishUserEvent(ctx, eventOfType(entity.UserEventRegistered, 8)).Return(nil)

	_, err := fx.service.RegisterUser(ctx, input)

	require.NoError(t, err)
}

func TestUserService_RegisterUser_ValidationStopsBeforeStorage(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.RegisterUserInput
		want  error
	}{
		{"missing password", usecase.RegisterUserInput{Email: "a@x.io"}, validation.ErrCredentialsRequired},
		{"bad email", usecase.RegisterUserInput{Email: "bad", Password: "123456"}, validation.ErrInvalidEmail},
		{"short password", usecase.RegisterUserInput{Email: "a@b.com", Password: "123"}, validation.ErrPasswordTooShort},
		{
			"non-numeric office",
			usecase.RegisterUserInput{Email: "a@b.com", Password: "123456", OfficeID: usecase.NewIDField("abc")},
			validation.ErrInvalidOfficeID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No repository expectations: any storage call fails the test.
			fx := createTestUserService(t)

			_, err := fx.service.RegisterUser(context.Background(), tt.input)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.Equal(t, domainerrors.KindValidation, domainerrors.KindOf(err))
		})
	}
}

func TestUserService_RegisterUser_Conflict(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().Create(ctx, mock.Anything).
		Return(nil, domainerrors.ErrUserAlreadyExists.WrapMessage("email pre-check"))

	_, err := fx.service.RegisterUser(ctx, usecase.RegisterUserInput{Email: "a@x.io", Password: "secret1"})

	require.Error(t, err)
	assert.Equal(t, domainerrors.KindConflict, domainerrors.KindOf(err))
	assert.Contains(t, err.Error(), "error registering user")
}

func TestUserService_RegisterUser_PublishFailureIsIgnored(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().Create(ctx, mock.Anything).Return(newTestUser(3, "a@x.io"), nil)
	fx.publisher.EXPECT().PublishUserEvent(ctx, mock.Anything).Return(errors.New("broker down"))

	output, err := fx.service.RegisterUser(ctx, usecase.RegisterUserInput{Email: "a@x.io", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), output.User.ID)
}

func TestUserService_UpdateUser_IDChecks(t *testing.T) {
	tests := []struct {
		name  string
		rawID string
		want  error
	}{
		{"empty", "", domainerrors.ErrUserIDRequired},
		{"blank", "  ", domainerrors.ErrUserIDRequired},
		{"letters", "abc", domainerrors.ErrInvalidUserID},
		{"trailing garbage", "12abc", domainerrors.ErrInvalidUserID},
		{"decimal", "1.5", domainerrors.ErrInvalidUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestUserService(t)

			_, err := fx.service.UpdateUser(context.Background(), tt.rawID, usecase.UpdateUserInput{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.Equal(t, domainerrors.KindInvalidID, domainerrors.KindOf(err))

			_, err = fx.service.DeleteUser(context.Background(), tt.rawID)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestUserService_UpdateUser_BuildsPatch(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	input := usecase.UpdateUserInput{
		Email:       usecase.NewOptionalString("b@x.io"),
		SchoolID:    usecase.NewIDField(""),
		OfficeID:    usecase.NewIDField("4"),
		Designation: usecase.OptionalString{Present: true, Null: true},
	}

	updated := newTestUser(5, "b@x.io")
	fx.userRepo.EXPECT().
		Update(ctx, int64(5), mock.AnythingOfType("*entity.UserPatch")).
		Run(func(_ context.Context, _ int64, patch *entity.UserPatch) {
			assert.Equal(t, entity.SetField("b@x.io"), patch.Email)
			assert.Equal(t, entity.ClearField[int64](), patch.SchoolID)
			assert.Equal(t, entity.SetField[int64](4), patch.OfficeID)
			assert.Equal(t, entity.ClearField[string](), patch.Designation)
			assert.False(t, patch.Password.Set)
			assert.False(t, patch.PositionID.Set)
			assert.False(t, patch.Role.Set)
		}).
		Return(updated, nil)
	fx.publisher.EXPECT().PublishUserEvent(ctx, eventOfType(entity.UserEventUpdated, 5)).Return(nil)

	output, err := fx.service.UpdateUser(ctx, "5", input)

	require.NoError(t, err)
	assert.Equal(t, "User updated successfully", output.Message)
	assert.Equal(t, updated, output.User)
}

func TestUserService_UpdateUser_RejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.UpdateUserInput
		want  error
	}{
		{"bad email", usecase.UpdateUserInput{Email: usecase.NewOptionalString("nope")}, validation.ErrInvalidEmail},
		{"null email", usecase.UpdateUserInput{Email: usecase.OptionalString{Present: true, Null: true}}, validation.ErrInvalidEmail},
		{"short password", usecase.UpdateUserInput{Password: usecase.NewOptionalString("123")}, validation.ErrPasswordTooShort},
		{"bad position", usecase.UpdateUserInput{PositionID: usecase.NewIDField("x1")}, validation.ErrInvalidPositionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestUserService(t)

			_, err := fx.service.UpdateUser(context.Background(), "1", tt.input)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestUserService_UpdateUser_EmptyPatchReachesRepository(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().
		Update(ctx, int64(1), mock.MatchedBy(func(patch *entity.UserPatch) bool { return patch.IsEmpty() })).
		Return(nil, errors.WithStack(domainerrors.ErrNoFieldsToUpdate))

	_, err := fx.service.UpdateUser(ctx, "1", usecase.UpdateUserInput{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrNoFieldsToUpdate))
}

func TestUserService_DeleteUser(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().Delete(ctx, int64(9)).Return(nil)
	fx.publisher.EXPECT().PublishUserEvent(ctx, eventOfType(entity.UserEventDeleted, 9)).Return(nil)

	output, err := fx.service.DeleteUser(ctx, "9")

	require.NoError(t, err)
	assert.Equal(t, &usecase.DeleteOutput{Success: true, Message: "User deleted successfully", UserID: 9}, output)
}

func TestUserService_DeleteUser_NotFound(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().Delete(ctx, int64(404)).Return(domainerrors.ErrUserNotFound.WrapMessage("delete"))

	_, err := fx.service.DeleteUser(ctx, "404")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
	assert.Equal(t, domainerrors.KindNotFound, domainerrors.KindOf(err))
}

func TestUserService_GetAllUsers(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	users := []*entity.User{newTestUser(1, "a@x.io"), newTestUser(2, "b@x.io")}
	fx.userRepo.EXPECT().ListAll(ctx).Return(users, nil)

	output, err := fx.service.GetAllUsers(ctx)

	require.NoError(t, err)
	assert.Equal(t, "Users fetched successfully", output.Message)
	assert.Equal(t, users, output.Users)
}

func TestUserService_GetAllUsers_Error(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().ListAll(ctx).Return(nil, errors.New("db down"))

	_, err := fx.service.GetAllUsers(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error getting all users")
}
