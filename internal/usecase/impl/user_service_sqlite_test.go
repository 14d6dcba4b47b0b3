package impl

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	domainerrors "emuss/internal/domain/errors"
	"emuss/internal/domain/repository"
	"emuss/internal/infra/auth"
	"emuss/internal/infra/persistence/model"
	"emuss/internal/infra/persistence/postgres"
	"emuss/internal/infra/pubsub"
	"emuss/internal/usecase"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteUserService wires the service to a real repository on an
// in-memory database.
func newSQLiteUserService(t *testing.T) (usecase.UserUsecase, repository.UserRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.UserModel{}))

	hasher := auth.NewBcryptHasherWithCost(bcrypt.MinCost)
	repo := postgres.NewUserRepository(db, hasher)
	svc := NewUserService(UserServiceParams{
		UserRepo:  repo,
		Hasher:    hasher,
		Publisher: pubsub.NewNoopPublisher(),
		Logger:    newDiscardLogger(),
	})

	return svc, repo
}

func register(t *testing.T, svc usecase.UserUsecase, email, password string) *usecase.RegisterOutput {
	t.Helper()

	output, err := svc.RegisterUser(context.Background(), usecase.RegisterUserInput{Email: email, Password: password})
	require.NoError(t, err)

	return output
}

func TestUserServiceSQLite_RegisterOnceThenConflict(t *testing.T) {
	svc, _ := newSQLiteUserService(t)

	register(t, svc, "a@x.io", "secret1")

	_, err := svc.RegisterUser(context.Background(), usecase.RegisterUserInput{Email: "a@x.io", Password: "secret2"})
	require.Error(t, err)
	assert.Equal(t, domainerrors.KindConflict, domainerrors.KindOf(err))
}

func TestUserServiceSQLite_InvalidRegistrationWritesNothing(t *testing.T) {
	svc, repo := newSQLiteUserService(t)
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, usecase.RegisterUserInput{Email: "bad", Password: "123456"})
	require.Error(t, err)

	_, err = svc.RegisterUser(ctx, usecase.RegisterUserInput{Email: "a@b.com", Password: "123"})
	require.Error(t, err)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserServiceSQLite_Authenticate(t *testing.T) {
	svc, _ := newSQLiteUserService(t)
	ctx := context.Background()

	register(t, svc, "a@x.io", "secret1")

	_, err := svc.Authenticate(ctx, usecase.LoginInput{Email: "a@x.io", Password: "wrong12"})
	assert.Equal(t, domainerrors.KindAuthentication, domainerrors.KindOf(err))

	_, err = svc.Authenticate(ctx, usecase.LoginInput{Email: "ghost@x.io", Password: "secret1"})
	assert.Equal(t, domainerrors.KindAuthentication, domainerrors.KindOf(err))

	output, err := svc.Authenticate(ctx, usecase.LoginInput{Email: "a@x.io", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, output.User.LastLogin)

	body, err := json.Marshal(output)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "$2a$")
}

func TestUserServiceSQLite_RoundTrip(t *testing.T) {
	svc, repo := newSQLiteUserService(t)
	ctx := context.Background()

	created, err := svc.RegisterUser(ctx, usecase.RegisterUserInput{
		Email:       "a@x.io",
		Password:    "secret1",
		SchoolID:    usecase.NewIDField("3"),
		Designation: usecase.NewOptionalString("Clerk"),
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.User.ID)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, found.ID)
	assert.Equal(t, created.User.Email, found.Email)
	assert.Equal(t, created.User.SchoolID, found.SchoolID)
	assert.Equal(t, created.User.Designation, found.Designation)
	assert.True(t, created.User.CreatedAt.Equal(found.CreatedAt))
}

func TestUserServiceSQLite_EmptyUpdate(t *testing.T) {
	svc, _ := newSQLiteUserService(t)
	created := register(t, svc, "a@x.io", "secret1")

	_, err := svc.UpdateUser(context.Background(), "1", usecase.UpdateUserInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrNoFieldsToUpdate))
	assert.Equal(t, int64(1), created.User.ID)
}

func TestUserServiceSQLite_Delete(t *testing.T) {
	svc, repo := newSQLiteUserService(t)
	ctx := context.Background()

	_, err := svc.DeleteUser(ctx, "999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))

	created := register(t, svc, "a@x.io", "secret1")

	_, err = svc.DeleteUser(ctx, "1")
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, created.User.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserServiceSQLite_GetAllUsersIsIdempotent(t *testing.T) {
	svc, _ := newSQLiteUserService(t)
	ctx := context.Background()

	register(t, svc, "b@x.io", "secret1")
	register(t, svc, "a@x.io", "secret1")

	emails := func() []string {
		output, err := svc.GetAllUsers(ctx)
		require.NoError(t, err)

		out := make([]string, 0, len(output.Users))
		for _, user := range output.Users {
			out = append(out, user.Email)
		}
		sort.Strings(out)

		return out
	}

	first := emails()
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, first)
	assert.Equal(t, first, emails())
}
