package postgres

import (
	"context"
	"testing"
	"time"

	"emuss/internal/domain/entity"
	domainerrors "emuss/internal/domain/errors"
	"emuss/internal/domain/repository"
	"emuss/internal/domain/service"
	"emuss/internal/infra/auth"
	"emuss/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserRepositoryTestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *gorm.DB
	hasher service.PasswordHasher
	repo   repository.UserRepository
}

func TestUserRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}

func (s *UserRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.hasher = auth.NewBcryptHasherWithCost(bcrypt.MinCost)
	s.db = newTestDB(s.T())
	s.repo = NewUserRepository(s.db, s.hasher)
}

func (s *UserRepositoryTestSuite) create(email string) *entity.User {
	user, err := s.repo.Create(s.ctx, &entity.NewUser{Email: email, Password: "secret1"})
	s.Require().NoError(err)

	return user
}

// racingHasher inserts a user with email between the repository's email
// check and its write, the way a concurrent registration would.
type racingHasher struct {
	service.PasswordHasher
	db    *gorm.DB
	email string
	done  bool
}

func (h *racingHasher) Hash(password string) (string, error) {
	if !h.done {
		h.done = true
		if err := h.db.Create(&model.UserModel{Email: h.email, PasswordHash: "x"}).Error; err != nil {
			return "", err
		}
	}

	return h.PasswordHasher.Hash(password)
}

func (s *UserRepositoryTestSuite) racingRepo(email string) repository.UserRepository {
	return NewUserRepository(s.db, &racingHasher{PasswordHasher: s.hasher, db: s.db, email: email})
}

func int64Ptr(v int64) *int64    { return &v }
func stringPtr(v string) *string { return &v }

func (s *UserRepositoryTestSuite) TestCreate_AssignsIDAndHashesPassword() {
	user, err := s.repo.Create(s.ctx, &entity.NewUser{
		Email:      "a@x.io",
		Password:   "secret1",
		SchoolID:   int64Ptr(7),
		Role:       stringPtr("principal"),
		PositionID: nil,
	})
	s.Require().NoError(err)

	s.Positive(user.ID)
	s.Equal("a@x.io", user.Email)
	s.Equal(int64Ptr(7), user.SchoolID)
	s.Nil(user.OfficeID)
	s.Equal("principal", *user.Role)
	s.Nil(user.LastLogin)
	s.False(user.CreatedAt.IsZero())

	creds, err := s.repo.FindCredentials(s.ctx, "a@x.io")
	s.Require().NoError(err)
	s.NotEqual("secret1", creds.PasswordHash)
	s.True(s.hasher.Check("secret1", creds.PasswordHash))
}

func (s *UserRepositoryTestSuite) TestCreate_DuplicateEmailIsConflict() {
	first := s.create("a@x.io")

	_, err := s.repo.Create(s.ctx, &entity.NewUser{Email: "a@x.io", Password: "other12"})
	s.Require().Error(err)
	s.True(errors.Is(err, domainerrors.ErrUserAlreadyExists))
	s.Equal(domainerrors.KindConflict, domainerrors.KindOf(err))

	// The first account is untouched.
	creds, err := s.repo.FindCredentials(s.ctx, "a@x.io")
	s.Require().NoError(err)
	s.Equal(first.ID, creds.User.ID)
	s.True(s.hasher.Check("secret1", creds.PasswordHash))
}

func (s *UserRepositoryTestSuite) TestFind_Missing() {
	_, err := s.repo.FindByID(s.ctx, 404)
	s.ErrorIs(err, repository.ErrUserNotFound)

	_, err = s.repo.FindByEmail(s.ctx, "nobody@x.io")
	s.ErrorIs(err, repository.ErrUserNotFound)

	_, err = s.repo.FindCredentials(s.ctx, "nobody@x.io")
	s.ErrorIs(err, repository.ErrUserNotFound)
}

func (s *UserRepositoryTestSuite) TestCreate_UniqueIndexRaceIsConflict() {
	repo := s.racingRepo("race@x.io")

	_, err := repo.Create(s.ctx, &entity.NewUser{Email: "race@x.io", Password: "secret1"})
	s.Require().Error(err)
	s.True(errors.Is(err, domainerrors.ErrUserAlreadyExists))
	s.Equal(domainerrors.KindConflict, domainerrors.KindOf(err))

	var count int64
	s.Require().NoError(s.db.Model(&model.UserModel{}).Where("email = ?", "race@x.io").Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *UserRepositoryTestSuite) TestUpdate_RoundTrip() {
	user := s.create("a@x.io")

	updated, err := s.repo.Update(s.ctx, user.ID, &entity.UserPatch{
		Email:       entity.SetField("b@x.io"),
		OfficeID:    entity.SetField[int64](3),
		Designation: entity.SetField("Head"),
	})
	s.Require().NoError(err)
	s.Equal("b@x.io", updated.Email)
	s.Equal(int64Ptr(3), updated.OfficeID)
	s.Equal("Head", *updated.Designation)

	found, err := s.repo.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(updated.Email, found.Email)
	s.Equal(updated.OfficeID, found.OfficeID)
	s.Equal(updated.Designation, found.Designation)
}

func (s *UserRepositoryTestSuite) TestUpdate_UniqueIndexRaceIsConflict() {
	user := s.create("a@x.io")
	repo := s.racingRepo("race@x.io")

	_, err := repo.Update(s.ctx, user.ID, &entity.UserPatch{
		Email:    entity.SetField("race@x.io"),
		Password: entity.SetField("secret9"),
	})
	s.Require().Error(err)
	s.True(errors.Is(err, domainerrors.ErrEmailTaken))
	s.Equal(domainerrors.KindConflict, domainerrors.KindOf(err))

	found, err := s.repo.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("a@x.io", found.Email)
}

func (s *UserRepositoryTestSuite) TestUpdate_ClearsNullableFields() {
	user, err := s.repo.Create(s.ctx, &entity.NewUser{
		Email:    "a@x.io",
		Password: "secret1",
		SchoolID: int64Ptr(1),
		Role:     stringPtr("admin"),
	})
	s.Require().NoError(err)

	updated, err := s.repo.Update(s.ctx, user.ID, &entity.UserPatch{
		SchoolID: entity.ClearField[int64](),
		Role:     entity.ClearField[string](),
	})
	s.Require().NoError(err)
	s.Nil(updated.SchoolID)
	s.Nil(updated.Role)
	s.Equal("a@x.io", updated.Email)
}

func (s *UserRepositoryTestSuite) TestUpdate_PasswordIsRehashed() {
	user := s.create("a@x.io")

	_, err := s.repo.Update(s.ctx, user.ID, &entity.UserPatch{Password: entity.SetField("newpass1")})
	s.Require().NoError(err)

	creds, err := s.repo.FindCredentials(s.ctx, "a@x.io")
	s.Require().NoError(err)
	s.True(s.hasher.Check("newpass1", creds.PasswordHash))
	s.False(s.hasher.Check("secret1", creds.PasswordHash))
}

func (s *UserRepositoryTestSuite) TestUpdate_EmailOwnedByAnotherUser() {
	s.create("a@x.io")
	other := s.create("b@x.io")

	_, err := s.repo.Update(s.ctx, other.ID, &entity.UserPatch{Email: entity.SetField("a@x.io")})
	s.Require().Error(err)
	s.True(errors.Is(err, domainerrors.ErrEmailTaken))
}

func (s *UserRepositoryTestSuite) TestUpdate_SameEmailIsAllowed() {
	user := s.create("a@x.io")

	updated, err := s.repo.Update(s.ctx, user.ID, &entity.UserPatch{Email: entity.SetField("a@x.io")})
	s.Require().NoError(err)
	s.Equal("a@x.io", updated.Email)
}

func (s *UserRepositoryTestSuite) TestUpdate_EmptyPatch() {
	user := s.create("a@x.io")

	_, err := s.repo.Update(s.ctx, user.ID, &entity.UserPatch{})
	s.Require().Error(err)
	s.True(errors.Is(err, domainerrors.ErrNoFieldsToUpdate))
	s.Equal(domainerrors.KindValidation, domainerrors.KindOf(err))
}

func (s *UserRepositoryTestSuite) TestUpdate_MissingUser() {
	_, err := s.repo.Update(s.ctx, 999, &entity.UserPatch{Role: entity.SetField("x")})
	s.Require().Error(err)
	s.True(errors.Is(err, domainerrors.ErrUserNotFound))
	s.Equal(domainerrors.KindNotFound, domainerrors.KindOf(err))
}

func (s *UserRepositoryTestSuite) TestDelete() {
	user := s.create("a@x.io")

	s.Require().NoError(s.repo.Delete(s.ctx, user.ID))

	_, err := s.repo.FindByID(s.ctx, user.ID)
	s.ErrorIs(err, repository.ErrUserNotFound)

	err = s.repo.Delete(s.ctx, user.ID)
	s.Require().Error(err)
	s.True(errors.Is(err, domainerrors.ErrUserNotFound))
}

func (s *UserRepositoryTestSuite) TestTouchLastLogin() {
	user := s.create("a@x.io")
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.repo.TouchLastLogin(s.ctx, user.ID, at))

	found, err := s.repo.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.LastLogin)
	s.True(at.Equal(*found.LastLogin))

	s.ErrorIs(s.repo.TouchLastLogin(s.ctx, 999, at), repository.ErrUserNotFound)
}

func (s *UserRepositoryTestSuite) TestListAll_OrderedByID() {
	users, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)

	c := s.create("c@x.io")
	a := s.create("a@x.io")
	b := s.create("b@x.io")

	users, err = s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal([]int64{c.ID, a.ID, b.ID}, []int64{users[0].ID, users[1].ID, users[2].ID})
}

func TestToUserDomain(t *testing.T) {
	assert.Nil(t, toUserDomain(nil))

	now := time.Now()
	user := toUserDomain(&model.UserModel{
		ID:           5,
		Email:        "a@x.io",
		PasswordHash: "hash",
		PositionID:   int64Ptr(9),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NotNil(t, user)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, int64Ptr(9), user.PositionID)
	assert.Equal(t, now, user.CreatedAt)
}
