package postgres

import (
	"context"
	"time"

	"emuss/internal/domain/entity"
	domainerrors "emuss/internal/domain/errors"
	"emuss/internal/domain/repository"
	"emuss/internal/domain/service"
	"emuss/internal/domain/validation"
	"emuss/internal/infra/persistence/model"

	"emuss/internal/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

var (
	errMissingUserField = domainerrors.Validation("Missing required user information")
	errDanglingRef      = domainerrors.Validation("Foreign key constraint violation")
)

// userRepository implements repository.UserRepository using GORM.
type userRepository struct {
	db     *gorm.DB
	hasher service.PasswordHasher
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB, hasher service.PasswordHasher) repository.UserRepository {
	return &userRepository{
		db:     db,
		hasher: hasher,
	}
}

// FindByID retrieves a single user by id.
func (repo *userRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	userM, err := repo.first(ctx, false, "id = ?", id)
	if err != nil {
		return nil, err
	}

	return toUserDomain(userM), nil
}

// FindByEmail retrieves a single user by email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	userM, err := repo.first(ctx, false, "email = ?", email)
	if err != nil {
		return nil, err
	}

	return toUserDomain(userM), nil
}

// FindCredentials is the only read that exposes the password hash.
func (repo *userRepository) FindCredentials(ctx context.Context, email string) (*entity.Credentials, error) {
	userM, err := repo.first(ctx, false, "email = ?", email)
	if err != nil {
		return nil, err
	}

	return &entity.Credentials{
		User:         toUserDomain(userM),
		PasswordHash: userM.PasswordHash,
	}, nil
}

// Create checks the email on the primary, hashes the password and inserts.
// The unique index catches registrations racing past the pre-check.
func (repo *userRepository) Create(ctx context.Context, user *entity.NewUser) (*entity.User, error) {
	taken, err := repo.emailTaken(ctx, user.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("email pre-check")
	}

	hash, err := repo.hasher.Hash(user.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	userM := &model.UserModel{
		Email:        user.Email,
		PasswordHash: hash,
		SchoolID:     user.SchoolID,
		OfficeID:     user.OfficeID,
		PositionID:   user.PositionID,
		Role:         user.Role,
		Designation:  user.Designation,
	}

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		return nil, translateWriteError(err, domainerrors.ErrUserAlreadyExists, "failed to create user")
	}

	return toUserDomain(userM), nil
}

// Update applies patch to an existing user. The order of checks is: existence,
// email ownership, password hashing, emptiness.
func (repo *userRepository) Update(ctx context.Context, id int64, patch *entity.UserPatch) (*entity.User, error) {
	current, err := repo.first(ctx, true, "id = ?", id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("update")
	}
	if err != nil {
		return nil, err
	}

	if patch == nil {
		patch = &entity.UserPatch{}
	}

	updates := make(map[string]any)

	if patch.Email.Set {
		if patch.Email.Value == nil {
			return nil, errors.WithStack(validation.ErrInvalidEmail)
		}
		email := *patch.Email.Value
		if email != current.Email {
			taken, err := repo.emailTaken(ctx, email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, domainerrors.ErrEmailTaken.WrapMessage("email ownership check")
			}
		}
		updates["email"] = email
	}

	if patch.Password.Set {
		if patch.Password.Value == nil {
			return nil, errors.WithStack(validation.ErrPasswordTooShort)
		}
		hash, err := repo.hasher.Hash(*patch.Password.Value)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash password")
		}
		updates["password_hash"] = hash
	}

	setNullable(updates, "school_id", patch.SchoolID)
	setNullable(updates, "office_id", patch.OfficeID)
	setNullable(updates, "position_id", patch.PositionID)
	setNullable(updates, "role", patch.Role)
	setNullable(updates, "designation", patch.Designation)

	if len(updates) == 0 {
		return nil, errors.WithStack(domainerrors.ErrNoFieldsToUpdate)
	}

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, translateWriteError(result.Error, domainerrors.ErrEmailTaken, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("update raced with delete")
	}

	updated, err := repo.first(ctx, true, "id = ?", id)
	if err != nil {
		return nil, err
	}

	return toUserDomain(updated), nil
}

// Delete removes the user.
func (repo *userRepository) Delete(ctx context.Context, id int64) error {
	result := repo.db.WithContext(ctx).Delete(&model.UserModel{}, id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound.WrapMessage("delete")
	}

	return nil
}

// TouchLastLogin stamps last_login without touching other columns.
func (repo *userRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update last login")
	}
	if result.RowsAffected == 0 {
		return errors.WithStack(repository.ErrUserNotFound)
	}

	return nil
}

// ListAll returns every user ordered by id.
func (repo *userRepository) ListAll(ctx context.Context) ([]*entity.User, error) {
	var userMs []*model.UserModel
	if err := repo.db.WithContext(ctx).Order("id ASC").Find(&userMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(userMs))
	for _, userM := range userMs {
		users = append(users, toUserDomain(userM))
	}

	return users, nil
}

// first loads one row. onPrimary pins the read to the primary so uniqueness
// and existence checks never see replica lag.
func (repo *userRepository) first(ctx context.Context, onPrimary bool, query string, args ...any) (*model.UserModel, error) {
	db := repo.db.WithContext(ctx)
	if onPrimary {
		db = db.Clauses(dbresolver.Write)
	}

	var userM model.UserModel
	if err := db.Where(query, args...).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return &userM, nil
}

// emailTaken reports whether a user other than exceptID owns email.
func (repo *userRepository) emailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Model(&model.UserModel{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check email uniqueness")
	}

	return count > 0, nil
}

// translateWriteError maps constraint violations to domain errors and keeps
// everything else as a wrapped storage error for the classifier.
func translateWriteError(err error, onUnique *domainerrors.BaseError, msg string) error {
	switch {
	case isUniqueConstraintViolation(err):
		return onUnique.WrapMessage(msg + ": " + err.Error())
	case isNotNullConstraintViolation(err), isCheckConstraintViolation(err):
		return errMissingUserField.WrapMessage(msg + ": " + err.Error())
	case isForeignKeyConstraintViolation(err):
		return errDanglingRef.WrapMessage(msg + ": " + err.Error())
	default:
		return errors.Wrap(err, msg)
	}
}

func setNullable[T any](updates map[string]any, column string, field entity.Field[T]) {
	if !field.Set {
		return
	}
	if field.Value == nil {
		updates[column] = nil

		return
	}
	updates[column] = *field.Value
}

// --- Mapper Functions ---

// toUserDomain converts a UserModel to a User. The hash is never copied.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:          data.ID,
		Email:       data.Email,
		SchoolID:    data.SchoolID,
		OfficeID:    data.OfficeID,
		PositionID:  data.PositionID,
		Role:        data.Role,
		Designation: data.Designation,
		LastLogin:   data.LastLogin,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
