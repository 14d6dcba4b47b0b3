// Package validation holds the pure field checks applied to user payloads
// before they reach storage.
package validation

import (
	"regexp"
	"strconv"

	domainerrors "emuss/internal/domain/errors"

	"github.com/go-playground/validator/v10"
)

const (
	tagEmailShape = "emailshape"
	tagInteger    = "integer"

	MinPasswordLength = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrCredentialsRequired = domainerrors.Validation("Email and password are required")
	ErrInvalidEmail        = domainerrors.Validation("Invalid email format")
	ErrPasswordTooShort    = domainerrors.Validation("Password must be at least 6 characters long")
	ErrInvalidSchoolID     = domainerrors.Validation("School ID must be a valid number")
	ErrInvalidOfficeID     = domainerrors.Validation("Office ID must be a valid number")
	ErrInvalidPositionID   = domainerrors.Validation("Position ID must be a valid number")
)

// RegistrationFields is the registration payload as received. Ids are raw
// text; an empty string means the key was absent, null or "".
type RegistrationFields struct {
	Email      string
	Password   string
	SchoolID   string
	OfficeID   string
	PositionID string
}

// UpdateFields is a partial payload. Nil pointers are absent keys.
type UpdateFields struct {
	Email      *string
	Password   *string
	SchoolID   string
	OfficeID   string
	PositionID string
}

// Validator runs the user field rules.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails on an empty tag name or nil func.
	_ = v.RegisterValidation(tagEmailShape, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(tagInteger, func(fl validator.FieldLevel) bool {
		_, err := strconv.ParseInt(fl.Field().String(), 10, 64)

		return err == nil
	})

	return &Validator{validate: v}
}

var defaultValidator = New()

// ValidateRegistration checks a registration payload with the default Validator.
func ValidateRegistration(fields RegistrationFields) error {
	return defaultValidator.ValidateRegistration(fields)
}

// ValidateUpdate checks an update payload with the default Validator.
func ValidateUpdate(fields UpdateFields) error {
	return defaultValidator.ValidateUpdate(fields)
}

// ValidateRegistration applies the rules in order; the first failure wins.
func (v *Validator) ValidateRegistration(fields RegistrationFields) error {
	if v.fails(fields.Email, "required") || v.fails(fields.Password, "required") {
		return ErrCredentialsRequired
	}

	if err := v.checkEmail(fields.Email); err != nil {
		return err
	}

	if err := v.checkPassword(fields.Password); err != nil {
		return err
	}

	return v.checkIDs(fields.SchoolID, fields.OfficeID, fields.PositionID)
}

// ValidateUpdate re-checks only the fields present in the patch.
func (v *Validator) ValidateUpdate(fields UpdateFields) error {
	if fields.Email != nil {
		if err := v.checkEmail(*fields.Email); err != nil {
			return err
		}
	}

	if fields.Password != nil {
		if err := v.checkPassword(*fields.Password); err != nil {
			return err
		}
	}

	return v.checkIDs(fields.SchoolID, fields.OfficeID, fields.PositionID)
}

func (v *Validator) checkEmail(email string) error {
	if v.fails(email, tagEmailShape) {
		return ErrInvalidEmail
	}

	return nil
}

func (v *Validator) checkPassword(password string) error {
	if v.fails(password, "min="+strconv.Itoa(MinPasswordLength)) {
		return ErrPasswordTooShort
	}

	return nil
}

func (v *Validator) checkIDs(schoolID, officeID, positionID string) error {
	checks := []struct {
		raw string
		err error
	}{
		{schoolID, ErrInvalidSchoolID},
		{officeID, ErrInvalidOfficeID},
		{positionID, ErrInvalidPositionID},
	}

	for _, check := range checks {
		if v.fails(check.raw, "omitempty,"+tagInteger) {
			return check.err
		}
	}

	return nil
}

func (v *Validator) fails(value any, tag string) bool {
	return v.validate.Var(value, tag) != nil
}
