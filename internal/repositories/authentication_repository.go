package repositories

import (
	"context"
	"errors"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/models"

	"gorm.io/gorm"
)

type AuthenticationRepository struct {
	db *gorm.DB
}

func NewAuthenticationRepository(db *gorm.DB) *AuthenticationRepository {
	return &AuthenticationRepository{
		db: db,
	}
}

func (ar *AuthenticationRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, []error) {
	var errors []error
	result := ar.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			errors = append(errors, errs.ErrUserAlreadyExists)
			return nil, errors
		}
		errors = append(errors, errs.NewStorageError("create user", result.Error))
		return nil, errors
	}
	if result.RowsAffected == 0 {
		errors = append(errors, errs.ErrUserNotFound)
		return nil, errors
	}
	return user, nil
}

// FindByUsername returns nil when no such user exists.
func (ar *AuthenticationRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := ar.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.NewStorageError("find user", err)
	}
	return &user, nil
}

func (ar *AuthenticationRepository) CheckIfUserExists(ctx context.Context, username string) (bool, error) {
	user, err := ar.FindByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
