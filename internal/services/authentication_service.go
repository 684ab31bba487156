package services

import (
	"context"
	"socketWhiteboard/configs"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/models"
	"socketWhiteboard/internal/repositories"
	"socketWhiteboard/internal/utils"
	"socketWhiteboard/internal/validators"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AuthenticationService issues and verifies session credentials.
type AuthenticationService struct {
	authRepo *repositories.AuthenticationRepository
	config   *configs.Config
}

func NewAuthenticationService(
	authRepo *repositories.AuthenticationRepository,
	config *configs.Config,
) *AuthenticationService {
	return &AuthenticationService{
		authRepo: authRepo,
		config:   config,
	}
}

func (as *AuthenticationService) Register(ctx context.Context, body *models.CredentialsRequestBody) (*models.TokenResponse, []error) {
	var errors []error
	validationErrs := validators.ValidateCredentials(body)
	if len(validationErrs) > 0 {
		errors = append(errors, validationErrs...)
		return nil, errors
	}
	username := strings.TrimSpace(body.Username)

	exists, err := as.authRepo.CheckIfUserExists(ctx, username)
	if err != nil {
		errors = append(errors, err)
		return nil, errors
	}
	if exists {
		errors = append(errors, errs.ErrUserAlreadyExists)
		return nil, errors
	}

	password, err := utils.HashPassword(body.Password)
	if err != nil {
		errors = append(errors, err)
		return nil, errors
	}
	user := &models.User{
		Username:     username,
		PasswordHash: password,
	}
	if _, createErrs := as.authRepo.CreateUser(ctx, user); len(createErrs) > 0 {
		return nil, createErrs
	}

	return as.issueToken(user.Username)
}

func (as *AuthenticationService) Login(ctx context.Context, body *models.CredentialsRequestBody) (*models.TokenResponse, []error) {
	var errors []error

	user, err := as.authRepo.FindByUsername(ctx, strings.TrimSpace(body.Username))
	if err != nil {
		errors = append(errors, err)
		return nil, errors
	}
	if user == nil {
		errors = append(errors, errs.ErrInvalidCredentials)
		return nil, errors
	}
	if err := utils.CompareHashAndPassword(user.PasswordHash, body.Password); err != nil {
		errors = append(errors, errs.ErrInvalidCredentials)
		return nil, errors
	}

	return as.issueToken(user.Username)
}

func (as *AuthenticationService) VerifyToken(token string) (*models.Claims, error) {
	return utils.VerifyToken(token, as.jwtKey())
}

func (as *AuthenticationService) issueToken(username string) (*models.TokenResponse, []error) {
	expiration := time.Now().Add(time.Duration(as.config.Viper.GetInt("jwt.expiration_time")) * time.Second)
	token, err := utils.CreateJwtToken(username, as.jwtKey(), expiration)
	if err != nil {
		logrus.WithError(err).WithField("user", username).Error("failed to sign token")
		return nil, []error{err}
	}
	return &models.TokenResponse{Token: token}, nil
}

func (as *AuthenticationService) jwtKey() []byte {
	return []byte(as.config.Viper.GetString("jwt.secret"))
}
