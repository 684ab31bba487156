package utils

import (
	"errors"
	"fmt"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/models"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

func CompareHashAndPassword(hashedPassword string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func CreateJwtToken(username string, secretKey []byte, expiration time.Time) (string, error) {
	if len(secretKey) == 0 {
		return "", errs.ErrMissingSecret
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		models.Claims{
			Username: username,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   username,
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(expiration),
			},
		})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken checks signature, algorithm and expiry. Every failure maps to an authentication error.
func VerifyToken(tokenString string, secretKey []byte) (*models.Claims, error) {
	if tokenString == "" {
		return nil, errs.ErrUnauthorized
	}
	if len(secretKey) == 0 {
		return nil, errs.ErrMissingSecret
	}

	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", errs.ErrTokenExpired, errs.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidToken, errs.ErrUnauthorized)
	}

	if !token.Valid || claims.Username == "" {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidToken, errs.ErrUnauthorized)
	}

	return claims, nil
}

// BearerToken strips an optional "Bearer " prefix.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
