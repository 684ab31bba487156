package interfaces

import "socketWhiteboard/internal/models"

type TokenVerifier interface {
	VerifyToken(token string) (*models.Claims, error)
}
