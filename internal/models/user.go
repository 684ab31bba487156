package models

import (
	"gorm.io/gorm"
)

// User is an account that can obtain session credentials.
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	Password     string `gorm:"-" json:"password,omitempty"`
}

func (user *User) ToUserResponse() *UserResponse {
	return &UserResponse{
		Username: user.Username,
	}
}
