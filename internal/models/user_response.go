package models

type UserResponse struct {
	Username string `json:"username"`
}

type VerifyTokenResponse struct {
	User UserResponse `json:"user"`
}
