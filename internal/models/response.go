package models

// Response is the envelope of every REST reply.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  []error     `json:"errors,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
