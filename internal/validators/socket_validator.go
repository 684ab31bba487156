package validators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/models"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// DecodeJoinRoom parses and validates a joinRoom payload.
func DecodeJoinRoom(raw json.RawMessage) (*models.JoinRoomPayload, error) {
	var payload models.JoinRoomPayload
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	if err := getValidator().Struct(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidRoomId, err)
	}
	return &payload, nil
}

// DecodeCanvas parses and validates a canvas payload. A JSON null message is rejected.
func DecodeCanvas(raw json.RawMessage) (*models.CanvasPayload, error) {
	var payload models.CanvasPayload
	if err := decode(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Room == "" {
		return nil, errs.ErrInvalidRoomId
	}
	if bytes.Equal(bytes.TrimSpace(payload.Message), []byte("null")) {
		payload.Message = nil
	}
	if err := getValidator().Struct(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidPayload, err)
	}
	return &payload, nil
}

func decode(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errs.ErrInvalidPayload
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidPayload, err)
	}
	return nil
}
