package repositories

import (
	"context"
	"errors"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WhiteboardRepository struct {
	db *gorm.DB
}

func NewWhiteboardRepository(db *gorm.DB) *WhiteboardRepository {
	return &WhiteboardRepository{
		db: db,
	}
}

func (wr *WhiteboardRepository) Get(ctx context.Context, roomID string) (*models.Whiteboard, bool, error) {
	var whiteboard models.Whiteboard
	err := wr.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Take(&whiteboard).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, errs.NewStorageError("get whiteboard", err)
	}
	return &whiteboard, true, nil
}

// Upsert is a single INSERT ... ON CONFLICT statement, so two first writers to a new room cannot
// both insert and the stored data is always one caller's payload in full.
func (wr *WhiteboardRepository) Upsert(ctx context.Context, roomID string, username string, data models.Document) error {
	now := time.Now()
	whiteboard := models.Whiteboard{
		RoomID:    roomID,
		Data:      data,
		CreatedBy: username,
		UpdatedBy: username,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result := wr.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_by", "updated_at"}),
		}).
		Create(&whiteboard)
	if err := result.Error; err != nil {
		return errs.NewStorageError("upsert whiteboard", err)
	}
	return nil
}
