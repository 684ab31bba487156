package models

import "time"

// Whiteboard is the single persisted canvas state of a room.
type Whiteboard struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	RoomID    string    `gorm:"uniqueIndex;size:255;not null" json:"room"`
	Data      Document  `gorm:"type:text" json:"data"`
	CreatedBy string    `gorm:"size:255" json:"createdBy"`
	UpdatedBy string    `gorm:"size:255" json:"updatedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (w *Whiteboard) ToSnapshotPayload() SnapshotPayload {
	return SnapshotPayload{
		Room:      w.RoomID,
		Found:     true,
		Data:      w.Data,
		CreatedBy: w.CreatedBy,
		UpdatedBy: w.UpdatedBy,
	}
}
