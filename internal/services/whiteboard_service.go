package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/interfaces"
	"socketWhiteboard/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WhiteboardService is the store used by the room coordinator and the REST handlers.
type WhiteboardService struct {
	whiteboardRepo     interfaces.WhiteboardStore
	fileManagerService *FileManagerService
}

func NewWhiteboardService(whiteboardRepo interfaces.WhiteboardStore, fileManagerService *FileManagerService) *WhiteboardService {
	return &WhiteboardService{
		whiteboardRepo:     whiteboardRepo,
		fileManagerService: fileManagerService,
	}
}

func (ws *WhiteboardService) Get(ctx context.Context, roomID string) (*models.Whiteboard, bool, error) {
	whiteboard, found, err := ws.whiteboardRepo.Get(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room", roomID).Error("failed to load whiteboard")
		return nil, false, err
	}
	return whiteboard, found, nil
}

func (ws *WhiteboardService) Upsert(ctx context.Context, roomID string, username string, data models.Document) error {
	if err := ws.whiteboardRepo.Upsert(ctx, roomID, username, data); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room": roomID, "user": username}).Error("failed to save whiteboard")
		return err
	}
	logrus.WithFields(logrus.Fields{"room": roomID, "user": username, "bytes": len(data)}).Debug("whiteboard saved")
	return nil
}

// Export uploads the room's current snapshot as a JSON object and returns its public URL.
func (ws *WhiteboardService) Export(ctx context.Context, roomID string) (string, error) {
	if ws.fileManagerService == nil {
		return "", errs.ErrWhiteboardExportDisabled
	}
	whiteboard, found, err := ws.Get(ctx, roomID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errs.ErrNoWhiteboardFoundForThisRoom
	}

	body, err := json.Marshal(whiteboard)
	if err != nil {
		return "", err
	}
	fileName := fmt.Sprintf("%s/%s-%s.json", roomID, time.Now().UTC().Format("20060102T150405Z"), uuid.NewString())
	url, err := ws.fileManagerService.UploadWhiteboardExport(fileName, bytes.NewReader(body), int64(len(body)))
	if err != nil {
		logrus.WithError(err).WithField("room", roomID).Error("failed to upload whiteboard export")
		return "", err
	}
	return url, nil
}
