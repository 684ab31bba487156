package services

import (
	"io"
	"socketWhiteboard/internal/enums"
	"socketWhiteboard/internal/interfaces"
)

type FileManagerService struct {
	fileManager interfaces.FileManager
}

func NewFileManagerService(fileManager interfaces.FileManager) *FileManagerService {
	return &FileManagerService{
		fileManager: fileManager,
	}
}

func (fs *FileManagerService) UploadWhiteboardExport(fileName string, file io.Reader, fileSize int64) (string, error) {
	return fs.fileManager.UploadFile(fileName, file, fileSize, "application/json", enums.FILE_BUCKET_WHITEBOARD_EXPORTS)
}
