package drive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
)

// FileSource serves fact files from a single Drive folder. It satisfies the
// facts.Source contract.
type FileSource struct {
	service  *Service
	folderID string
}

// NewFileSource resolves the folder once; folderID wins over folderPath.
func NewFileSource(ctx context.Context, s *Service, folderID, folderPath string) (*FileSource, error) {
	if folderID == "" {
		id, err := s.FindFolderByPath(ctx, folderPath)
		if err != nil {
			return nil, err
		}
		folderID = id
	}
	return &FileSource{service: s, folderID: folderID}, nil
}

func (f *FileSource) Name() string { return "drive:" + f.folderID }

func (f *FileSource) Open(ctx context.Context, file string) (io.ReadCloser, error) {
	meta, err := f.service.FindFile(ctx, f.folderID, file)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%s: %w", file, fs.ErrNotExist)
	}
	return f.service.Download(ctx, meta.ID)
}
