package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func AllowedImageType(contentType string) bool {
	_, ok := imageExtensions[contentType]
	return ok
}

// FileImageStore keeps menu images under Dir/menu-images/<restaurant>/<item>.<ext>
// and serves them below BaseURL. Uploading again for the same item replaces
// the previous file.
type FileImageStore struct {
	Dir     string
	BaseURL string
}

func NewFileImageStore(dir, baseURL string) *FileImageStore {
	return &FileImageStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *FileImageStore) SaveMenuImage(ctx context.Context, restaurantID, itemID, filename, contentType string, src io.Reader) (string, error) {
	if !safeSegment(restaurantID) || !safeSegment(itemID) {
		return "", fmt.Errorf("invalid image path %q/%q", restaurantID, itemID)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || ext == "." {
		ext = imageExtensions[contentType]
	}

	rel := filepath.Join("menu-images", restaurantID, itemID+ext)
	path := filepath.Join(s.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}

	return s.BaseURL + "/uploads/" + filepath.ToSlash(rel), nil
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
