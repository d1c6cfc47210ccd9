// Package upload stores user-submitted images on local disk.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zhangyu-521/blog-system/internal/apperr"
	"github.com/zhangyu-521/blog-system/internal/config"
	"github.com/zhangyu-521/blog-system/pkg/utilities"
)

// extByType maps accepted MIME types to the stored file extension. The
// client's file name is never trusted for anything but display.
var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Result describes a stored file.
type Result struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimeType"`
}

type Service struct {
	cfg     config.Upload
	baseURL string
}

// NewService ensures the upload directory exists and returns the service.
func NewService(cfg config.Upload, baseURL string) (*Service, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{cfg: cfg, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save validates and writes the uploaded file. The stored name is a
// snowflake ID plus an extension derived from the sniffed content type.
func (s *Service) Save(file multipart.File, header *multipart.FileHeader) (*Result, error) {
	if header.Size > s.cfg.MaxFileSize {
		return nil, apperr.BadRequest(fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}

	// sniff the real content type; the Content-Type header is client-supplied
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	mimeType := http.DetectContentType(head[:n])
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !slices.Contains(s.cfg.AllowedTypes, mimeType) {
		return nil, apperr.BadRequest("unsupported file type " + mimeType)
	}
	ext, ok := extByType[mimeType]
	if !ok {
		ext = filepath.Ext(header.Filename)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	name := utilities.NewSnowflakeID() + ext
	path := filepath.Join(s.cfg.Dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, io.LimitReader(file, s.cfg.MaxFileSize+1))
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	if size > s.cfg.MaxFileSize {
		os.Remove(path)
		return nil, apperr.BadRequest(fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}

	return &Result{
		Filename:     name,
		OriginalName: header.Filename,
		URL:          s.baseURL + "/uploads/" + name,
		Size:         size,
		MimeType:     mimeType,
	}, nil
}

// Dir exposes the storage directory for the static file route.
func (s *Service) Dir() string { return s.cfg.Dir }
