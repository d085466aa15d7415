package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"yatube/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageSize 上传图片大小上限 (10MB)
const MaxImageSize = 10 << 20

// mimetype 默认只看前 3KB
const sniffLen = 3072

// SVG is excluded: it can carry scripts.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

var (
	ErrNotImage      = errors.New("upload a valid image: the file is either not an image or corrupted")
	ErrImageTooLarge = errors.New("image is larger than 10 MB")
)

// ImageService 处理帖子配图的校验和存储
type ImageService struct {
	store   storage.Storage
	maxSize int64
}

func NewImageService(store storage.Storage) *ImageService {
	return &ImageService{store: store, maxSize: MaxImageSize}
}

// Upload checks that the file really is an image by sniffing its content,
// ignoring the client supplied Content-Type, and stores it under
// posts/<uuid><ext>. It returns the storage key.
func (s *ImageService) Upload(ctx context.Context, header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxSize {
		return "", ErrImageTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	return s.Save(ctx, file)
}

// Save stores image bytes read from r.
func (s *ImageService) Save(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrImageTooLarge
	}

	mtype := mimetype.Detect(data)
	if !allowedImageTypes[mtype.String()] {
		return "", ErrNotImage
	}

	key := "posts/" + uuid.NewString() + mtype.Extension()
	if err := s.store.Write(ctx, key, bytes.NewReader(data), int64(len(data)), mtype.String()); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// Open streams a stored image back together with the content type sniffed
// from its first bytes.
func (s *ImageService) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	rc, err := s.store.Read(ctx, key)
	if err != nil {
		return nil, "", err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		rc.Close()
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	head = head[:n]

	body := struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), rc), rc}
	return body, mimetype.Detect(head).String(), nil
}

// Delete 删除旧图片，编辑帖子替换配图时调用
func (s *ImageService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.store.Delete(ctx, key)
}
