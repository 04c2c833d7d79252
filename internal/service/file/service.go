package file

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Import for PNG decoding support
	"io"
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

type FileService interface {
	// UploadPunchPhoto stores the selfie taken with a punch, recompressed to JPEG.
	UploadPunchPhoto(ctx context.Context, tenantID, employeeID string, date time.Time, file io.Reader, filename string) (string, error)

	// ArchiveClockFile keeps the raw clock-terminal export as received.
	ArchiveClockFile(ctx context.Context, tenantID, sourceID string, file io.Reader, filename string) (string, error)

	// UploadAdjustmentAttachment stores evidence sent with a time adjustment.
	UploadAdjustmentAttachment(ctx context.Context, tenantID, employeeID string, file io.Reader, filename string) (string, error)

	// Generic operations
	DeleteFile(ctx context.Context, key string) error
	GetFileURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
	now     func() time.Time
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
		now:     time.Now,
	}
}

// UploadPunchPhoto compresses the photo to 50KB - 150KB.
func (s *fileServiceImpl) UploadPunchPhoto(ctx context.Context, tenantID, employeeID string, date time.Time, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", fmt.Errorf("invalid file type: only jpg, jpeg, png allowed")
	}

	buffer, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	compressed, err := compressImage(buffer, 150*1024, 50*1024)
	if err != nil {
		return "", fmt.Errorf("failed to compress image: %w", err)
	}

	// time-records/{tenant}/{date}/{employee}-{uuid}.jpg
	key := path.Join("time-records", tenantID, date.Format(time.DateOnly),
		fmt.Sprintf("%s-%s.jpg", employeeID, uuid.New().String()))

	uploaded, err := s.storage.Upload(ctx, bytes.NewReader(compressed), key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload punch photo: %w", err)
	}
	return uploaded, nil
}

func (s *fileServiceImpl) ArchiveClockFile(ctx context.Context, tenantID, sourceID string, file io.Reader, filename string) (string, error) {
	base := sanitizeName(filepath.Base(filename))
	key := path.Join("clock-imports", tenantID, sanitizeName(sourceID),
		fmt.Sprintf("%s-%s", s.now().UTC().Format("20060102T150405"), base))

	uploaded, err := s.storage.Upload(ctx, file, key, "text/plain; charset=iso-8859-1")
	if err != nil {
		return "", fmt.Errorf("failed to archive clock file: %w", err)
	}
	return uploaded, nil
}

func (s *fileServiceImpl) UploadAdjustmentAttachment(ctx context.Context, tenantID, employeeID string, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := attachmentTypes[ext]
	if !ok {
		return "", fmt.Errorf("invalid file type: only pdf, jpg, jpeg, png allowed")
	}

	key := path.Join("time-adjustments", tenantID, employeeID,
		fmt.Sprintf("%d-%s%s", s.now().Unix(), uuid.New().String(), ext))

	uploaded, err := s.storage.Upload(ctx, file, key, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload adjustment attachment: %w", err)
	}
	return uploaded, nil
}

var attachmentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

func (s *fileServiceImpl) GetFileURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return s.storage.GetURL(ctx, key, expiry)
}

// sanitizeName keeps letters, digits, dot, dash and underscore.
func sanitizeName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if clean == "" || clean == "." || clean == ".." {
		return "file"
	}
	return clean
}

// compressImage re-encodes an image as JPEG between minSize and maxSize bytes,
// lowering quality first and resizing when that is not enough.
func compressImage(buffer []byte, maxSize int, minSize int) ([]byte, error) {
	if len(buffer) <= maxSize && len(buffer) >= minSize {
		return buffer, nil
	}

	img, _, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	var compressed []byte

	for quality := 85; quality >= 50; quality -= 5 {
		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		compressed = buf.Bytes()

		if len(compressed) <= maxSize {
			return compressed, nil
		}
	}

	// Still too large: scale towards ~100KB.
	ratio := math.Sqrt(float64(100*1024) / float64(len(compressed)))
	width := max(int(float64(bounds.Dx())*ratio), 600)
	height := max(int(float64(bounds.Dy())*ratio), 400)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, resizeImage(img, width, height), &jpeg.Options{Quality: 70}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
