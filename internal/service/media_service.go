package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"

	"shelfswap/internal/cache"
	"shelfswap/internal/featureflags"
	"shelfswap/internal/models"
	"shelfswap/internal/observability"
	"shelfswap/internal/repository"
	"shelfswap/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
)

const (
	DefaultUploadMaxBytes = 3 << 20
	MaxImageDimension     = 1024
	JPEGQuality           = 82
	WebPQuality           = 70
)

const (
	UploadKindProfile     = "profile"
	UploadKindBanner      = "banner"
	UploadKindCollectible = "collectible"
)

type UploadImageInput struct {
	UserID  uint
	Kind    string
	Content []byte
}

type UploadResult struct {
	URL     string `json:"url"`
	WebPURL string `json:"webp_url,omitempty"`
}

// MediaService validates uploaded images, stores a bounded original plus a
// WebP rendition and returns the stable URL.
type MediaService struct {
	store    storage.ObjectStore
	users    repository.UserRepository
	flags    *featureflags.Manager
	maxBytes int64
}

func NewMediaService(store storage.ObjectStore, users repository.UserRepository, flags *featureflags.Manager, maxBytes int64) *MediaService {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &MediaService{store: store, users: users, flags: flags, maxBytes: maxBytes}
}

func (s *MediaService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores the image. Profile and banner uploads also update the user.
func (s *MediaService) Upload(ctx context.Context, in UploadImageInput) (*UploadResult, error) {
	switch in.Kind {
	case UploadKindProfile, UploadKindBanner, UploadKindCollectible:
	default:
		return nil, models.NewValidationError("Upload kind must be one of profile, banner, collectible")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes>>20))
	}

	detected := http.DetectContentType(in.Content)
	if detected != "image/jpeg" && detected != "image/png" {
		return nil, models.NewValidationError("Only JPEG and PNG images are allowed")
	}
	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil || (format != "jpeg" && format != "png") {
		return nil, models.NewValidationError("Invalid image file")
	}

	bounded := resizeToFit(decoded, MaxImageDimension, MaxImageDimension)
	original := in.Content
	if bounded != decoded {
		if original, err = encodeAs(format, bounded); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	base := fmt.Sprintf("%s/%d/%s", in.Kind, in.UserID, uuid.NewString())
	ext := "png"
	if format == "jpeg" {
		ext = "jpg"
	}
	key := base + "." + ext
	if err := s.store.Put(ctx, key, bytes.NewReader(original), int64(len(original)), detected); err != nil {
		return nil, models.NewInternalError(err)
	}
	result := &UploadResult{URL: s.store.URL(key)}

	if s.flags.Enabled(featureflags.WebPRenditions, in.UserID) {
		result.WebPURL = s.storeWebP(ctx, base+".webp", bounded)
	}

	if err := s.applyToProfile(ctx, in, result.URL); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MediaService) storeWebP(ctx context.Context, key string, img image.Image) string {
	encoded, err := encodeWebP(img, WebPQuality)
	if err == nil {
		err = s.store.Put(ctx, key, bytes.NewReader(encoded), int64(len(encoded)), "image/webp")
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to store webp rendition", slog.String("key", key), slog.String("error", err.Error()))
		return ""
	}
	return s.store.URL(key)
}

func (s *MediaService) applyToProfile(ctx context.Context, in UploadImageInput, url string) error {
	var upd models.UserUpdate
	switch in.Kind {
	case UploadKindProfile:
		upd.ProfileImage = &url
	case UploadKindBanner:
		upd.ProfileBanner = &url
	default:
		return nil
	}
	user, err := s.users.Update(ctx, in.UserID, upd)
	if err != nil {
		return err
	}
	if err := cache.InvalidateProfile(ctx, user.ID, user.Username); err != nil {
		softFail(ctx, observability.SideEffectCache, "failed to invalidate profile cache", err,
			slog.Uint64("user_id", uint64(user.ID)))
	}
	return nil
}

// Open streams a stored object.
func (s *MediaService) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	rc, contentType, err := s.store.Get(ctx, key)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, "", models.NewNotFoundError("Media", key)
		}
		return nil, "", models.NewInternalError(err)
	}
	return rc, contentType, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeAs(format string, img image.Image) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	var err error
	if format == "jpeg" {
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality})
	} else {
		err = png.Encode(buf, img)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
