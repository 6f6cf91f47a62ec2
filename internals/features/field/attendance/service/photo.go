package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

const (
	MinPhotoDimension = 64   // px
	MaxPhotoDimension = 1600 // downscale sebelum disimpan
	photoWebPQuality  = 80

	// batas sebelum decode penuh (decode RGBA = w×h×4 byte)
	MaxPhotoSourceDimension = MaxPhotoDimension * 4
	MaxPhotoPixels          = 24_000_000
)

var (
	ErrPhotoEmpty       = errors.New("photo is empty")
	ErrPhotoTooLarge    = errors.New("photo exceeds the maximum allowed size")
	ErrPhotoUnsupported = errors.New("photo must be a JPEG, PNG or WebP image")
	ErrPhotoCorrupt     = errors.New("photo could not be decoded as an image")
	ErrPhotoTooSmall    = errors.New("photo resolution is too small")
)

var allowedPhotoMIME = []string{"image/jpeg", "image/png", "image/webp"}

// Photo = payload yang lolos validasi.
type Photo struct {
	Data     []byte // bytes asli (dikirim ke oracle)
	MimeType string
	Width    int
	Height   int
}

// ValidatePhoto: tidak kosong, <= maxBytes, MIME sniff jpeg/png/webp,
// dimensi header dalam batas, baru decode penuh.
func ValidatePhoto(data []byte, maxBytes int64) (*Photo, error) {
	if len(data) == 0 {
		return nil, ErrPhotoEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w (%d KB > %d KB)", ErrPhotoTooLarge, len(data)/1024, maxBytes/1024)
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedPhotoMIME...) {
		return nil, fmt.Errorf("%w (got %s)", ErrPhotoUnsupported, mt.String())
	}

	cfg, err := decodePhotoConfig(data, mt.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhotoCorrupt, err)
	}
	if cfg.Width > MaxPhotoSourceDimension || cfg.Height > MaxPhotoSourceDimension ||
		int64(cfg.Width)*int64(cfg.Height) > MaxPhotoPixels {
		return nil, fmt.Errorf("%w (%dx%d px)", ErrPhotoTooLarge, cfg.Width, cfg.Height)
	}
	if cfg.Width < MinPhotoDimension || cfg.Height < MinPhotoDimension {
		return nil, fmt.Errorf("%w (%dx%d)", ErrPhotoTooSmall, cfg.Width, cfg.Height)
	}

	img, err := decodePhoto(data, mt.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhotoCorrupt, err)
	}
	b := img.Bounds()
	if b.Dx() < MinPhotoDimension || b.Dy() < MinPhotoDimension {
		return nil, fmt.Errorf("%w (%dx%d)", ErrPhotoTooSmall, b.Dx(), b.Dy())
	}

	return &Photo{Data: data, MimeType: mt.String(), Width: b.Dx(), Height: b.Dy()}, nil
}

func decodePhotoConfig(data []byte, mime string) (image.Config, error) {
	if mime == "image/webp" {
		return webp.DecodeConfig(bytes.NewReader(data))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	return cfg, err
}

func decodePhoto(data []byte, mime string) (image.Image, error) {
	if mime == "image/webp" {
		return webp.Decode(bytes.NewReader(data))
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// NormalizeToWebP: downscale (keep aspect) lalu encode WebP lossy untuk disimpan.
func NormalizeToWebP(p *Photo) ([]byte, error) {
	img, err := decodePhoto(p.Data, p.MimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhotoCorrupt, err)
	}
	b := img.Bounds()
	if b.Dx() > MaxPhotoDimension || b.Dy() > MaxPhotoDimension {
		img = imaging.Fit(img, MaxPhotoDimension, MaxPhotoDimension, imaging.CatmullRom)
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: photoWebPQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
