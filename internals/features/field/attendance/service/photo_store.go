package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PhotoStore menyimpan foto absensi yang sudah lolos verifikasi; ref = URL publik.
type PhotoStore interface {
	Save(ctx context.Context, key Key, kind string, p *Photo) (ref string, err error)
	Delete(ctx context.Context, ref string) error
}

// DiskPhotoStore: simpan WebP ke direktori lokal, dilayani fiber static di publicPrefix.
type DiskPhotoStore struct {
	Dir          string
	PublicPrefix string
}

func NewDiskPhotoStore(dir, publicPrefix string) (*DiskPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &DiskPhotoStore{Dir: dir, PublicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

func (s *DiskPhotoStore) Save(ctx context.Context, key Key, kind string, p *Photo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := NormalizeToWebP(p)
	if err != nil {
		return "", err
	}

	// <project>/<yyyymmdd>-<contributor>-<entry|exit>-<rand>.webp
	name := fmt.Sprintf("%s-%s-%s-%s.webp",
		strings.ReplaceAll(key.Date, "-", ""), key.ContributorID, kind, uuid.NewString()[:8])
	rel := path.Join(key.ProjectID.String(), name)

	full := filepath.Join(s.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}
	tmp := full + ".tmp-" + time.Now().Format("150405.000")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit photo: %w", err)
	}
	return s.PublicPrefix + "/" + rel, nil
}

// Delete dipakai untuk rollback kalau commit record gagal.
func (s *DiskPhotoStore) Delete(_ context.Context, ref string) error {
	rel := strings.TrimPrefix(ref, s.PublicPrefix+"/")
	if rel == ref || strings.Contains(rel, "..") {
		return fmt.Errorf("photo ref outside store: %s", ref)
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
