package service

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/domain"
	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

// attachmentWriter pushes attachment content to the blob store and builds
// the metadata rows that point at it.
type attachmentWriter struct {
	blobs  ports.BlobStore
	now    func() time.Time
	logger zerolog.Logger
}

// upload stores every attachment. On failure, blobs written so far are removed.
func (w attachmentWriter) upload(ctx context.Context, purpose domain.FilePurpose, userID int64, atts []domain.Attachment) ([]domain.FileMetadata, error) {
	if len(atts) == 0 {
		return nil, nil
	}
	if w.blobs == nil {
		return nil, fmt.Errorf("upload attachments: no blob store configured")
	}

	now := w.now()
	metas := make([]domain.FileMetadata, 0, len(atts))
	for _, a := range atts {
		contentType := a.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(a.Content)
		}
		name := cleanFileName(a.FileName)
		key := storageKey(purpose, now, name)

		if err := w.blobs.Put(ctx, key, contentType, a.Content); err != nil {
			w.discard(ctx, metas)
			return nil, fmt.Errorf("upload attachment %q: %w", name, err)
		}
		metas = append(metas, domain.FileMetadata{
			UserID:      userID,
			FileName:    name,
			Purpose:     purpose,
			StorageKey:  key,
			ContentType: contentType,
			SizeBytes:   int64(len(a.Content)),
			UploadedAt:  now,
		})
	}
	return metas, nil
}

// discard removes uploaded blobs whose metadata never got committed.
func (w attachmentWriter) discard(ctx context.Context, metas []domain.FileMetadata) {
	for _, m := range metas {
		if err := w.blobs.Delete(context.WithoutCancel(ctx), m.StorageKey); err != nil {
			w.logger.Warn().Err(err).Str("storage_key", m.StorageKey).Msg("failed to remove orphaned attachment")
		}
	}
}

// storageKey follows <purpose>/<yyyy>/<mm>/<dd>/<uuid>/<filename>.
func storageKey(purpose domain.FilePurpose, at time.Time, name string) string {
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s/%s", purpose, at.Year(), at.Month(), at.Day(), uuid.New(), name)
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "attachment"
	}
	return name
}
