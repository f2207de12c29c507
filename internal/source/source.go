package source

import (
	"context"

	"github.com/google/uuid"

	"go-cheque-batch/internal/model"
)

// Source supplies the ordered sequence of items for an accepted batch
// payload. Container extraction (ZIP/PDF/TIFF) happens upstream; this
// service only ever sees references to already extracted images.
type Source interface {
	Items(ctx context.Context) ([]model.Item, error)
}

// ManifestSource builds items from the manifest of a submitted batch,
// assigning each a fresh id and PENDING status. Source order is preserved.
type ManifestSource struct {
	manifest []model.ItemManifest
}

// FromManifest creates a Source over the submitted manifest entries.
func FromManifest(manifest []model.ItemManifest) *ManifestSource {
	return &ManifestSource{manifest: manifest}
}

func (s *ManifestSource) Items(ctx context.Context) ([]model.Item, error) {
	items := make([]model.Item, 0, len(s.manifest))
	for _, m := range s.manifest {
		items = append(items, model.Item{
			ID:         uuid.New().String(),
			Name:       m.Name,
			PayloadRef: m.PayloadRef,
			MimeType:   m.MimeType,
			Status:     model.ItemPending,
		})
	}
	return items, nil
}
