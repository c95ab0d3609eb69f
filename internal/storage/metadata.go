package storage

import (
	"encoding/json"
	"os"
	"time"

	"reelpress/internal/services"
)

// Metadata is the durable summary of a completed run, written into the run
// directory as metadata.json. Field names are part of the on-disk contract.
type Metadata struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Hashtags    string `json:"hashtags"`
	Date        string `json:"date"`
	Audio       string `json:"audio"`
	PreviewPath string `json:"previewPath"`
	VideoPath   string `json:"videoPath"`
	CreatedAt   string `json:"createdAt"`
}

// WriteMetadata persists the metadata record for a run. CreatedAt is stamped
// with the provided time in ISO-8601 when empty.
func WriteMetadata(run RunDir, meta Metadata, now time.Time) error {
	if meta.CreatedAt == "" {
		meta.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrStorage, "storage", "marshal metadata", run.Path, err)
	}
	if err := os.WriteFile(run.MetadataPath(), raw, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "storage", "write metadata", run.Path, err)
	}
	return nil
}

// ReadMetadata loads a run's metadata record.
func ReadMetadata(run RunDir) (Metadata, error) {
	raw, err := os.ReadFile(run.MetadataPath())
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrStorage, "storage", "read metadata", run.Path, err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, services.Wrap(services.ErrStorage, "storage", "parse metadata", run.Path, err)
	}
	return meta, nil
}
