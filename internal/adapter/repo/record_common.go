package repo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bardoun7894/basplast/internal/domain"
)

// prepareRecord fills the server assigned fields of a new record.
func prepareRecord(record *domain.GenerationRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	record.Attributes = record.Attributes.Normalize()
	record.Status = domain.RecordStatusProcessing
	record.Images = []string{}
	return nil
}

// completionImages enforces that images are present exactly when the status
// is success.
func completionImages(status domain.RecordStatus, images []string) ([]string, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("%w: status %q is not terminal", domain.ErrInvalidInput, status)
	}
	if status == domain.RecordStatusFailed {
		return []string{}, nil
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: success requires at least one image", domain.ErrInvalidInput)
	}
	out := make([]string, len(images))
	copy(out, images)
	return out, nil
}

func encodeImages(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}
	return json.Marshal(images)
}

func decodeImages(raw []byte) ([]string, error) {
	images := []string{}
	if len(raw) == 0 {
		return images, nil
	}
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if images == nil {
		images = []string{}
	}
	return images, nil
}

// finalizedOrMissing maps the status of a record whose conditional update
// matched nothing.
func finalizedOrMissing(found bool) error {
	if !found {
		return domain.ErrNotFound
	}
	return domain.ErrRecordFinalized
}
