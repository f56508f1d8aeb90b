package handler

import (
	"time"

	"github.com/inkbin/inkbin/internal/domain"
)

func optionalTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	v := t.UTC().Format(TimeFormat)
	return &v
}

func pasteDTO(p domain.Paste, text string, hitCount int64) domain.PasteResponseDTO {
	return domain.PasteResponseDTO{
		ShortID:        p.ShortID,
		Title:          p.Title,
		Format:         p.Format,
		Text:           text,
		CurrentVersion: p.CurrentVersion,
		Visibility:     string(p.Visibility),
		Encrypted:      p.Encrypted,
		Hits:           hitCount,
		SubmittedAt:    p.SubmittedAt.UTC().Format(TimeFormat),
		UpdatedAt:      p.UpdatedAt.UTC().Format(TimeFormat),
		ExpiresAt:      optionalTime(p.ExpiresAt),
	}
}
