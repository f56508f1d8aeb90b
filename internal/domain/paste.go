// Package domain contains domain models for the application.
package domain

import (
	"errors"
	"time"
)

// Visibility controls whether a paste is listed publicly or reachable only by its short ID.
type Visibility string

const (
	VisibilityPublic Visibility = "public"
	VisibilityHidden Visibility = "hidden"
)

// RemovalState tracks whether a paste has been hidden by its owner or a moderator.
type RemovalState string

const (
	RemovalActive       RemovalState = "active"
	RemovalUserRemoved  RemovalState = "user_removed"
	RemovalAdminRemoved RemovalState = "admin_removed"
)

// Expiration is a relative lifetime chosen at submission time.
type Expiration string

const (
	ExpireNever          Expiration = "never"
	ExpireFifteenMinutes Expiration = "15m"
	ExpireOneHour        Expiration = "1h"
	ExpireOneDay         Expiration = "1d"
	ExpireOneWeek        Expiration = "1w"
	ExpireOneMonth       Expiration = "1month"
)

// FormatNone is the render format sentinel for raw, unhighlighted text.
const FormatNone = "none"

// DefaultTitle is used when a paste is submitted with a blank title.
const DefaultTitle = "Untitled"

// Paste is the mutable envelope around an append-only version history.
type Paste struct {
	ID             int64        `json:"id"`
	ShortID        string       `json:"short_id"`
	Owner          string       `json:"owner,omitempty"`
	CurrentVersion int          `json:"current_version"`
	Title          string       `json:"title"`
	Format         string       `json:"format"`
	Hash           string       `json:"hash"`
	Visibility     Visibility   `json:"visibility"`
	Encrypted      bool         `json:"encrypted"`
	RemovalState   RemovalState `json:"removal_state"`
	RemovalReason  string       `json:"removal_reason,omitempty"`
	Deleted        bool         `json:"deleted"`
	ExpiresAt      time.Time    `json:"expires_at"`
	SubmittedAt    time.Time    `json:"submitted_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsRemoved reports whether the paste has been hidden by removal or purged.
func (p Paste) IsRemoved() bool {
	return p.Deleted || p.RemovalState != RemovalActive
}

// ExpiresAfter reports whether the paste carries an expiration timestamp.
func (p Paste) ExpiresAfter() bool { return !p.ExpiresAt.IsZero() }

// PasteVersion is one immutable snapshot in a paste's history.
type PasteVersion struct {
	PasteID     int64     `json:"paste_id"`
	Version     int       `json:"version"`
	Note        string    `json:"note"`
	Title       string    `json:"title"`
	Hash        string    `json:"hash"`
	Format      string    `json:"format"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ContentEntry is a deduplicated unit of paste text keyed by (hash, format).
// The raw bytes live under FormatNone; highlighted variants under their
// language tag.
type ContentEntry struct {
	Hash   string `json:"hash"`
	Format string `json:"format"`
	Text   string `json:"text"`
}

// CreatePasteRequestDTO represents the expected request body for creating a paste.
type CreatePasteRequestDTO struct {
	Text       string `json:"text" binding:"required,max=1048576"`
	Title      string `json:"title" binding:"omitempty,max=128"`
	Format     string `json:"format" binding:"omitempty,max=32"`
	Expiration string `json:"expiration" binding:"omitempty,oneof=never 15m 1h 1d 1w 1month"`
	Visibility string `json:"visibility" binding:"omitempty,oneof=public hidden"`
	Encrypted  bool   `json:"encrypted"`
	Owner      string `json:"owner" binding:"omitempty,max=64"`
}

// UpdatePasteRequestDTO represents the expected request body for editing a paste.
type UpdatePasteRequestDTO struct {
	Text       string `json:"text" binding:"required,max=1048576"`
	Title      string `json:"title" binding:"omitempty,max=128"`
	Format     string `json:"format" binding:"omitempty,max=32"`
	Visibility string `json:"visibility" binding:"omitempty,oneof=public hidden"`
	Encrypted  bool   `json:"encrypted"`
	Note       string `json:"note" binding:"omitempty,max=256"`
}

// RemovePasteRequestDTO selects between reversible removal and permanent deletion.
type RemovePasteRequestDTO struct {
	Admin  bool   `json:"admin"`
	Purge  bool   `json:"purge"`
	Reason string `json:"reason" binding:"omitempty,max=256"`
}

// PasteResponseDTO represents the response for a single paste.
type PasteResponseDTO struct {
	ShortID        string  `json:"short_id"`
	Title          string  `json:"title"`
	Format         string  `json:"format"`
	Text           string  `json:"text"`
	CurrentVersion int     `json:"current_version"`
	Visibility     string  `json:"visibility"`
	Encrypted      bool    `json:"encrypted"`
	Hits           int64   `json:"hits"`
	SubmittedAt    string  `json:"submitted_at"`
	UpdatedAt      string  `json:"updated_at"`
	ExpiresAt      *string `json:"expires_at,omitempty"`
}

// VersionResponseDTO represents one entry in a paste's history view.
type VersionResponseDTO struct {
	Version     int    `json:"version"`
	Note        string `json:"note,omitempty"`
	Title       string `json:"title"`
	Format      string `json:"format"`
	SubmittedAt string `json:"submitted_at"`
}

// VersionHistoryResponseDTO represents the response for listing a paste's versions.
type VersionHistoryResponseDTO struct {
	ShortID string               `json:"short_id"`
	Page    int                  `json:"page"`
	Limit   int                  `json:"limit"`
	Items   []VersionResponseDTO `json:"items"`
}

// PasteListItemDTO represents a paste in a list response.
type PasteListItemDTO struct {
	ShortID     string  `json:"short_id"`
	Title       string  `json:"title"`
	SubmittedAt string  `json:"submitted_at"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
}

// ListPastesResponseDTO represents the response for listing latest pastes.
type ListPastesResponseDTO struct {
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Items []PasteListItemDTO `json:"items"`
}

var (
	// ErrPasteNotFound is returned when no paste exists for the given identifier.
	ErrPasteNotFound = errors.New("paste not found")
	// ErrVersionNotFound is returned when a paste has no such version.
	ErrVersionNotFound = errors.New("paste version not found")
	// ErrContentNotFound is returned when no content entry exists for a (hash, format) pair.
	ErrContentNotFound = errors.New("paste content not found")
	// ErrEmptyContent is returned when create or update is called with empty text.
	ErrEmptyContent = errors.New("paste text is empty")
	// ErrDuplicateShortID is returned when a generated short ID is already taken.
	ErrDuplicateShortID = errors.New("short id already exists")
	// ErrIdentifierExhausted is returned after repeated short ID collisions.
	// Seeing this in practice means the generator has run out of entropy and
	// the process should be treated as unhealthy.
	ErrIdentifierExhausted = errors.New("short id space exhausted")
	// ErrUnsupportedLanguage is returned by the renderer for unknown language tags.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrConcurrentModification is returned when the paste row lock cannot be
	// acquired within the ambient timeout.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrNoEligiblePastes is returned by random sampling when no public paste exists.
	ErrNoEligiblePastes = errors.New("no eligible pastes")
)
