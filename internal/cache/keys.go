package cache

import "fmt"

// All cache and index key names live here so invalidation and population can
// never disagree about spelling.

// KeyPaste is the cached paste envelope, keyed by public short ID.
func KeyPaste(shortID string) string { return "paste:" + shortID }

// KeyText is the cached paste text for one (hash, format) pair.
func KeyText(hash, format string) string { return "content:" + hash + ":" + format }

// KeyLatest is the cached latest-pastes page.
func KeyLatest(page, limit int) string { return fmt.Sprintf("pastes:latest:p%d:l%d", page, limit) }

// KeyPublicSet is the sampler membership set of publicly sampleable short IDs.
const KeyPublicSet = "pastes:public"

// KeyHitCount is the aggregate unique-viewer counter for a paste.
func KeyHitCount(pasteID int64) string { return fmt.Sprintf("hits:%d", pasteID) }

// KeyHitMarker is the per-viewer dedup marker, expiring after the hit window.
func KeyHitMarker(pasteID int64, viewerKey string) string {
	return fmt.Sprintf("hits:%d:viewer:%s", pasteID, viewerKey)
}
