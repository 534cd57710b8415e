package config

import (
	"os"
	"strings"
)

// CommitLockEnabled serializes commits per entity across instances with a redis lock.
// Commits are still last-writer-wins on document content; the lock only prevents two
// racing commits from interleaving their upload and write phases.
//
// Set via env:
// - COMMIT_LOCK_ENABLED=true
func CommitLockEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("COMMIT_LOCK_ENABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// StrictFinalizedImmutability rejects commits against an already-finalized aggregate
// instead of silently overwriting it.
//
// Set via env:
// - STRICT_FINALIZED_IMMUTABLE=true
func StrictFinalizedImmutability() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_FINALIZED_IMMUTABLE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
