package utils

import (
	"testing"
	"time"
)

func TestGetCacheLifespan(t *testing.T) {
	t.Setenv("CACHE_LIFESPAN", "")
	if got := GetCacheLifespan(); got != time.Hour {
		t.Errorf("default = %s, want 1h", got)
	}

	t.Setenv("CACHE_LIFESPAN", "3")
	if got := GetCacheLifespan(); got != 3*time.Hour {
		t.Errorf("override = %s, want 3h", got)
	}
}

func TestGetSessionLifespan(t *testing.T) {
	// Default tracks the cache lifespan so the session snapshot and its
	// staged bytes expire together.
	t.Setenv("CACHE_LIFESPAN", "")
	t.Setenv("SESSION_LIFESPAN", "")
	if got := GetSessionLifespan(); got != 24*time.Hour {
		t.Errorf("default = %s, want 24h", got)
	}
	if got := GetSessionLifespan(); got <= 0 {
		t.Error("session lifespan must be bounded and positive")
	}

	t.Setenv("SESSION_LIFESPAN", "48")
	if got := GetSessionLifespan(); got != 48*time.Hour {
		t.Errorf("override = %s, want 48h", got)
	}
}
