package utils

import (
	"os"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/inspect_backend/config"
)

// Thumbnail URLs are cached keyed by the full-size object URL. Upload paths are
// uniquely named per timestamp, so a URL is never reused with different content
// and the cache needs no invalidation.
const thumbCachePrefix = "Thumbnail:"

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

// GetSessionLifespan bounds how long an abandoned draft session survives.
// The session snapshot and its staged bytes share it, so both age out
// together; every save refreshes the clock.
func GetSessionLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("SESSION_LIFESPAN"))
	if err != nil {
		return GetCacheLifespan() * 24
	}
	return time.Duration(lifespan) * time.Hour
}

func CacheThumbnailURL(imageURL string, thumbnailURL string) error {
	return config.SetRedisValue(thumbCachePrefix+imageURL, thumbnailURL, 0)
}

func GetCachedThumbnailURL(imageURL string) (string, bool, error) {
	return config.GetRedisValue(thumbCachePrefix + imageURL)
}

/* staged resources */

// Staged image bytes captured by a draft session, waiting for commit.
// Keyed by session + local resource id; expires with the session.
func stagedKey(sessionId string, localId string) string {
	return "Staged:" + sessionId + ":" + localId
}

func StoreStagedResource(sessionId string, localId string, data []byte) error {
	return config.SetRedisBytes(stagedKey(sessionId, localId), data, GetSessionLifespan())
}

func GetStagedResource(sessionId string, localId string) ([]byte, bool, error) {
	return config.GetRedisBytes(stagedKey(sessionId, localId))
}

func RemoveStagedResource(sessionId string, localId string) error {
	return config.RemoveRedisKey(stagedKey(sessionId, localId))
}
