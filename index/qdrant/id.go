package qdrant

import "github.com/google/uuid"

// pointNamespace is a fixed namespace UUID used to derive deterministic
// Qdrant point IDs from this domain's natural keys (drug:{ndc},
// cache:{uuid}), which are not themselves valid Qdrant point IDs. Deriving
// rather than randomly assigning means Put is naturally idempotent: writing
// the same key twice upserts the same point instead of creating a duplicate.
var pointNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func pointID(key string) string {
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}
