package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from key using go-hashid. Keys should be
// prefixed by kind so unrelated entities never share an identifier.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PageUUID identifies one rendered (page, locale) pair across builds.
func PageUUID(pageKey, localeCode string) uuid.UUID {
	return UUID("localize:page:" + strings.TrimSpace(pageKey) + ":" + strings.ToLower(strings.TrimSpace(localeCode)))
}

// ArtifactUUID identifies a generated file that belongs to no page, such as
// sitemap.xml.
func ArtifactUUID(output string) uuid.UUID {
	return UUID("localize:artifact:" + strings.TrimSpace(output))
}
