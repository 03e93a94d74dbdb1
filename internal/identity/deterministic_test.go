package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestPageUUIDIsStable(t *testing.T) {
	first := PageUUID("home", "de")
	if first == uuid.Nil {
		t.Fatalf("expected non-nil id")
	}
	if again := PageUUID(" home ", "DE"); again != first {
		t.Fatalf("expected %s, got %s", first, again)
	}
	if other := PageUUID("home", "fr"); other == first {
		t.Fatalf("expected distinct ids per locale, got %s twice", first)
	}
}

func TestArtifactUUIDDiffersFromPages(t *testing.T) {
	if ArtifactUUID("sitemap.xml") == PageUUID("sitemap.xml", "") {
		t.Fatalf("expected artifact and page ids to be namespaced")
	}
	if UUID("  ") != uuid.Nil {
		t.Fatalf("expected nil id for blank key")
	}
}
