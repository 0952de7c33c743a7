package testhelper

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExamplesYAML(t *testing.T) {
	candidates := []string{
		filepath.Join("testdata", "examples.yml"),
		filepath.Join("internal", "testhelper", "testdata", "examples.yml"),
	}
	var found string
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			found = p
			break
		}
	}
	if found == "" {
		t.Fatalf("failed to find testdata/examples.yml (tried: %v)", candidates)
	}
	RunFixtureFile(t, found)
}
