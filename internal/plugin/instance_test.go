package plugin

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMaterializeMountsCreatesDirectories(t *testing.T) {
	dataDir := t.TempDir()
	mounts := []FsMount{
		{InternalPath: "/cache", Description: "download cache"},
		{InternalPath: "/config/presets", Description: "user presets"},
	}

	allowed, err := materializeMounts(dataDir, mounts)
	if err != nil {
		t.Fatalf("materializeMounts: %v", err)
	}

	if len(allowed) != len(mounts) {
		t.Fatalf("allowed has %d entries, want %d", len(allowed), len(mounts))
	}

	for _, m := range mounts {
		hostPath, ok := allowed[m.InternalPath]
		if !ok {
			t.Fatalf("missing allowed-path entry for %q", m.InternalPath)
		}
		info, err := os.Stat(hostPath)
		if err != nil {
			t.Fatalf("stat %q: %v", hostPath, err)
		}
		if !info.IsDir() {
			t.Fatalf("%q is not a directory", hostPath)
		}
		wantPrefix := filepath.Join(dataDir)
		if !filepathHasPrefix(hostPath, wantPrefix) {
			t.Fatalf("host path %q escapes data dir %q", hostPath, wantPrefix)
		}
	}
}

func filepathHasPrefix(path, prefix string) bool {
	rel, err := filepath.Rel(prefix, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepathStartsWithDotDot(rel)
}

func filepathStartsWithDotDot(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.'
}
