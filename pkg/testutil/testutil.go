package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MustWriteTestFiles writes the given relative-path to content mapping
// under a fresh temp dir and returns the dir. Cleanup is handled by the
// testing framework.
func MustWriteTestFiles(t *testing.T, files map[string]string) string {
	tmpDir := t.TempDir()
	for path, content := range files {
		abs := filepath.Join(tmpDir, path)
		if err := os.MkdirAll(filepath.Dir(abs), os.ModePerm); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), os.ModePerm); err != nil {
			t.Fatal(err)
		}
	}
	return tmpDir
}

// MustReadTestFile reads a file under dir or fails the test.
func MustReadTestFile(t *testing.T, dir string, filename string) string {
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatal("reading", filename, ":", err)
	}
	return string(data)
}
