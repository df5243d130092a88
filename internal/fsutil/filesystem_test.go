package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	m := NewMemoryFileSystem()

	if err := m.WriteFile("/data/a.csv", []byte("1,2,3"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := m.ReadFile("/data/a.csv")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "1,2,3" {
		t.Errorf("ReadFile = %q, want %q", got, "1,2,3")
	}
	if !m.Exists("/data") {
		t.Error("parent directory should exist after WriteFile")
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	m := NewMemoryFileSystem()
	data := []byte("abc")
	_ = m.WriteFile("/x", data, 0644)
	data[0] = 'z'

	got, _ := m.ReadFile("/x")
	got[1] = 'z'
	again, _ := m.ReadFile("/x")
	if string(again) != "abc" {
		t.Errorf("stored data was mutated: %q", again)
	}
}

func TestMemoryFileSystem_ReadNonExistent(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.ReadFile("/missing")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	m := NewMemoryFileSystem()
	_ = m.WriteFile("/d/f.json", []byte("{}"), 0600)

	info, err := m.Stat("/d/f.json")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "f.json" || info.Size() != 2 || info.IsDir() || info.Mode() != 0600 {
		t.Errorf("unexpected file info: %+v", info)
	}

	dir, err := m.Stat("/d")
	if err != nil || !dir.IsDir() {
		t.Errorf("Stat(/d) = %v, %v; want directory", dir, err)
	}

	if _, err := m.Stat("/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_RemoveAll(t *testing.T) {
	m := NewMemoryFileSystem()
	_ = m.WriteFile("/out/training/a.tiff", []byte("a"), 0644)
	_ = m.WriteFile("/out/training/a.csv", []byte("a"), 0644)
	_ = m.WriteFile("/out/test/b.tiff", []byte("b"), 0644)

	if err := m.RemoveAll("/out/training"); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if m.Exists("/out/training/a.tiff") || m.Exists("/out/training") {
		t.Error("training tree should be removed")
	}
	if !m.Exists("/out/test/b.tiff") {
		t.Error("sibling tree should survive")
	}
}

func TestMemoryFileSystem_WalkFilesOrder(t *testing.T) {
	m := NewMemoryFileSystem()
	for _, name := range []string{"/in/b/2.tiff", "/in/a.json", "/in/b/1.tiff", "/in/.hidden", "/other/x"} {
		_ = m.WriteFile(name, nil, 0644)
	}

	var got []string
	err := m.WalkFiles("/in", func(path string) error {
		got = append(got, path)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkFiles failed: %v", err)
	}

	want := []string{"/in/.hidden", "/in/a.json", "/in/b/1.tiff", "/in/b/2.tiff"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryFileSystem_WalkFilesStops(t *testing.T) {
	m := NewMemoryFileSystem()
	_ = m.WriteFile("/in/1", nil, 0644)
	_ = m.WriteFile("/in/2", nil, 0644)

	stop := errors.New("stop")
	calls := 0
	err := m.WalkFiles("/in", func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("WalkFiles returned %v after %d calls", err, calls)
	}

	if err := m.WalkFiles("/missing", func(string) error { return nil }); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist for missing root, got %v", err)
	}
}

func TestOSFileSystem_WalkAndCopy(t *testing.T) {
	tmpDir := t.TempDir()
	var osfs OSFileSystem

	if err := osfs.MkdirAll(filepath.Join(tmpDir, "in", "sub"), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	src := filepath.Join(tmpDir, "in", "sub", "a.csv")
	if err := osfs.WriteFile(src, []byte("5,5,5"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	var walked []string
	if err := osfs.WalkFiles(filepath.Join(tmpDir, "in"), func(p string) error {
		walked = append(walked, p)
		return nil
	}); err != nil {
		t.Fatalf("WalkFiles failed: %v", err)
	}
	if len(walked) != 1 || walked[0] != src {
		t.Errorf("walked %v, want [%s]", walked, src)
	}

	dst := filepath.Join(tmpDir, "copy.csv")
	if err := CopyFile(osfs, src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "5,5,5" {
		t.Errorf("copied data = %q, %v", data, err)
	}

	if err := osfs.RemoveAll(filepath.Join(tmpDir, "in")); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if osfs.Exists(src) {
		t.Error("file should be gone after RemoveAll")
	}
}

func TestIsHidden(t *testing.T) {
	tests := map[string]bool{
		"/a/.DS_Store":  true,
		".gitkeep":      true,
		"/a/b.tiff":     false,
		"/.hidden/b.cs": false,
	}
	for path, want := range tests {
		if got := IsHidden(path); got != want {
			t.Errorf("IsHidden(%q) = %v, want %v", path, got, want)
		}
	}
}
