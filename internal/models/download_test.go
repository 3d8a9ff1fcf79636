package models

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadFile(t *testing.T) {
	payload := []byte("model bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")
	if err := downloadFile(srv.URL, dest, "model.bin"); err != nil {
		t.Fatalf("downloadFile() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading dest: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("downloaded content = %q, want %q", got, payload)
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after successful download")
	}
}

func TestDownloadFileHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")
	if err := downloadFile(srv.URL, dest, "model.bin"); err == nil {
		t.Fatal("downloadFile() with 404 should return error")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("dest file should not exist after failed download")
	}
}

func TestDownloadWhisperSkipsExisting(t *testing.T) {
	modelsDir := t.TempDir()
	dest := filepath.Join(modelsDir, whisperModelName)
	if err := os.WriteFile(dest, []byte("already here"), 0644); err != nil {
		t.Fatal(err)
	}

	// URL points nowhere; the existing file must short-circuit the fetch.
	if err := downloadWhisperFrom("http://127.0.0.1:0/nope", modelsDir); err != nil {
		t.Fatalf("downloadWhisperFrom() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "already here" {
		t.Errorf("existing model was overwritten: %q", got)
	}
}

func TestDownloadParakeet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("content of " + filepath.Base(r.URL.Path)))
	}))
	defer srv.Close()

	modelsDir := t.TempDir()
	destDir := filepath.Join(modelsDir, parakeetDirName)

	// Pre-seed one file so the skip path is exercised too.
	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(destDir, "tokens.txt"), []byte("seeded"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := downloadParakeetFrom(srv.URL, modelsDir); err != nil {
		t.Fatalf("downloadParakeetFrom() error = %v", err)
	}

	for _, name := range parakeetFiles {
		info, err := os.Stat(filepath.Join(destDir, name))
		if err != nil {
			t.Fatalf("%s missing after download: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	got, err := os.ReadFile(filepath.Join(destDir, "tokens.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "seeded" {
		t.Errorf("pre-seeded tokens.txt was overwritten: %q", got)
	}
}

func TestStatus(t *testing.T) {
	modelsDir := t.TempDir()

	statuses := Status(modelsDir)
	if len(statuses) != 2 {
		t.Fatalf("Status() returned %d entries, want 2", len(statuses))
	}
	for _, st := range statuses {
		if st.Installed {
			t.Errorf("%s reported installed in empty dir", st.Name)
		}
	}

	// Install whisper and all parakeet files.
	if err := os.WriteFile(filepath.Join(modelsDir, whisperModelName), []byte("ggml"), 0644); err != nil {
		t.Fatal(err)
	}
	destDir := filepath.Join(modelsDir, parakeetDirName)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range parakeetFiles {
		if err := os.WriteFile(filepath.Join(destDir, name), []byte("onnx"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	statuses = Status(modelsDir)
	for _, st := range statuses {
		if !st.Installed {
			t.Errorf("%s reported missing after install", st.Name)
		}
		if st.SizeMB <= 0 {
			t.Errorf("%s SizeMB = %g, want > 0", st.Name, st.SizeMB)
		}
	}
}

func TestMissingParakeetFiles(t *testing.T) {
	modelsDir := t.TempDir()

	missing := MissingParakeetFiles(modelsDir)
	if len(missing) != len(parakeetFiles) {
		t.Fatalf("MissingParakeetFiles() = %v, want all %d files", missing, len(parakeetFiles))
	}

	destDir := filepath.Join(modelsDir, parakeetDirName)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(destDir, "encoder.int8.onnx"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	missing = MissingParakeetFiles(modelsDir)
	for _, name := range missing {
		if name == "encoder.int8.onnx" {
			t.Error("encoder.int8.onnx reported missing after creation")
		}
	}
	if len(missing) != len(parakeetFiles)-1 {
		t.Errorf("MissingParakeetFiles() = %v, want %d entries", missing, len(parakeetFiles)-1)
	}
}
