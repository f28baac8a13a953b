package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"github.com/aob-scanner/book-scanner/internal/models"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return "https://blobs.example/" + key, nil
}

func TestArchiveKeysAreUnique(t *testing.T) {
	store := newMemoryStore()
	archiver := NewArchiver(store)
	img := models.ImagePayload{Data: []byte("same bytes"), Ordinal: 1}

	first, err := archiver.Archive(context.Background(), []models.ImagePayload{img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := archiver.Archive(context.Background(), []models.ImagePayload{img})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first[1].Key == second[1].Key {
		t.Errorf("expected distinct keys, both %s", first[1].Key)
	}
	if first[1].URL == second[1].URL {
		t.Errorf("expected distinct URLs, both %s", first[1].URL)
	}
	if !strings.HasPrefix(first[1].Key, CoverPrefix) || !strings.HasSuffix(first[1].Key, ".jpg") {
		t.Errorf("unexpected key layout: %s", first[1].Key)
	}
	if store.types[first[1].Key] != "image/jpeg" {
		t.Errorf("expected default image/jpeg, got %s", store.types[first[1].Key])
	}
}

func TestArchiveTwoImages(t *testing.T) {
	store := newMemoryStore()
	archived, err := NewArchiver(store).Archive(context.Background(), []models.ImagePayload{
		{Data: []byte("a"), MIMEType: "image/png", Ordinal: 1},
		{Data: []byte("b"), MIMEType: "image/jpeg", Ordinal: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(archived) != 2 {
		t.Fatalf("expected 2 archived images, got %d", len(archived))
	}
	if !strings.HasSuffix(archived[1].Key, ".png") {
		t.Errorf("expected png key, got %s", archived[1].Key)
	}
}

func TestArchiveFailures(t *testing.T) {
	tests := []struct {
		name       string
		store      BlobStore
		wantReason models.Reason
	}{
		{name: "not configured", store: Unavailable(errors.New("GCS_BUCKET_NAME not set")), wantReason: models.ReasonNotConfigured},
		{name: "nil store", store: nil, wantReason: models.ReasonNotConfigured},
		{name: "write failure", store: &memoryStore{fail: errors.New("boom")}, wantReason: models.ReasonWriteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archived, err := NewArchiver(tt.store).Archive(context.Background(), []models.ImagePayload{
				{Data: []byte("a"), Ordinal: 1},
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if len(archived) != 0 {
				t.Errorf("expected nothing archived, got %v", archived)
			}
			var aerr *models.ArchiveError
			if !errors.As(err, &aerr) {
				t.Fatalf("expected ArchiveError, got %T", err)
			}
			if aerr.Reason != tt.wantReason {
				t.Errorf("reason = %s, want %s", aerr.Reason, tt.wantReason)
			}
		})
	}
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := store.Put(context.Background(), "book_covers/abc.jpg", []byte("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://localhost:8080/static/uploads/book_covers/abc.jpg" {
		t.Errorf("unexpected url: %s", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "book_covers", "abc.jpg"))
	if err != nil {
		t.Fatalf("expected file written: %v", err)
	}
	if string(data) != "jpeg" {
		t.Errorf("unexpected content: %q", data)
	}

	if _, err := store.Put(context.Background(), "../escape.jpg", []byte("x"), "image/jpeg"); err == nil {
		t.Error("expected traversal key to be rejected")
	}
}

func TestGCSStoreUploadsPublicObject(t *testing.T) {
	var gotPath, gotACL, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotACL = r.URL.Query().Get("predefinedAcl")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"book_covers/x.jpg","bucket":"covers"}`))
	}))
	defer server.Close()

	store, err := NewGCSStore(context.Background(), "covers", "",
		option.WithEndpoint(server.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := store.Put(context.Background(), "book_covers/x.jpg", []byte("cover-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if url != "https://storage.googleapis.com/covers/book_covers/x.jpg" {
		t.Errorf("unexpected public url: %s", url)
	}
	if !strings.Contains(gotPath, "/b/covers/o") {
		t.Errorf("unexpected upload path: %s", gotPath)
	}
	if gotACL != "publicRead" {
		t.Errorf("expected publicRead ACL, got %q", gotACL)
	}
	if !strings.Contains(gotBody, "cover-bytes") {
		t.Error("expected image bytes in upload body")
	}
}

func TestNewGCSStoreRequiresBucket(t *testing.T) {
	_, err := NewGCSStore(context.Background(), "", "")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"":                 ".jpg",
		"image/jpeg":       ".jpg",
		"image/png":        ".png",
		"application/json": ".json",
	}
	for in, want := range tests {
		if got := ExtensionFor(in); got != want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", in, got, want)
		}
	}
}
