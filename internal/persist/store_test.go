package persist

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"pkt.systems/tabula/schema"
)

func TestStoreLoadMissing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	list, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected missing bookmark file")
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	list := []schema.Bookmark{
		{URL: "https://a.com", Title: "A"},
		{URL: "https://b.com/x?y=1", Title: ""},
	}
	if err := store.Save(list); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected bookmark file")
	}
	if !reflect.DeepEqual(got, list) {
		t.Fatalf("round trip mismatch: got %#v want %#v", got, list)
	}
	info, err := os.Stat(filepath.Join(dir, BookmarksFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestStoreSaveWritesIndentedArray(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("expected empty array, got %q", data)
	}
	if err := store.Save([]schema.Bookmark{{URL: "https://a.com", Title: "A"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err = os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "\n  {\n    \"url\": \"https://a.com\"") {
		t.Fatalf("expected two-space indentation, got %s", data)
	}
}

func TestStoreLoadNotAList(t *testing.T) {
	cases := map[string]string{
		"string": `"not an array"`,
		"object": `{"url":"https://a.com"}`,
		"number": `42`,
		"items":  `[1, 2]`,
	}
	for name, body := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, BookmarksFile), []byte(body), 0o600); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		store, err := NewStore(dir)
		if err != nil {
			t.Fatalf("%s: new store: %v", name, err)
		}
		list, ok, err := store.Load()
		if !errors.Is(err, ErrNotList) {
			t.Fatalf("%s: expected ErrNotList, got %v", name, err)
		}
		if ok || len(list) != 0 {
			t.Fatalf("%s: expected empty result, got %v ok=%v", name, list, ok)
		}
	}
}

func TestStoreLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, BookmarksFile), []byte("{bad"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, ok, err := store.Load(); err == nil || ok {
		t.Fatalf("expected load error, got ok=%v err=%v", ok, err)
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore("  "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
