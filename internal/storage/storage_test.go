package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestValidatePhoto(t *testing.T) {
	cases := []struct {
		name    string
		data    []byte
		wantExt string
		wantErr error
	}{
		{name: "png", data: pngHeader, wantExt: "png"},
		{name: "jpeg", data: append([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}, []byte("JFIF\x00")...), wantExt: "jpg"},
		{name: "webp", data: []byte("RIFF\x24\x00\x00\x00WEBPVP8 \x18\x00\x00\x00"), wantExt: "webp"},
		{name: "text", data: []byte("just some text"), wantErr: ErrUnsupportedPhotoType},
		{name: "empty", data: nil, wantErr: ErrEmptyPhoto},
		{name: "too large", data: append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxPhotoBytes)...), wantErr: ErrPhotoTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ext, _, err := ValidatePhoto(tc.data)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ext != tc.wantExt {
				t.Fatalf("ext = %q, want %q", ext, tc.wantExt)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1733900000123)
	name, err := ObjectName("m-1", "receipt", "png", now)
	if err != nil {
		t.Fatalf("object name: %v", err)
	}
	if !regexp.MustCompile(`^m-1/receipt_1733900000123_[0-9a-f]{8}\.png$`).MatchString(name) {
		t.Fatalf("unexpected object name %q", name)
	}
	if _, err := ObjectName(" ", "receipt", "png", now); err == nil {
		t.Fatalf("expected error for empty master id")
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/photos/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	name := "m-1/product_1_abc.png"

	if err := store.Put(ctx, name, pngHeader, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "m-1", "product_1_abc.png"))
	if err != nil || !bytes.Equal(data, pngHeader) {
		t.Fatalf("stored bytes mismatch: %v", err)
	}
	if err := store.Put(ctx, name, pngHeader, "image/png"); !errors.Is(err, ErrObjectExists) {
		t.Fatalf("second put err = %v, want ErrObjectExists", err)
	}
	if got := store.PublicURL(name); got != "/photos/m-1/product_1_abc.png" {
		t.Fatalf("public url = %q", got)
	}

	if err := store.Delete(ctx, name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, name); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/photos")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	err = store.Put(context.Background(), "../escape.png", pngHeader, "image/png")
	if err == nil || !strings.Contains(err.Error(), "invalid object name") {
		t.Fatalf("err = %v, want invalid object name", err)
	}
}

func TestGCSStorePublicURL(t *testing.T) {
	s := NewGCSStore(nil, "audit-photos", "")
	if got := s.PublicURL("m/x.png"); got != "https://storage.googleapis.com/audit-photos/m/x.png" {
		t.Fatalf("public url = %q", got)
	}
}
