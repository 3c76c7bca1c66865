package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestCloudinary(srvURL string) *CloudinaryStorage {
	c := NewCloudinaryStorage(CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "portfolio"})
	c.baseURL = srvURL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestCloudinary_Sign(t *testing.T) {
	c := newTestCloudinary("")
	got := c.sign(map[string]string{"timestamp": "1700000000", "public_id": "abc"})
	sum := sha1.Sum([]byte("public_id=abc&timestamp=1700000000secret"))
	if got != hex.EncodeToString(sum[:]) {
		t.Errorf("unexpected signature %s", got)
	}
}

func TestCloudinary_Upload(t *testing.T) {
	var gotPath string
	var fields map[string]string
	var fileBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		f, _, err := r.FormFile("file")
		if err == nil {
			b, _ := io.ReadAll(f)
			fileBody = string(b)
		}
		_, _ = w.Write([]byte(`{"public_id":"portfolio/abc","secure_url":"https://res.cloudinary.com/demo/image/upload/v1/portfolio/abc.png"}`))
	}))
	defer srv.Close()

	c := newTestCloudinary(srv.URL)
	asset, err := c.Upload(context.Background(), "projects/abc.png", strings.NewReader("img"), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gotPath != "/demo/image/upload" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if asset.PublicID != "portfolio/abc" || !strings.HasPrefix(asset.URL, "https://") {
		t.Errorf("unexpected asset %+v", asset)
	}
	if fields["public_id"] != "abc" || fields["folder"] != "portfolio" || fields["api_key"] != "key" {
		t.Errorf("unexpected fields %v", fields)
	}
	want := c.sign(map[string]string{"public_id": "abc", "folder": "portfolio", "timestamp": "1700000000"})
	if fields["signature"] != want {
		t.Errorf("signature mismatch: %s != %s", fields["signature"], want)
	}
	if fileBody != "img" {
		t.Errorf("unexpected file body %q", fileBody)
	}
}

func TestCloudinary_UploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer srv.Close()

	c := newTestCloudinary(srv.URL)
	_, err := c.Upload(context.Background(), "projects/abc.png", strings.NewReader("img"), "image/png")
	if err == nil || !strings.Contains(err.Error(), "Invalid Signature") {
		t.Errorf("expected signature error, got %v", err)
	}
}

func TestCloudinary_Delete(t *testing.T) {
	tests := []struct {
		result  string
		wantErr bool
	}{
		{"ok", false},
		{"not found", false},
		{"error", true},
	}
	for _, tt := range tests {
		t.Run(tt.result, func(t *testing.T) {
			var gotID string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = r.ParseForm()
				gotID = r.PostForm.Get("public_id")
				_, _ = w.Write([]byte(`{"result":"` + tt.result + `"}`))
			}))
			defer srv.Close()

			err := newTestCloudinary(srv.URL).Delete(context.Background(), "portfolio/abc")
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if gotID != "portfolio/abc" {
				t.Errorf("unexpected public id %q", gotID)
			}
		})
	}
}
