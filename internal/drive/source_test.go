package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// fakeDrive serves one file, management.json, from folder "facts".
func fakeDrive(t *testing.T) *Service {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/files/f1" && r.URL.Query().Get("alt") == "media":
			fmt.Fprint(w, `{"sales": []}`)
		case r.URL.Path == "/files":
			w.Header().Set("Content-Type", "application/json")
			q := r.URL.Query().Get("q")
			if strings.Contains(q, "'facts' in parents") && strings.Contains(q, "name='management.json'") {
				fmt.Fprint(w, `{"files": [{"id": "f1", "name": "management.json", "mimeType": "application/json", "size": "13"}]}`)
				return
			}
			fmt.Fprint(w, `{"files": []}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	srv, err := drive.NewService(context.Background(),
		option.WithEndpoint(ts.URL+"/"),
		option.WithHTTPClient(ts.Client()),
	)
	if err != nil {
		t.Fatalf("drive.NewService() error = %v", err)
	}
	return &Service{srv: srv}
}

func TestFileSourceOpen(t *testing.T) {
	ctx := context.Background()
	src, err := NewFileSource(ctx, fakeDrive(t), "facts", "ignored/path")
	if err != nil {
		t.Fatalf("NewFileSource() error = %v", err)
	}
	if src.Name() != "drive:facts" {
		t.Errorf("Name() = %q", src.Name())
	}

	rc, err := src.Open(ctx, "management.json")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != `{"sales": []}` {
		t.Errorf("body = %q", body)
	}

	if _, err := src.Open(ctx, "products.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want fs.ErrNotExist", err)
	}
}

func TestFindFolderByPathEmptyIsRoot(t *testing.T) {
	id, err := (&Service{}).FindFolderByPath(context.Background(), "")
	if err != nil || id != "root" {
		t.Fatalf("FindFolderByPath(\"\") = %q, %v", id, err)
	}
}

func TestNewServiceRejectsBadCredentials(t *testing.T) {
	if _, err := NewService(context.Background(), []byte("not json")); err == nil {
		t.Fatal("expected an error for malformed credentials")
	}
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery("Sara's facts"); got != `Sara\'s facts` {
		t.Errorf("escapeQuery() = %q", got)
	}
}
