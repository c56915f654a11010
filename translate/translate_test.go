package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DobbiKov/prototype-translate-dir-cli/language"
	"github.com/DobbiKov/prototype-translate-dir-cli/project"
)

// fakeProvider returns canned translations and records call order.
type fakeProvider struct {
	mu    sync.Mutex
	calls []string
	// failOn maps rel paths to the error to return.
	failOn map[string]error
}

func (f *fakeProvider) Translate(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.RelPath)
	f.mu.Unlock()
	if err, ok := f.failOn[req.RelPath]; ok {
		return "", err
	}
	return "translated: " + req.Content, nil
}

func setupProject(t *testing.T, files ...string) *project.Project {
	t.Helper()
	p, err := project.Init("pipe-test", t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := p.SetSource("src", language.English); err != nil {
		t.Fatalf("SetSource: %v", err)
	}
	if err := p.AddLanguage(language.French); err != nil {
		t.Fatalf("AddLanguage: %v", err)
	}
	for _, f := range files {
		path := filepath.Join(p.Root(), "src", filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte("text of "+f), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := p.Mark(path, project.Translatable); err != nil {
			t.Fatalf("Mark: %v", err)
		}
	}
	return p
}

func TestTranslateFile(t *testing.T) {
	t.Run("writes result to mirrored path", func(t *testing.T) {
		p := setupProject(t, "docs/guide.md")
		pipe := New(p, &fakeProvider{}, Options{})

		if err := pipe.TranslateFile(context.Background(), "docs/guide.md", language.French); err != nil {
			t.Fatalf("TranslateFile: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(p.Root(), "fr", "docs", "guide.md"))
		if err != nil {
			t.Fatalf("translated file missing: %v", err)
		}
		if string(data) != "translated: text of docs/guide.md" {
			t.Fatalf("content = %q", data)
		}
	})

	t.Run("rejects untranslatable file", func(t *testing.T) {
		p := setupProject(t)
		raw := filepath.Join(p.Root(), "src", "raw.bin")
		if err := os.WriteFile(raw, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := p.Mark(raw, project.Untranslatable); err != nil {
			t.Fatalf("Mark: %v", err)
		}

		pipe := New(p, &fakeProvider{}, Options{})
		err := pipe.TranslateFile(context.Background(), "raw.bin", language.French)
		if !errors.Is(err, ErrNotTranslatable) {
			t.Fatalf("error = %v, want ErrNotTranslatable", err)
		}
	})

	t.Run("rejects unmarked file", func(t *testing.T) {
		p := setupProject(t)
		pipe := New(p, &fakeProvider{}, Options{})
		err := pipe.TranslateFile(context.Background(), "ghost.md", language.French)
		if !errors.Is(err, ErrNotTranslatable) {
			t.Fatalf("error = %v, want ErrNotTranslatable", err)
		}
	})

	t.Run("rejects unknown target language", func(t *testing.T) {
		p := setupProject(t, "a.md")
		pipe := New(p, &fakeProvider{}, Options{})
		err := pipe.TranslateFile(context.Background(), "a.md", language.Japanese)
		if !errors.Is(err, ErrUnknownTarget) {
			t.Fatalf("error = %v, want ErrUnknownTarget", err)
		}
	})
}

func TestTranslateAll(t *testing.T) {
	t.Run("partial failure reports full tally", func(t *testing.T) {
		p := setupProject(t, "one.md", "two.md", "three.md")
		provider := &fakeProvider{failOn: map[string]error{
			"two.md": newProviderError(KindPermanent, "rejected"),
		}}
		pipe := New(p, provider, Options{MaxConcurrent: 1})

		summary, err := pipe.TranslateAll(context.Background(), language.French)
		if err != nil {
			t.Fatalf("TranslateAll: %v", err)
		}
		if summary.Succeeded != 2 || summary.Failed != 1 {
			t.Fatalf("tally = %d/%d, want 2 successes 1 failure", summary.Succeeded, summary.Failed)
		}
		if len(provider.calls) != 3 {
			t.Fatalf("provider called %d times, want 3 (failure must not abort siblings)", len(provider.calls))
		}
		if summary.Err() == nil {
			t.Fatal("Summary.Err must be non-nil when any file failed")
		}

		// Files 1 and 3 still produced output.
		for _, f := range []string{"one.md", "three.md"} {
			if _, err := os.Stat(filepath.Join(p.Root(), "fr", f)); err != nil {
				t.Fatalf("output missing for %s: %v", f, err)
			}
		}
		if _, err := os.Stat(filepath.Join(p.Root(), "fr", "two.md")); !os.IsNotExist(err) {
			t.Fatalf("failed file produced output: %v", err)
		}
	})

	t.Run("results stay in manifest order under concurrency", func(t *testing.T) {
		files := make([]string, 8)
		for i := range files {
			files[i] = fmt.Sprintf("f%d.md", i)
		}
		p := setupProject(t, files...)
		pipe := New(p, &fakeProvider{}, Options{MaxConcurrent: 4})

		summary, err := pipe.TranslateAll(context.Background(), language.French)
		if err != nil {
			t.Fatalf("TranslateAll: %v", err)
		}
		for i, r := range summary.Results {
			if r.Path != files[i] {
				t.Fatalf("Results[%d] = %s, want %s", i, r.Path, files[i])
			}
		}
	})

	// Workers share one provider; run with -race to catch unsynchronized
	// state inside it.
	t.Run("shared Google provider across workers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
		}))
		defer srv.Close()

		files := make([]string, 6)
		for i := range files {
			files[i] = fmt.Sprintf("doc%d.md", i)
		}
		p := setupProject(t, files...)

		provider, err := NewGoogleProvider("k")
		if err != nil {
			t.Fatalf("NewGoogleProvider: %v", err)
		}
		provider.BaseURL = srv.URL

		pipe := New(p, provider, Options{MaxConcurrent: 4})
		summary, err := pipe.TranslateAll(context.Background(), language.French)
		if err != nil {
			t.Fatalf("TranslateAll: %v", err)
		}
		if summary.Failed != 0 || summary.Succeeded != len(files) {
			t.Fatalf("tally = %d/%d, want %d successes", summary.Succeeded, summary.Failed, len(files))
		}
		for _, f := range files {
			if _, err := os.Stat(filepath.Join(p.Root(), "fr", f)); err != nil {
				t.Fatalf("output missing for %s: %v", f, err)
			}
		}
	})

	t.Run("unknown target checked before any work", func(t *testing.T) {
		p := setupProject(t, "a.md")
		provider := &fakeProvider{}
		pipe := New(p, provider, Options{})

		if _, err := pipe.TranslateAll(context.Background(), language.German); !errors.Is(err, ErrUnknownTarget) {
			t.Fatalf("error = %v, want ErrUnknownTarget", err)
		}
		if len(provider.calls) != 0 {
			t.Fatalf("provider called %d times before validation", len(provider.calls))
		}
	})
}

func TestCredentialGate(t *testing.T) {
	_, err := NewGoogleProvider("")
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("error = %v, want ErrNoCredentials", err)
	}
	if !IsAuthError(err) {
		t.Fatalf("missing credentials must classify as auth error: %v", err)
	}
}

func TestGoogleProviderClassification(t *testing.T) {
	newServer := func(status int, body string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			fmt.Fprint(w, body)
		}))
	}
	req := Request{
		Content:        "hello",
		RelPath:        "a.md",
		SourceLanguage: language.English,
		TargetLanguage: language.French,
	}

	t.Run("success parses candidate text", func(t *testing.T) {
		srv := newServer(http.StatusOK,
			`{"candidates":[{"content":{"parts":[{"text":"bonjour"}]}}]}`)
		defer srv.Close()

		g := &GoogleProvider{BaseURL: srv.URL, APIKey: "k"}
		got, err := g.Translate(context.Background(), req)
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		if got != "bonjour" {
			t.Fatalf("got %q", got)
		}
	})

	kinds := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"403 is auth", http.StatusForbidden, KindAuthMissing},
		{"429 is transient", http.StatusTooManyRequests, KindTransient},
		{"500 is transient", http.StatusInternalServerError, KindTransient},
		{"400 is permanent", http.StatusBadRequest, KindPermanent},
	}
	for _, tc := range kinds {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(tc.status, `{}`)
			defer srv.Close()

			g := &GoogleProvider{BaseURL: srv.URL, APIKey: "k"}
			_, err := g.Translate(context.Background(), req)
			var perr *ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("error %v is not a ProviderError", err)
			}
			if perr.Kind != tc.want {
				t.Fatalf("kind = %s, want %s", perr.Kind, tc.want)
			}
		})
	}
}
