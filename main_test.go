package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/DobbiKov/prototype-translate-dir-cli/language"
	"github.com/DobbiKov/prototype-translate-dir-cli/mirror"
	"github.com/DobbiKov/prototype-translate-dir-cli/project"
)

// chdir switches the working directory for one test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func newMainTestProject(t *testing.T, files ...string) *project.Project {
	t.Helper()
	root := t.TempDir()
	p, err := project.Init("cli-test", root)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := p.SetSource("src", language.English); err != nil {
		t.Fatalf("SetSource: %v", err)
	}
	srcPath, err := p.SourcePath()
	if err != nil {
		t.Fatalf("SourcePath: %v", err)
	}
	for _, rel := range files {
		path := filepath.Join(srcPath, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte("content of "+rel), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	chdir(t, root)
	return p
}

func TestRunMarkGlobAndLiteral(t *testing.T) {
	p := newMainTestProject(t, "a.md", "b.md", "img.png")

	if err := runMark(p, []string{filepath.Join("src", "*.md")}, project.Translatable); err != nil {
		t.Fatalf("runMark: %v", err)
	}

	files, err := p.TranslatableFiles()
	if err != nil {
		t.Fatalf("TranslatableFiles: %v", err)
	}
	want := []string{"a.md", "b.md"}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("translatable = %v, want %v", files, want)
	}

	// Literal path with no glob metacharacters.
	if err := runMark(p, []string{filepath.Join("src", "img.png")}, project.Untranslatable); err != nil {
		t.Fatalf("runMark literal: %v", err)
	}
	if got := p.UntranslatableFiles(); !reflect.DeepEqual(got, []string{"img.png"}) {
		t.Fatalf("untranslatable = %v", got)
	}
}

func TestRunMarkPersistsState(t *testing.T) {
	p := newMainTestProject(t, "a.md")

	if err := runMark(p, []string{filepath.Join("src", "a.md")}, project.Translatable); err != nil {
		t.Fatalf("runMark: %v", err)
	}

	reloaded, err := project.Load(p.Root())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if status, ok := reloaded.Status("a.md"); !ok || status != project.Translatable {
		t.Fatalf("reloaded status = %v, %v", status, ok)
	}
}

func TestRunMarkCollectsFailures(t *testing.T) {
	p := newMainTestProject(t, "a.md")

	// The missing file fails, the existing one is still marked.
	err := runMark(p, []string{
		filepath.Join("src", "missing.md"),
		filepath.Join("src", "a.md"),
	}, project.Translatable)
	if err != errItemsFailed {
		t.Fatalf("err = %v, want errItemsFailed", err)
	}
	if status, ok := p.Status("a.md"); !ok || status != project.Translatable {
		t.Fatalf("a.md status = %v, %v", status, ok)
	}
}

func TestRunMarkNoMatchIsNotAnError(t *testing.T) {
	p := newMainTestProject(t, "a.md")

	// A dead glob warns but does not fail the command.
	if err := runMark(p, []string{filepath.Join("src", "*.rst")}, project.Translatable); err != nil {
		t.Fatalf("runMark: %v", err)
	}
	translatable, untranslatable := p.ManifestCounts()
	if translatable+untranslatable != 0 {
		t.Fatalf("manifest not empty: %d/%d", translatable, untranslatable)
	}
}

func TestSyncSummary(t *testing.T) {
	cases := []struct {
		name   string
		report mirror.Report
		want   string
	}{
		{
			name:   "empty project",
			report: mirror.Report{},
			want:   "Nothing to synchronize.",
		},
		{
			name:   "all mirrors current",
			report: mirror.Report{UpToDate: 3},
			want:   "Everything up to date.",
		},
		{
			name:   "single copy",
			report: mirror.Report{Copied: []string{"fr/a.txt"}, UpToDate: 1},
			want:   "1 file copied, 1 up to date",
		},
		{
			name:   "several copies",
			report: mirror.Report{Copied: []string{"fr/a.txt", "de/a.txt"}},
			want:   "2 files copied, 0 up to date",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := syncSummary(&tc.report); got != tc.want {
				t.Fatalf("syncSummary() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("TRANSLATE_DIR_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	oldFlag := apiKeyFlag
	t.Cleanup(func() { apiKeyFlag = oldFlag })

	apiKeyFlag = ""
	if got := resolveAPIKey(); got != "" {
		t.Fatalf("resolveAPIKey() = %q, want empty", got)
	}

	t.Setenv("GOOGLE_API_KEY", "from-google-env")
	if got := resolveAPIKey(); got != "from-google-env" {
		t.Fatalf("resolveAPIKey() = %q", got)
	}

	t.Setenv("TRANSLATE_DIR_API_KEY", "from-own-env")
	if got := resolveAPIKey(); got != "from-own-env" {
		t.Fatalf("resolveAPIKey() = %q", got)
	}

	apiKeyFlag = "from-flag"
	if got := resolveAPIKey(); got != "from-flag" {
		t.Fatalf("resolveAPIKey() = %q", got)
	}
}
