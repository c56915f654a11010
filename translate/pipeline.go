// Package translate submits translatable files to an external
// translation provider and writes the results into the target
// language directories, mirroring each file's relative path.
//
// Bulk submission collects per-file outcomes instead of aborting on
// the first failure: TranslateAll reports a tally plus every failed
// path, and a failure in one file never cancels its siblings.
package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/DobbiKov/prototype-translate-dir-cli/language"
	"github.com/DobbiKov/prototype-translate-dir-cli/project"
)

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options controls pipeline behavior.
type Options struct {
	// MaxConcurrent bounds the number of in-flight provider requests
	// during TranslateAll. Default: 3.
	MaxConcurrent int
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// OnProgress is called after each file completes during TranslateAll.
	OnProgress func(done, total int)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveMaxConcurrent() int {
	if o.MaxConcurrent > 0 {
		return o.MaxConcurrent
	}
	return 3
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// Pipeline submits a project's translatable files to a provider.
type Pipeline struct {
	proj     *project.Project
	provider Provider
	opts     Options
}

// New builds a pipeline. The provider must already hold its
// credentials; NewGoogleProvider enforces that at construction.
func New(proj *project.Project, provider Provider, opts Options) *Pipeline {
	return &Pipeline{proj: proj, provider: provider, opts: opts}
}

// TranslateFile submits one file. The path may be absolute,
// cwd-relative, or manifest-relative; it must be a translatable
// manifest entry, and lang must be a configured target language.
// The translated content is written to the same relative path under
// the target language directory, creating parent directories.
func (t *Pipeline) TranslateFile(ctx context.Context, path string, lang language.Language) error {
	rel, err := t.resolveTranslatable(path)
	if err != nil {
		return err
	}
	if !t.proj.HasLanguage(lang) {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, lang)
	}
	return t.translateOne(ctx, rel, lang)
}

// FileResult is the outcome of one file inside a bulk submission.
type FileResult struct {
	Path string
	Err  error
}

// Summary is the aggregate outcome of TranslateAll. Results are in
// manifest order regardless of completion order.
type Summary struct {
	Results   []FileResult
	Succeeded int
	Failed    int
}

// Err returns an aggregate error naming the failed paths, or nil when
// every file succeeded.
func (s *Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	var failed []string
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r.Path)
		}
	}
	return fmt.Errorf("translation failed for %d of %d file(s): %v", s.Failed, len(s.Results), failed)
}

// TranslateAll submits every translatable file to lang, in manifest
// order, through a bounded worker pool. Individual failures are
// recorded per file and never block or cancel sibling submissions.
func (t *Pipeline) TranslateAll(ctx context.Context, lang language.Language) (*Summary, error) {
	if !t.proj.HasLanguage(lang) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, lang)
	}
	files, err := t.proj.TranslatableFiles()
	if err != nil {
		return nil, err
	}

	summary := &Summary{Results: make([]FileResult, len(files))}

	// Results land in their manifest slot, so reporting order stays
	// deterministic no matter how workers finish.
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	sem := make(chan struct{}, t.opts.effectiveMaxConcurrent())

	for i, rel := range files {
		wg.Add(1)
		go func(i int, rel string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := t.translateOne(ctx, rel, lang)
			summary.Results[i] = FileResult{Path: rel, Err: err}

			mu.Lock()
			done++
			d := done
			mu.Unlock()
			if t.opts.OnProgress != nil {
				t.opts.OnProgress(d, len(files))
			}
		}(i, rel)
	}
	wg.Wait()

	for _, r := range summary.Results {
		if r.Err == nil {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary, nil
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

// resolveTranslatable maps a user-supplied path to a manifest-relative
// key and verifies its status.
func (t *Pipeline) resolveTranslatable(path string) (string, error) {
	srcDir, err := t.proj.SourcePath()
	if err != nil {
		return "", err
	}

	rel := filepath.ToSlash(path)
	if status, ok := t.proj.Status(rel); ok {
		if status != project.Translatable {
			return "", fmt.Errorf("%w: %s", ErrNotTranslatable, path)
		}
		return rel, nil
	}

	// Not a manifest key as given; try resolving against the source dir.
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	relPath, err := filepath.Rel(srcDir, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotTranslatable, path)
	}
	rel = filepath.ToSlash(relPath)
	status, ok := t.proj.Status(rel)
	if !ok || status != project.Translatable {
		return "", fmt.Errorf("%w: %s", ErrNotTranslatable, path)
	}
	return rel, nil
}

// translateOne reads a source file, submits it, and writes the result
// under the target language directory.
func (t *Pipeline) translateOne(ctx context.Context, rel string, lang language.Language) error {
	srcDir, err := t.proj.SourcePath()
	if err != nil {
		return err
	}
	src := t.proj.Source()

	content, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("reading %s: %w", rel, err)
	}

	t.opts.log("translating %s to %s", rel, lang)
	translated, err := t.provider.Translate(ctx, Request{
		Content:        string(content),
		RelPath:        rel,
		SourceLanguage: src.Language,
		TargetLanguage: lang,
	})
	if err != nil {
		return fmt.Errorf("translating %s: %w", rel, err)
	}

	langDir, err := t.proj.LangPath(lang)
	if err != nil {
		return err
	}
	dst := filepath.Join(langDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}
	if err := os.WriteFile(dst, []byte(translated), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}

// IsAuthError reports whether err carries the AuthMissing kind.
func IsAuthError(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Kind == KindAuthMissing
}
