// Package mirror synchronizes untranslatable files into every target
// language directory: each untranslatable manifest entry gets a copy
// at the same relative path under each target directory.
//
// Only the untranslatable subset is managed here. Files produced by
// translation (translatable-origin artifacts) are never created,
// overwritten, or removed by a sync pass.
//
// A sync pass is idempotent: signatures of mirrored content are kept
// in a lock file, and a second pass with no intervening manifest or
// filesystem change performs zero copies.
package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DobbiKov/prototype-translate-dir-cli/project"
)

// Failure records one file copy that went wrong during a sync pass.
type Failure struct {
	// Path is the manifest-relative path of the source file.
	Path string
	// Language is the target language code the copy was meant for.
	Language string
	Err      error
}

// Report is the outcome of one sync pass. Per-file errors are
// collected rather than aborting the pass.
type Report struct {
	// Copied lists "lang/relpath" destinations that were (re)written.
	Copied []string
	// UpToDate counts mirrors that needed no copy.
	UpToDate int
	// Pruned lists manifest entries dropped because the source file is gone.
	Pruned []string
	// Failed lists copies that errored.
	Failed []Failure
}

// Err returns an aggregate error naming every failed path, or nil when
// the pass fully succeeded.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		parts = append(parts, fmt.Sprintf("%s -> %s (%v)", f.Path, f.Language, f.Err))
	}
	return fmt.Errorf("sync failed for %d file(s): %s", len(r.Failed), strings.Join(parts, "; "))
}

// Sync brings every target language directory's untranslatable mirrors
// into agreement with the manifest. Manifest entries whose source file
// no longer exists are pruned first; the caller is expected to Save
// the project afterwards when anything was pruned.
func Sync(p *project.Project) (*Report, error) {
	srcDir, err := p.SourcePath()
	if err != nil {
		return nil, err
	}

	lock, err := loadLock(p.Root())
	if err != nil {
		return nil, err
	}

	report := &Report{}

	// Drop manifest entries whose files are gone before mirroring.
	for _, e := range p.Manifest() {
		if _, err := os.Stat(filepath.Join(srcDir, filepath.FromSlash(e.Path))); os.IsNotExist(err) {
			p.Prune(e.Path)
			report.Pruned = append(report.Pruned, e.Path)
		}
	}

	langs := p.Languages()
	untranslatable := p.UntranslatableFiles()

	for _, rel := range untranslatable {
		content, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
		if err != nil {
			for _, ld := range langs {
				report.Failed = append(report.Failed, Failure{Path: rel, Language: ld.Language.Code(), Err: err})
			}
			continue
		}
		sig := hash(content)

		for _, ld := range langs {
			code := ld.Language.Code()
			dst := filepath.Join(p.Root(), ld.Dir, filepath.FromSlash(rel))

			if lock.upToDate(code, rel, sig) {
				if _, err := os.Stat(dst); err == nil {
					report.UpToDate++
					continue
				}
				// Mirror vanished from disk; fall through and recopy.
			}

			if err := writeMirror(dst, content); err != nil {
				report.Failed = append(report.Failed, Failure{Path: rel, Language: code, Err: err})
				continue
			}
			lock.record(code, rel, sig)
			report.Copied = append(report.Copied, code+"/"+rel)
		}
	}

	langCodes := make([]string, 0, len(langs))
	for _, ld := range langs {
		langCodes = append(langCodes, ld.Language.Code())
	}
	lock.clean(langCodes, untranslatable)

	if err := lock.save(); err != nil {
		return report, err
	}
	return report, nil
}

// writeMirror writes content to dst, creating parent directories.
func writeMirror(dst string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating mirror directory: %w", err)
	}
	if err := os.WriteFile(dst, content, 0644); err != nil {
		return fmt.Errorf("writing mirror: %w", err)
	}
	return nil
}

// IsNothingToDo reports whether the report describes a pass that
// changed nothing on disk.
func (r *Report) IsNothingToDo() bool {
	return len(r.Copied) == 0 && len(r.Pruned) == 0 && len(r.Failed) == 0
}
