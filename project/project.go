// Package project implements the translation project aggregate: one
// optional source directory, the manifest of files known to the
// project (translatable or untranslatable), and the set of target
// language directories mirroring the source tree.
//
// The Project is the only authority over its nested collections.
// Mutators fail fast and leave no partial state behind; every
// successful mutation is expected to be followed by Save so the
// on-disk state file stays in agreement.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DobbiKov/prototype-translate-dir-cli/language"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrProjectExists is returned by Init when the directory already holds a project.
	ErrProjectExists = errors.New("project already initialized")
	// ErrNotFound is returned by Load when no project state file exists.
	ErrNotFound = errors.New("no project found")
	// ErrNoSource is returned by manifest operations before a source directory is set.
	ErrNoSource = errors.New("source directory not set")
	// ErrSourceAlreadySet is returned when set-source is attempted a second time.
	ErrSourceAlreadySet = errors.New("source directory already set")
	// ErrDuplicateLanguage is returned when adding a language that is already in use.
	ErrDuplicateLanguage = errors.New("language already in use")
	// ErrLanguageNotFound is returned when removing a language that is not configured.
	ErrLanguageNotFound = errors.New("language not configured")
	// ErrNotInSourceDir is returned when marking a file outside the source directory.
	ErrNotInSourceDir = errors.New("file is not inside the source directory")
	// ErrFileNotFound is returned when marking a file that does not exist.
	ErrFileNotFound = errors.New("file does not exist")
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Status tags a manifest entry as translatable or untranslatable.
type Status string

const (
	Translatable   Status = "translatable"
	Untranslatable Status = "untranslatable"
)

// Entry is one manifest record: a path relative to the source
// directory (slash-separated) and its status.
type Entry struct {
	Path   string `yaml:"path"`
	Status Status `yaml:"status"`
}

// SourceDir is the project's source directory and its language.
type SourceDir struct {
	// Dir is the directory name relative to the project root.
	Dir      string            `yaml:"dir"`
	Language language.Language `yaml:"language"`
}

// LangDir is one target-language directory.
type LangDir struct {
	Language language.Language `yaml:"language"`
	// Dir is the directory name relative to the project root.
	Dir string `yaml:"dir"`
}

// Project is the aggregate root.
type Project struct {
	root string

	name    string
	source  *SourceDir
	entries []Entry
	index   map[string]int // manifest path -> position in entries
	langs   []LangDir
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Name returns the project name.
func (p *Project) Name() string { return p.name }

// Root returns the absolute project root path.
func (p *Project) Root() string { return p.root }

// Source returns the source directory descriptor, or nil if not set.
func (p *Project) Source() *SourceDir {
	if p.source == nil {
		return nil
	}
	s := *p.source
	return &s
}

// SourcePath returns the absolute source directory path.
// Fails with ErrNoSource when no source is configured.
func (p *Project) SourcePath() (string, error) {
	if p.source == nil {
		return "", ErrNoSource
	}
	return filepath.Join(p.root, p.source.Dir), nil
}

// Languages returns the target language directories in the order they
// were added.
func (p *Project) Languages() []LangDir {
	out := make([]LangDir, len(p.langs))
	copy(out, p.langs)
	return out
}

// HasLanguage reports whether lang is a configured target language.
func (p *Project) HasLanguage(lang language.Language) bool {
	for _, ld := range p.langs {
		if ld.Language == lang {
			return true
		}
	}
	return false
}

// LangPath returns the absolute directory for a target language.
// Fails with ErrLanguageNotFound when lang is not configured.
func (p *Project) LangPath(lang language.Language) (string, error) {
	for _, ld := range p.langs {
		if ld.Language == lang {
			return filepath.Join(p.root, ld.Dir), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLanguageNotFound, lang)
}

// Manifest returns a copy of all manifest entries in insertion order.
func (p *Project) Manifest() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// ManifestCounts returns how many entries hold each status.
func (p *Project) ManifestCounts() (translatable, untranslatable int) {
	for _, e := range p.entries {
		switch e.Status {
		case Translatable:
			translatable++
		case Untranslatable:
			untranslatable++
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Language directory set
// ---------------------------------------------------------------------------

// SetSource assigns the source directory and language. The directory
// lives at root/dirName and is created on disk if absent. A project's
// source is set at most once; a second call fails with
// ErrSourceAlreadySet regardless of arguments.
func (p *Project) SetSource(dirName string, lang language.Language) error {
	if p.source != nil {
		return fmt.Errorf("%w (%s, %s)", ErrSourceAlreadySet, p.source.Dir, p.source.Language)
	}
	if p.HasLanguage(lang) {
		return fmt.Errorf("%w: %s is already a target language", ErrDuplicateLanguage, lang)
	}

	dir := filepath.Join(p.root, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating source directory: %w", err)
	}

	p.source = &SourceDir{Dir: dirName, Language: lang}
	return nil
}

// AddLanguage registers a new target language. The directory name is
// derived from the language code (root/<code>) and created on disk.
func (p *Project) AddLanguage(lang language.Language) error {
	if p.source != nil && p.source.Language == lang {
		return fmt.Errorf("%w: %s is the source language", ErrDuplicateLanguage, lang)
	}
	if p.HasLanguage(lang) {
		return fmt.Errorf("%w: %s", ErrDuplicateLanguage, lang)
	}

	dirName := lang.Code()
	if err := os.MkdirAll(filepath.Join(p.root, dirName), 0755); err != nil {
		return fmt.Errorf("creating language directory: %w", err)
	}

	p.langs = append(p.langs, LangDir{Language: lang, Dir: dirName})
	return nil
}

// RemoveLanguage forgets a target language. On-disk content under the
// language directory is deliberately left in place; removal only stops
// future synchronization and translation into it.
func (p *Project) RemoveLanguage(lang language.Language) error {
	for i, ld := range p.langs {
		if ld.Language == lang {
			p.langs = append(p.langs[:i], p.langs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrLanguageNotFound, lang)
}

// ---------------------------------------------------------------------------
// Manifest store
// ---------------------------------------------------------------------------

// Mark records a file's status in the manifest. The path may be
// absolute or relative to the current working directory; it must exist
// and resolve inside the source directory. Marking is idempotent, and
// re-marking with a different status flips the entry in place without
// duplicating it.
func (p *Project) Mark(path string, status Status) error {
	rel, err := p.relToSource(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(filepath.Join(p.root, p.source.Dir, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	if i, ok := p.index[rel]; ok {
		p.entries[i].Status = status
		return nil
	}
	p.entries = append(p.entries, Entry{Path: rel, Status: status})
	p.index[rel] = len(p.entries) - 1
	return nil
}

// relToSource resolves path to a slash-separated manifest key relative
// to the source directory, rejecting anything that escapes it.
func (p *Project) relToSource(path string) (string, error) {
	if p.source == nil {
		return "", ErrNoSource
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	srcAbs, err := filepath.Abs(filepath.Join(p.root, p.source.Dir))
	if err != nil {
		return "", fmt.Errorf("resolving source directory: %w", err)
	}

	rel, err := filepath.Rel(srcAbs, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrNotInSourceDir, path)
	}
	return filepath.ToSlash(rel), nil
}

// Status returns the manifest status of a relative path, if present.
func (p *Project) Status(relPath string) (Status, bool) {
	if i, ok := p.index[filepath.ToSlash(relPath)]; ok {
		return p.entries[i].Status, true
	}
	return "", false
}

// TranslatableFiles returns the relative paths of all translatable
// entries in insertion order.
func (p *Project) TranslatableFiles() ([]string, error) {
	if p.source == nil {
		return nil, ErrNoSource
	}
	var out []string
	for _, e := range p.entries {
		if e.Status == Translatable {
			out = append(out, e.Path)
		}
	}
	return out, nil
}

// UntranslatableFiles returns the relative paths of all untranslatable
// entries in insertion order.
func (p *Project) UntranslatableFiles() []string {
	var out []string
	for _, e := range p.entries {
		if e.Status == Untranslatable {
			out = append(out, e.Path)
		}
	}
	return out
}

// Prune drops a manifest entry. Used by synchronization when the
// underlying source file no longer exists; not exposed as a direct
// CLI action.
func (p *Project) Prune(relPath string) bool {
	rel := filepath.ToSlash(relPath)
	i, ok := p.index[rel]
	if !ok {
		return false
	}
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
	delete(p.index, rel)
	for j := i; j < len(p.entries); j++ {
		p.index[p.entries[j].Path] = j
	}
	return true
}

func (p *Project) rebuildIndex() {
	p.index = make(map[string]int, len(p.entries))
	for i, e := range p.entries {
		p.index[e.Path] = i
	}
}
