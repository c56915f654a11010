// Project state persistence — translate-dir.yaml.
//
// The state file is the single source of truth for a project: name,
// source directory, manifest, and target languages. Load validates
// everything up front so the rest of the program never sees a
// half-formed project.

package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/DobbiKov/prototype-translate-dir-cli/language"
)

// StateFileName is the project state file, stored at the project root.
const StateFileName = "translate-dir.yaml"

// stateVersion is the state file format version.
const stateVersion = 1

// state is the YAML shape of translate-dir.yaml.
type state struct {
	Version   int        `yaml:"version"`
	Name      string     `yaml:"name"`
	Source    *SourceDir `yaml:"source,omitempty"`
	Manifest  []Entry    `yaml:"manifest,omitempty"`
	Languages []LangDir  `yaml:"languages,omitempty"`
}

// ---------------------------------------------------------------------------
// Init / Load / Save
// ---------------------------------------------------------------------------

// Init creates a new project in root, creating the directory if
// needed. Fails with ErrProjectExists when root already holds a
// state file.
func Init(name, root string) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	if _, err := os.Stat(filepath.Join(absRoot, StateFileName)); err == nil {
		return nil, fmt.Errorf("%w in %s", ErrProjectExists, absRoot)
	}
	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, fmt.Errorf("creating project root: %w", err)
	}

	p := &Project{
		root:  absRoot,
		name:  name,
		index: make(map[string]int),
	}
	if err := p.Save(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a project from root. Fails with ErrNotFound when no state
// file exists there.
func Load(root string) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	path := filepath.Join(absRoot, StateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNotFound, absRoot)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var st state
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := validate(&st, path); err != nil {
		return nil, err
	}

	p := &Project{
		root:    absRoot,
		name:    st.Name,
		source:  st.Source,
		entries: st.Manifest,
		langs:   st.Languages,
	}
	p.rebuildIndex()
	return p, nil
}

// Save writes the project state back to the root.
func (p *Project) Save() error {
	st := state{
		Version:   stateVersion,
		Name:      p.name,
		Source:    p.source,
		Manifest:  p.entries,
		Languages: p.langs,
	}

	data, err := yaml.Marshal(&st)
	if err != nil {
		return fmt.Errorf("marshaling project state: %w", err)
	}

	path := filepath.Join(p.root, StateFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func validate(st *state, path string) error {
	if st.Name == "" {
		return fmt.Errorf("%s: project has no name", path)
	}
	if st.Version > stateVersion {
		return fmt.Errorf("%s: state version %d is newer than supported version %d", path, st.Version, stateVersion)
	}

	if st.Source != nil {
		if st.Source.Dir == "" {
			return fmt.Errorf("%s: source has no dir", path)
		}
		if !st.Source.Language.Valid() {
			return fmt.Errorf("%s: source language %q: %w", path, st.Source.Language, language.ErrUnknown)
		}
	}

	seen := make(map[language.Language]bool, len(st.Languages))
	for _, ld := range st.Languages {
		if !ld.Language.Valid() {
			return fmt.Errorf("%s: target language %q: %w", path, ld.Language, language.ErrUnknown)
		}
		if ld.Dir == "" {
			return fmt.Errorf("%s: target language %s has no dir", path, ld.Language)
		}
		if seen[ld.Language] {
			return fmt.Errorf("%s: target language %s listed twice", path, ld.Language)
		}
		if st.Source != nil && st.Source.Language == ld.Language {
			return fmt.Errorf("%s: target language %s equals the source language", path, ld.Language)
		}
		seen[ld.Language] = true
	}

	if st.Source == nil && len(st.Manifest) > 0 {
		return fmt.Errorf("%s: manifest present but no source directory set", path)
	}
	seenPath := make(map[string]bool, len(st.Manifest))
	for _, e := range st.Manifest {
		if e.Path == "" {
			return fmt.Errorf("%s: manifest entry with empty path", path)
		}
		if e.Status != Translatable && e.Status != Untranslatable {
			return fmt.Errorf("%s: manifest entry %s has unknown status %q", path, e.Path, e.Status)
		}
		if seenPath[e.Path] {
			return fmt.Errorf("%s: manifest entry %s listed twice", path, e.Path)
		}
		seenPath[e.Path] = true
	}

	return nil
}
