// Mirror lock file — .translate-dir.lock tracks MD5 signatures of
// source content per (language, relative path). A mirror copy is only
// rewritten when the recorded signature differs from the current
// source file, which keeps repeated syncs from touching the disk.

package mirror

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LockFileName is the signature file name, stored at the project root.
const LockFileName = ".translate-dir.lock"

// lockVersion is the lock file format version.
const lockVersion = 1

// lockFile records mirrored-content signatures.
type lockFile struct {
	Version    int                          `yaml:"version"`
	Signatures map[string]map[string]string `yaml:"signatures"` // lang code -> rel path -> md5

	path string `yaml:"-"`
}

// loadLock reads the lock file from the project root, returning an
// empty lock when none exists.
func loadLock(root string) (*lockFile, error) {
	path := filepath.Join(root, LockFileName)
	lf := &lockFile{
		Version:    lockVersion,
		Signatures: make(map[string]map[string]string),
		path:       path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path
	if lf.Signatures == nil {
		lf.Signatures = make(map[string]map[string]string)
	}
	return lf, nil
}

// save writes the lock file back to disk.
func (lf *lockFile) save() error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// hash computes the MD5 hex digest of content.
func hash(content []byte) string {
	return fmt.Sprintf("%x", md5.Sum(content))
}

// upToDate reports whether the recorded signature for (langCode,
// relPath) matches sig.
func (lf *lockFile) upToDate(langCode, relPath, sig string) bool {
	paths, ok := lf.Signatures[langCode]
	if !ok {
		return false
	}
	return paths[relPath] == sig
}

// record stores the signature after a successful copy.
func (lf *lockFile) record(langCode, relPath, sig string) {
	if lf.Signatures[langCode] == nil {
		lf.Signatures[langCode] = make(map[string]string)
	}
	lf.Signatures[langCode][relPath] = sig
}

// clean drops signatures for languages or paths that are no longer
// part of the project, so stale entries don't accumulate.
func (lf *lockFile) clean(langCodes []string, relPaths []string) {
	validLang := make(map[string]bool, len(langCodes))
	for _, c := range langCodes {
		validLang[c] = true
	}
	validPath := make(map[string]bool, len(relPaths))
	for _, p := range relPaths {
		validPath[p] = true
	}

	for lang, paths := range lf.Signatures {
		if !validLang[lang] {
			delete(lf.Signatures, lang)
			continue
		}
		for p := range paths {
			if !validPath[p] {
				delete(paths, p)
			}
		}
	}
}
