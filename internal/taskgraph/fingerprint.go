// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	_ "crypto/sha256" // registers digest.Canonical
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
)

// stateFileExt is appended to the task name to form its state file name.
const stateFileExt = ".state.json"

type (
	// StateStore persists the fingerprint of each task's last successful run.
	StateStore struct {
		dir string
	}

	taskState struct {
		Task        string        `json:"task"`
		Fingerprint digest.Digest `json:"fingerprint"`
	}
)

// NewStateStore keeps task state files in dir.
func NewStateStore(dir string) *StateStore {
	return &StateStore{dir: dir}
}

// Dir returns the state directory.
func (s *StateStore) Dir() string { return s.dir }

func (s *StateStore) path(task string) string {
	return filepath.Join(s.dir, task+stateFileExt)
}

// Load returns the stored fingerprint of task, or "" when none is stored.
func (s *StateStore) Load(task string) (digest.Digest, error) {
	data, err := os.ReadFile(s.path(task))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var st taskState
	if err := json.Unmarshal(data, &st); err != nil {
		// A corrupt state file only costs one rerun.
		return "", nil
	}
	if st.Fingerprint.Validate() != nil {
		return "", nil
	}
	return st.Fingerprint, nil
}

// Save stores the fingerprint of task.
func (s *StateStore) Save(task string, fp digest.Digest) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.Marshal(taskState{Task: task, Fingerprint: fp})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(task), data, 0o644)
}

// Invalidate drops the stored fingerprint of task.
func (s *StateStore) Invalidate(task string) error {
	err := os.Remove(s.path(task))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Fingerprint digests the task's input properties and the content of its
// input and output paths. Directories are walked in lexical order; missing
// paths contribute a marker so that creating them changes the fingerprint.
func Fingerprint(t *Task) (digest.Digest, error) {
	d := digest.Canonical.Digester()
	h := d.Hash()

	fmt.Fprintf(h, "task\x00%s\n", t.name)

	keys := make([]string, 0, len(t.properties))
	for k := range t.properties {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "prop\x00%s\x00%s\n", k, t.properties[k])
	}

	for _, section := range []struct {
		kind  string
		paths []string
	}{{"in", t.inputs}, {"out", t.outputs}} {
		for _, p := range section.paths {
			if err := digestPath(h, section.kind, p); err != nil {
				return "", err
			}
		}
	}
	return d.Digest(), nil
}

func digestPath(w io.Writer, kind, root string) error {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(w, "%s\x00%s\x00missing\n", kind, root)
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return digestFile(w, kind, root, root)
	}
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if entry.IsDir() {
			fmt.Fprintf(w, "%s\x00%s\x00dir\x00%s\n", kind, root, rel)
			return nil
		}
		return digestFile(w, kind, root, path, rel)
	})
}

func digestFile(w io.Writer, kind, root, path string, rel ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	content, err := digest.Canonical.FromReader(f)
	if err != nil {
		return fmt.Errorf("digest %s: %w", path, err)
	}
	fmt.Fprintf(w, "%s\x00%s\x00%s\x00%s\n", kind, root, strings.Join(rel, ""), content)
	return nil
}
