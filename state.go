package docmig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	stateDirName   = ".docmig"
	stateFileName  = "runs.docmig"
	TrashDir       = "trash"
	BlobsDir       = "blobs"
	entrySeparator = "\n===\n"
	opSeparator    = "\n---\n"
	none           = "-"
)

// Operation records one applied mutation so a run can be undone and
// redone, guarded by content hashes.
type Operation struct {
	Timestamp      int64
	Action         string // "create", "modify", "delete"
	Path           string
	OldContentHash string
	ContentHash    string
}

type RunEntry struct {
	Operations []Operation
}

type runState struct {
	History      []RunEntry
	CurrentIndex int
}

// StateManager persists the mutation history of migration runs under
// the target tree, so a migration survives process restarts.
type StateManager struct {
	statePath string
	state     *runState
	StateDir  string
	root      string
}

// NewStateManager does not touch the tree; the state dir appears on
// the first recorded write so read-only invocations leave no trace.
func NewStateManager(targetRoot string) (*StateManager, error) {
	dir := filepath.Join(targetRoot, stateDirName)
	m := &StateManager{
		statePath: filepath.Join(dir, stateFileName),
		StateDir:  dir,
		root:      targetRoot,
	}
	m.state = &runState{CurrentIndex: -1, History: []RunEntry{}}
	_ = m.load()
	return m, nil
}

func (m *StateManager) load() error {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		return err
	}

	blocks := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), entrySeparator)
	if len(blocks) == 0 {
		return nil
	}

	idx, _ := strconv.Atoi(strings.TrimSpace(blocks[0]))
	m.state = &runState{CurrentIndex: idx, History: []RunEntry{}}

	for _, b := range blocks[1:] {
		entry := RunEntry{}
		for _, opBlock := range strings.Split(strings.TrimSpace(b), opSeparator) {
			lines := strings.Split(strings.TrimSpace(opBlock), "\n")
			if len(lines) < 5 {
				continue
			}

			val := func(s string) string {
				s = strings.TrimSpace(s)
				if s == none {
					return ""
				}
				return s
			}

			ts, _ := strconv.ParseInt(strings.TrimSpace(lines[0]), 10, 64)
			entry.Operations = append(entry.Operations, Operation{
				Timestamp:      ts,
				Action:         val(lines[1]),
				Path:           val(lines[2]),
				OldContentHash: val(lines[3]),
				ContentHash:    val(lines[4]),
			})
		}
		m.state.History = append(m.state.History, entry)
	}
	return nil
}

func (m *StateManager) save() {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", m.state.CurrentIndex)

	placeholder := func(s string) string {
		if s == "" {
			return none
		}
		return s
	}

	for _, e := range m.state.History {
		b.WriteString(entrySeparator)
		for i, op := range e.Operations {
			fmt.Fprintf(&b, "%d\n%s\n%s\n%s\n%s",
				op.Timestamp, placeholder(op.Action), placeholder(op.Path),
				placeholder(op.OldContentHash), placeholder(op.ContentHash))
			if i < len(e.Operations)-1 {
				b.WriteString(opSeparator)
			}
		}
	}
	if err := EnsureDir(m.StateDir); err != nil {
		return
	}
	_ = os.WriteFile(m.statePath, []byte(b.String()), 0644)
}

// Sync drops history entries that no longer match the tree, walking
// back from the current index until the disk agrees.
func (m *StateManager) Sync() {
	if m.state.CurrentIndex < 0 {
		return
	}

	for i := m.state.CurrentIndex; i >= 0; i-- {
		if m.matchState(i) {
			if i < m.state.CurrentIndex {
				m.state.History = m.state.History[:i+1]
				m.state.CurrentIndex = i
				m.save()
			}
			return
		}
	}

	m.state.History = []RunEntry{}
	m.state.CurrentIndex = -1
	m.save()
}

func (m *StateManager) matchState(idx int) bool {
	if idx < 0 || idx >= len(m.state.History) {
		return false
	}

	for _, op := range m.state.History[idx].Operations {
		currentHash, err := GetFileSHA256(op.Path)
		if op.Action == "delete" {
			if err == nil {
				return false
			}
			continue
		}
		if err != nil || currentHash != op.ContentHash {
			return false
		}
	}
	return true
}

func (m *StateManager) Write(ops []Operation) {
	if len(ops) == 0 {
		return
	}
	m.Sync()
	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}
	m.state.History = append(m.state.History, RunEntry{Operations: ops})
	m.state.CurrentIndex++
	m.save()
}

func (m *StateManager) GetOperationsToUndo() []Operation {
	if m.state.CurrentIndex < 0 {
		return nil
	}
	ops := m.state.History[m.state.CurrentIndex].Operations
	m.state.CurrentIndex--
	m.save()
	return ops
}

func (m *StateManager) GetOperationsToRedo() []Operation {
	if m.state.CurrentIndex+1 >= len(m.state.History) {
		return nil
	}
	m.state.CurrentIndex++
	ops := m.state.History[m.state.CurrentIndex].Operations
	m.save()
	return ops
}

// CreateOperations snapshots the post-run hashes of every touched path
// and stores content blobs so undo can restore them exactly.
func (m *StateManager) CreateOperations(actions map[string]string, oldHashes map[string]string) []Operation {
	now := time.Now().UTC().Unix()
	var ops []Operation

	for path, action := range actions {
		checkPath := path
		if action == "delete" {
			rel, _ := filepath.Rel(m.root, path)
			checkPath = filepath.Join(m.StateDir, TrashDir, rel)
		}

		currentHash, _ := GetFileSHA256(checkPath)
		if action != "delete" && currentHash != "" {
			if content, err := os.ReadFile(checkPath); err == nil {
				_ = WriteBlob(m.StateDir, currentHash, content)
			}
		}

		ops = append(ops, Operation{
			Timestamp:      now,
			Action:         action,
			Path:           path,
			OldContentHash: oldHashes[path],
			ContentHash:    currentHash,
		})
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Path < ops[j].Path })
	return ops
}

// Undo reverts a run's operations; any file whose current hash no
// longer matches the recorded one is left alone and reported failed.
func (m *StateManager) Undo(ops []Operation) Summary {
	var s Summary
	for _, op := range ops {
		if !m.undoFile(op) {
			s.Failed = append(s.Failed, op.Path)
			continue
		}
		switch op.Action {
		case "create":
			s.Deleted = append(s.Deleted, op.Path)
		case "delete":
			s.Created = append(s.Created, op.Path)
		case "modify":
			s.Modified = append(s.Modified, op.Path)
		}
	}
	return s
}

func (m *StateManager) undoFile(op Operation) bool {
	if op.Action == "delete" {
		return RestoreFileFromTrash(op.Path, filepath.Join(m.StateDir, TrashDir), m.root) == nil
	}

	actualHash, err := GetFileSHA256(op.Path)
	if err != nil || actualHash != op.ContentHash {
		return false
	}

	if op.Action == "create" {
		return os.Remove(op.Path) == nil
	}

	content, err := ReadBlob(m.StateDir, op.OldContentHash)
	if err != nil {
		return false
	}
	return os.WriteFile(op.Path, content, 0644) == nil
}

func (m *StateManager) Redo(ops []Operation) Summary {
	var s Summary
	for _, op := range ops {
		if !m.redoFile(op) {
			s.Failed = append(s.Failed, op.Path)
			continue
		}
		switch op.Action {
		case "create":
			s.Created = append(s.Created, op.Path)
		case "delete":
			s.Deleted = append(s.Deleted, op.Path)
		case "modify":
			s.Modified = append(s.Modified, op.Path)
		}
	}
	return s
}

func (m *StateManager) redoFile(op Operation) bool {
	if op.Action == "delete" {
		return TrashFile(op.Path, filepath.Join(m.StateDir, TrashDir), m.root) == nil
	}

	actualHash, _ := GetFileSHA256(op.Path)
	if actualHash != op.OldContentHash {
		return false
	}

	content, err := ReadBlob(m.StateDir, op.ContentHash)
	if err != nil {
		return false
	}
	_ = EnsureDir(filepath.Dir(op.Path))
	return os.WriteFile(op.Path, content, 0644) == nil
}
