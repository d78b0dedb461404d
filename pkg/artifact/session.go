// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tendkit/tend/pkg/format"
	"github.com/tendkit/tend/pkg/structval"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

type (
	// Session holds the Handles of one engine run.
	Session struct {
		env     Env
		mu      sync.Mutex
		handles map[string]*Handle
	}

	// Handle is the cached accessor for one artifact within a Session.
	Handle struct {
		id    string
		def   Definition
		env   Env
		codec format.Codec
		path  string

		mu sync.Mutex

		expectedDone bool
		expected     structval.Value
		expectedErr  error

		readDone  bool
		raw       []byte
		readErr   error
		decoded   bool
		actual    structval.Value
		decodeErr error
	}
)

// NewSession returns an empty Session for env.
func NewSession(env Env) *Session {
	return &Session{env: env, handles: make(map[string]*Handle)}
}

// Env returns the environment of the session.
func (s *Session) Env() Env { return s.env }

// Handle returns the Handle for id, creating it from def on first use.
// Later calls with the same id return the same Handle regardless of def.
func (s *Session) Handle(id string, def Definition) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.handles[id]; ok {
		return h, nil
	}

	desc := def.Descriptor()
	codec, err := format.Lookup(desc.ResolvedFormat())
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", id, err)
	}

	path := desc.Path(s.env.ProjectDir)
	if loc, ok := def.(Locator); ok {
		path = loc.Locate(s.env.ProjectDir)
	}

	h := &Handle{id: id, def: def, env: s.env, codec: codec, path: path}
	s.handles[id] = h
	return h, nil
}

// ID returns the artifact identifier the handle was created with.
func (h *Handle) ID() string { return h.id }

// Definition returns the underlying definition.
func (h *Handle) Definition() Definition { return h.def }

// Locate returns the resolved filesystem location.
func (h *Handle) Locate() string { return h.path }

// Priority returns the declared priority.
func (h *Handle) Priority() float64 { return h.def.Descriptor().Priority }

// Expected returns the memoized expected content. It is computed once and
// never invalidated.
func (h *Handle) Expected(ctx context.Context) (structval.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.expectedDone {
		v, err := h.def.Expected(ctx, h.env)
		if err == nil {
			v, err = structval.Normalize(v)
		}
		h.expected, h.expectedErr, h.expectedDone = v, err, true
	}
	return h.expected, h.expectedErr
}

// Read returns the memoized current content. A missing artifact yields an
// error wrapping ErrNotFound; content that cannot be decoded yields a
// *format.MalformedError.
func (h *Handle) Read(_ context.Context) (structval.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.load()
	if h.readErr != nil {
		return nil, h.readErr
	}
	if !h.decoded {
		h.decoded = true
		h.actual, h.decodeErr = h.codec.Decode(h.raw)
		if h.decodeErr != nil {
			h.decodeErr = fmt.Errorf("%s: %w", h.path, h.decodeErr)
		}
	}
	return h.actual, h.decodeErr
}

// Raw returns the memoized file bytes.
func (h *Handle) Raw(_ context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.load()
	return h.raw, h.readErr
}

// load fills the byte cache. Callers hold h.mu.
func (h *Handle) load() {
	if h.readDone {
		return
	}
	h.readDone = true

	data, err := os.ReadFile(h.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		h.readErr = &NotFoundError{Path: h.path}
	case err != nil:
		h.readErr = fmt.Errorf("read %s: %w", h.path, err)
	default:
		h.raw = data
	}
}

// invalidate drops the read cache. Callers hold h.mu.
func (h *Handle) invalidate() {
	h.readDone, h.raw, h.readErr = false, nil, nil
	h.decoded, h.actual, h.decodeErr = false, nil, nil
}

// Write encodes v and replaces the artifact atomically, creating parent
// directories as needed. The read cache is dropped before and after the
// write, including when the write fails.
func (h *Handle) Write(_ context.Context, v structval.Value) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.invalidate()
	defer h.invalidate()

	data, err := h.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", h.path, err)
	}
	return writeFileAtomic(h.path, data)
}

// Exists reports whether something exists at the artifact location.
func (h *Handle) Exists() bool {
	_, err := os.Stat(h.path)
	return err == nil
}

// IsOptedOut reports whether the user emptied the artifact to stop it from
// being managed. The default rule is that the file exists and contains only
// whitespace.
func (h *Handle) IsOptedOut(ctx context.Context) (bool, error) {
	if d, ok := h.def.(OptOutDecider); ok {
		return d.IsOptedOut(ctx, h)
	}

	raw, err := h.Raw(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(raw)) == "", nil
}

// IsCorrect reports whether the artifact satisfies its expected content.
// The default rule is opted out, or expected is a subset of the current
// content.
func (h *Handle) IsCorrect(ctx context.Context) (bool, error) {
	if c, ok := h.def.(CorrectnessChecker); ok {
		return c.IsCorrect(ctx, h)
	}

	optedOut, err := h.IsOptedOut(ctx)
	if err != nil || optedOut {
		return optedOut, err
	}

	expected, err := h.Expected(ctx)
	if err != nil {
		return false, err
	}
	actual, err := h.Read(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return structval.IsSubset(expected, actual), nil
}

// Repair returns the content to write when the artifact is present but not
// correct.
func (h *Handle) Repair(ctx context.Context) (structval.Value, error) {
	expected, err := h.Expected(ctx)
	if err != nil {
		return nil, err
	}
	actual, err := h.Read(ctx)
	if err != nil {
		return nil, err
	}
	if r, ok := h.def.(Repairer); ok {
		return r.Repair(expected, actual)
	}
	return structval.MergeMissing(expected, actual), nil
}

// State returns the expected and current content.
func (h *Handle) State(ctx context.Context) (State, error) {
	expected, err := h.Expected(ctx)
	if err != nil {
		return State{}, err
	}
	actual, err := h.Read(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		return State{Expected: expected}, nil
	case err != nil:
		return State{}, err
	}
	return State{Expected: expected, Actual: actual, Present: true}, nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place so readers never observe a partial write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tend-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	mode := os.FileMode(filePerm)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("set permissions on %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	renamed = true
	return nil
}
