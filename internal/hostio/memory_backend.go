package hostio

import "errors"

// ErrNotFound is returned by MemoryBackend.Load when name has no
// registered bytes.
var ErrNotFound = errors.New("hostio: no such file")

// MemoryBackend is a Backend held entirely in memory, used by tests and by
// the headless conformance harness to script file-transfer scenarios
// without touching the real filesystem.
type MemoryBackend struct {
	Files map[string][]byte
	// FailLoad and FailSave, when set, are returned verbatim instead of
	// performing the operation, to exercise FileTransferError paths.
	FailLoad error
	FailSave error
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{Files: make(map[string][]byte)}
}

// Load returns the registered bytes for name, or ErrNotFound.
func (m *MemoryBackend) Load(name string) ([]byte, error) {
	if m.FailLoad != nil {
		return nil, m.FailLoad
	}
	data, ok := m.Files[name]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// Save records data under name.
func (m *MemoryBackend) Save(name string, data []byte) error {
	if m.FailSave != nil {
		return m.FailSave
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	if m.Files == nil {
		m.Files = make(map[string][]byte)
	}
	m.Files[name] = cp
	return nil
}
