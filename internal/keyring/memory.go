package keyring

// Memory is an in-process Store used in tests and on platforms without a
// usable secret store backend.
type Memory struct {
	value string
	set   bool
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory { return &Memory{} }

// Get implements Store.
func (m *Memory) Get() (string, error) {
	if !m.set {
		return "", ErrNotFound
	}
	return m.value, nil
}

// Set implements Store.
func (m *Memory) Set(password string) error {
	m.value = password
	m.set = true
	return nil
}

// Delete implements Store.
func (m *Memory) Delete() error {
	m.value = ""
	m.set = false
	return nil
}
