package compress

// Nop passes payloads through untouched, for cache backends that do their
// own compression or for tests that want to inspect raw entries.
type Nop struct{}

func NewNop() Nop {
	return Nop{}
}

func (n Nop) Encode(data []byte) ([]byte, error) {
	return data, nil
}

func (n Nop) Decode(data []byte) ([]byte, error) {
	return data, nil
}
