package compress

// Compress encodes payloads before they hit the disk cache and decodes them
// on the way back out.
type Compress interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}
