package streamparse

// Input is a caller-owned window of bytes being fed to the parser. Pos is
// the read position within Data: everything before Pos has already been
// consumed, everything at or after it has not. The parser never reads past
// len(Data) and advances Pos to reflect exactly what it consumed, so the
// caller can safely discard or reuse the bytes before Pos and append more
// after a short read.
type Input struct {
	Data []byte
	Pos  int
}

// NewInput wraps buf for a single parser call.
func NewInput(buf []byte) *Input {
	return &Input{Data: buf}
}

func (in *Input) exhausted() bool {
	return in.Pos >= len(in.Data)
}

func (in *Input) peek() (byte, bool) {
	if in.exhausted() {
		return 0, false
	}
	return in.Data[in.Pos], true
}

func (in *Input) remaining() int {
	return len(in.Data) - in.Pos
}

// submitBuffer returns a read-only view of the entire remaining window and
// advances Pos to the end of it.
func (in *Input) submitBuffer() []byte {
	v := in.Data[in.Pos:]
	in.Pos = len(in.Data)
	return v
}

// submitPartialBuffer returns a read-only view of exactly the next n bytes
// and advances Pos by n. The caller must ensure n <= in.remaining().
func (in *Input) submitPartialBuffer(n int) []byte {
	v := in.Data[in.Pos : in.Pos+n]
	in.Pos += n
	return v
}
