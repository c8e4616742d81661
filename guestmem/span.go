package guestmem

// Span is a (pointer, length) description of a subbuffer inside guest
// linear memory. It carries no ownership and is only valid for the
// duration of the single bridge call that received it.
type Span struct {
	Ptr uint32
	Len uint32
}

// SpanFrom assembles a Span from the two stack words an import handler
// receives for a pointer-length pair.
func SpanFrom(ptr, length uint64) Span {
	return Span{Ptr: uint32(ptr), Len: uint32(length)}
}

// Reader is the read half of the access protocol, satisfied by both View
// and RegionView.
type Reader interface {
	Read(offset, length uint32) ([]byte, error)
	ReadString(offset, length uint32) (string, error)
}

// Bytes reads the spanned region through v.
func (s Span) Bytes(v Reader) ([]byte, error) {
	return v.Read(s.Ptr, s.Len)
}

// String reads the spanned region through v and decodes it as UTF-8.
func (s Span) String(v Reader) (string, error) {
	return v.ReadString(s.Ptr, s.Len)
}
