package memory

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Decoder turns native bytes into text. The zero value and a nil *Decoder
// decode UTF-8, replacing ill-formed sequences with U+FFFD.
type Decoder struct {
	enc encoding.Encoding
}

// NewDecoder resolves a WHATWG encoding label such as "utf-8", "latin1" or
// "shift_jis". The empty label is utf-8.
func NewDecoder(label string) (*Decoder, error) {
	if label == "" {
		return &Decoder{enc: unicode.UTF8}, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return &Decoder{enc: enc}, nil
}

// Decode returns an independent copy of b as text.
func (d *Decoder) Decode(b []byte) string {
	enc := encoding.Encoding(unicode.UTF8)
	if d != nil && d.enc != nil {
		enc = d.enc
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// ByteString is text read from native memory. The text is decoded once, when
// the ByteString is created, so it stays valid after the native memory goes
// away. Buffer gives the raw bytes through an aliasing View instead, which
// is only valid as long as the native memory is.
type ByteString struct {
	text string
	view *View
}

// FromAddress reads the string at addr+offset. A negative length means the
// length is discovered by scanning for the NUL terminator. A null addr yields
// an empty string over an owned, empty buffer.
func FromAddress(rd Reader, dec *Decoder, addr uintptr, offset, length int) *ByteString {
	if addr == 0 {
		return &ByteString{view: NewView(rd, 0, 0, 0)}
	}
	var raw []byte
	if length < 0 {
		raw = rd.ReadCString(addr, offset)
		length = len(raw)
	} else {
		raw = rd.Read(addr, offset, length)
	}
	return &ByteString{
		text: dec.Decode(raw),
		view: NewView(rd, addr, offset, length),
	}
}

// String returns the decoded text.
func (s *ByteString) String() string { return s.text }

// Buffer returns the raw bytes, aliasing native memory. The slice is created
// on first call and the same slice is returned afterwards.
func (s *ByteString) Buffer() []byte { return s.view.Bytes() }

// View returns the originating view.
func (s *ByteString) View() *View { return s.view }

// Ptr is the native address the string was read from, 0 for null.
func (s *ByteString) Ptr() uintptr { return s.view.Ptr() }

// Len is the length in bytes of the native data, excluding any terminator.
func (s *ByteString) Len() int { return s.view.Len() }
