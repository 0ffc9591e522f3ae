// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package bitpack packs bit strings into bytes, most significant bit first,
// and reads them back.
package bitpack

import (
	"bytes"
	"errors"
	"io"

	"github.com/icza/bitio"
)

var ErrPadding = errors.New("padding exceeds payload")

// Packer accumulates bits into whole bytes.
// The zero value is ready to use.
type Packer struct {
	buf   bytes.Buffer
	w     *bitio.Writer
	total int64
}

func (p *Packer) writer() *bitio.Writer {
	if p.w == nil {
		p.w = bitio.NewWriter(&p.buf)
	}
	return p.w
}

func (p *Packer) WriteBit(bit uint8) {
	p.writer().WriteBool(bit&1 == 1) // cannot fail on a bytes.Buffer
	p.total++
}

// WriteCode appends a code written as a string of '0' and '1' characters.
// Any character other than '1' is taken as a zero bit.
func (p *Packer) WriteCode(code string) {
	w := p.writer()
	for i := 0; i < len(code); i++ {
		w.WriteBool(code[i] == '1')
	}
	p.total += int64(len(code))
}

// Bits is the number of bits written so far, not counting padding.
func (p *Packer) Bits() int64 {
	return p.total
}

// Flush zero-fills a trailing partial byte and returns the packed bytes
// along with the number of filler bits, which is always in [0,7].
// The Packer is reset afterwards.
func (p *Packer) Flush() (payload []byte, padding int) {
	if p.w != nil {
		skipped, _ := p.w.Align()
		padding = int(skipped)
	}
	payload = p.buf.Bytes()
	*p = Packer{}
	return payload, padding
}

// Pack is a convenience for a complete bit string.
func Pack(bits string) ([]byte, int) {
	var p Packer
	p.WriteCode(bits)
	return p.Flush()
}

// Reader yields the meaningful bits of a packed payload,
// stopping before the padding.
type Reader struct {
	r       *bitio.Reader
	data    []byte
	padding int
	bits    int64
	pos     int64
}

func NewReader(payload []byte, padding int) (*Reader, error) {
	if padding < 0 || padding > 7 || int64(padding) > int64(len(payload))*8 {
		return nil, ErrPadding
	}
	return &Reader{
		r:       bitio.NewReader(bytes.NewReader(payload)),
		data:    payload,
		padding: padding,
		bits:    int64(len(payload))*8 - int64(padding),
	}, nil
}

func (r *Reader) ReadBit() (uint8, error) {
	if r.pos >= r.bits {
		return 0, io.EOF
	}
	b, err := r.r.ReadBool()
	if err != nil {
		return 0, err
	}
	r.pos++
	if b {
		return 1, nil
	}
	return 0, nil
}

func (r *Reader) Remaining() int64 {
	return r.bits - r.pos
}

// PaddingClean reports whether the filler bits are all zero,
// as a Packer would have left them.
func (r *Reader) PaddingClean() bool {
	if r.padding == 0 {
		return true
	}
	last := r.data[len(r.data)-1]
	return last&(1<<r.padding-1) == 0
}
