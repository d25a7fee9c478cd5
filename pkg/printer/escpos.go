package printer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ESC/POS control bytes
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

type Align byte

const (
	AlignLeft   Align = 0
	AlignCenter Align = 1
	AlignRight  Align = 2
)

// Character size selectors for GS !
const (
	SizeNormal byte = 0x00
	SizeTall   byte = 0x01
	SizeWide   byte = 0x10
	SizeDouble byte = 0x11
)

const (
	Width58mm = 32
	Width80mm = 48
)

// Receipt accumulates an ESC/POS byte stream. Every text helper pads or
// truncates to the paper width so columns never wrap on the device.
type Receipt struct {
	buf   bytes.Buffer
	width int
}

// NewReceipt starts a receipt for a printer with width characters per line.
func NewReceipt(width int) *Receipt {
	if width <= 0 {
		width = Width58mm
	}
	r := &Receipt{width: width}
	r.buf.Write([]byte{ESC, '@'})
	return r
}

// Width returns the characters per line
func (r *Receipt) Width() int { return r.width }

func (r *Receipt) Feed(n int) *Receipt {
	for i := 0; i < n; i++ {
		r.buf.WriteByte(LF)
	}
	return r
}

func (r *Receipt) Align(a Align) *Receipt {
	r.buf.Write([]byte{ESC, 'a', byte(a)})
	return r
}

func (r *Receipt) Bold(on bool) *Receipt {
	var b byte
	if on {
		b = 1
	}
	r.buf.Write([]byte{ESC, 'E', b})
	return r
}

func (r *Receipt) Size(size byte) *Receipt {
	r.buf.Write([]byte{GS, '!', size})
	return r
}

// Line writes s truncated to the paper width and ends the line.
func (r *Receipt) Line(s string) *Receipt {
	r.buf.WriteString(truncate(s, r.width))
	r.buf.WriteByte(LF)
	return r
}

func (r *Receipt) Linef(format string, args ...interface{}) *Receipt {
	return r.Line(fmt.Sprintf(format, args...))
}

// Title prints s centered in bold double size, then resets the style.
func (r *Receipt) Title(s string) *Receipt {
	return r.Align(AlignCenter).Bold(true).Size(SizeDouble).
		Line(truncate(s, r.width/2)).
		Size(SizeNormal).Bold(false).Align(AlignLeft)
}

// Centered prints each non-empty line centered.
func (r *Receipt) Centered(lines ...string) *Receipt {
	r.Align(AlignCenter)
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			r.Line(l)
		}
	}
	return r.Align(AlignLeft)
}

func (r *Receipt) Rule(char rune) *Receipt {
	return r.Line(strings.Repeat(string(char), r.width))
}

// Pair prints label flush left and value flush right. The label is cut
// when both do not fit.
func (r *Receipt) Pair(label, value string) *Receipt {
	room := r.width - utf8.RuneCountInString(value) - 1
	if room < 0 {
		room = 0
	}
	label = truncate(label, room)
	gap := r.width - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
	if gap < 1 {
		gap = 1
	}
	return r.Line(label + strings.Repeat(" ", gap) + value)
}

// Item prints the product name on its own line followed by an indented
// "qty x price" detail with the line amount on the right.
func (r *Receipt) Item(name string, qty, unitPrice, amount string) *Receipt {
	r.Line(name)
	return r.Pair(fmt.Sprintf("  %s x %s", qty, unitPrice), amount)
}

func (r *Receipt) Cut() *Receipt {
	r.Feed(3)
	r.buf.Write([]byte{GS, 'V', 0x01})
	return r
}

// Bytes returns the accumulated stream
func (r *Receipt) Bytes() []byte {
	return r.buf.Bytes()
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
