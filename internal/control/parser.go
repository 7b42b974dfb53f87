package control

import (
	"bytes"
	"strconv"
)

// LineParser turns a stream of newline delimited numbers, delivered in arbitrary chunks, into values. Partial lines
// are held until the rest arrives. Blank and non-numeric lines are dropped.
type LineParser struct {
	buf []byte
}

func (p *LineParser) Feed(chunk []byte) []float64 {
	p.buf = append(p.buf, chunk...)

	var values []float64

	for {
		i := bytes.IndexByte(p.buf, '\n')

		if i < 0 {
			break
		}

		line := bytes.TrimSpace(p.buf[:i])
		p.buf = p.buf[i+1:]

		if len(line) == 0 {
			continue
		}

		value, err := strconv.ParseFloat(string(line), 64)

		if err != nil {
			continue
		}

		values = append(values, value)
	}

	if len(p.buf) == 0 {
		p.buf = nil
	}

	return values
}

// Pending is the incomplete line waiting for more input.
func (p *LineParser) Pending() string {
	return string(p.buf)
}

func (p *LineParser) Reset() {
	p.buf = nil
}
