package udp

import (
	"bytes"
	"encoding/binary"
	"net"
)

// Packet is a little endian buffer of race event fields. The first read or write error sticks and is reported by Err.
type Packet struct {
	buf *bytes.Buffer
	err error
}

func NewPacket(b []byte) *Packet {
	return &Packet{
		buf: bytes.NewBuffer(b),
	}
}

func (p *Packet) Write(val interface{}) {
	if p.err != nil {
		return
	}

	p.err = binary.Write(p.buf, binary.LittleEndian, val)
}

func (p *Packet) WriteString(s string) {
	if len(s) > 255 {
		s = s[:255]
	}

	p.Write(uint8(len(s)))
	p.Write([]byte(s))
}

func (p *Packet) Read(out interface{}) {
	if p.err != nil {
		return
	}

	p.err = binary.Read(p.buf, binary.LittleEndian, out)
}

func (p *Packet) ReadUint8() uint8 {
	var i uint8

	p.Read(&i)

	return i
}

func (p *Packet) ReadUint16() uint16 {
	var i uint16

	p.Read(&i)

	return i
}

func (p *Packet) ReadUint32() uint32 {
	var i uint32

	p.Read(&i)

	return i
}

func (p *Packet) ReadString() string {
	size := p.ReadUint8()

	if size == 0 {
		return ""
	}

	b := make([]byte, size)

	p.Read(b)

	return string(b)
}

func (p *Packet) Err() error {
	return p.err
}

func (p *Packet) Bytes() []byte {
	return p.buf.Bytes()
}

func (p *Packet) WriteToUDPConn(conn *net.UDPConn) error {
	if p.err != nil {
		return p.err
	}

	_, err := conn.Write(p.buf.Bytes())

	return err
}
