// Package vif disassembles PS2 VIF instruction streams found in sub model data.
//
// A stream is a sequence of 4-byte aligned VIFcodes, each optionally followed by
// operand words. Decode walks the stream with a fresh Session and returns one
// Instruction per tag; unpack tags carry the decoded attribute elements.
package vif

import (
	"encoding/binary"
	"fmt"
)

// TagSize is the encoded size of a VIFcode.
const TagSize = 4

// Command is the 7-bit CMD field of a VIFcode.
type Command uint8

const (
	CmdNOP      Command = 0x00
	CmdSTCYCL   Command = 0x01
	CmdOFFSET   Command = 0x02
	CmdBASE     Command = 0x03
	CmdITOP     Command = 0x04
	CmdSTMOD    Command = 0x05
	CmdMSKPATH3 Command = 0x06
	CmdMARK     Command = 0x07
	CmdFLUSHE   Command = 0x10
	CmdFLUSH    Command = 0x11
	CmdFLUSHA   Command = 0x13
	CmdMSCAL    Command = 0x14
	CmdMSCALF   Command = 0x15
	CmdMSCNT    Command = 0x17
	CmdSTMASK   Command = 0x20
	CmdSTROW    Command = 0x30
	CmdSTCOL    Command = 0x31
	CmdMPG      Command = 0x4A
	CmdDIRECT   Command = 0x50
	CmdDIRECTHL Command = 0x51
)

var commandNames = map[Command]string{
	CmdNOP:      "NOP",
	CmdSTCYCL:   "STCYCL",
	CmdOFFSET:   "OFFSET",
	CmdBASE:     "BASE",
	CmdITOP:     "ITOP",
	CmdSTMOD:    "STMOD",
	CmdMSKPATH3: "MSKPATH3",
	CmdMARK:     "MARK",
	CmdFLUSHE:   "FLUSHE",
	CmdFLUSH:    "FLUSH",
	CmdFLUSHA:   "FLUSHA",
	CmdMSCAL:    "MSCAL",
	CmdMSCALF:   "MSCALF",
	CmdMSCNT:    "MSCNT",
	CmdSTMASK:   "STMASK",
	CmdSTROW:    "STROW",
	CmdSTCOL:    "STCOL",
	CmdMPG:      "MPG",
	CmdDIRECT:   "DIRECT",
	CmdDIRECTHL: "DIRECTHL",
}

// Defined reports whether c is a named non-unpack command.
func (c Command) Defined() bool {
	_, ok := commandNames[c]
	return ok
}

// P is the top two bits of the command; 3 selects UNPACK.
func (c Command) P() uint8 { return uint8(c>>5) & 3 }

func (c Command) IsUnpack() bool { return c.P() == 3 }

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	if c.IsUnpack() {
		return "UNPACK_" + UnpackType(c&^unpackMaskBit).String()
	}
	return fmt.Sprintf("CMD_%02X", uint8(c))
}

const unpackMaskBit = 0x10

// UnpackType is an unpack command with the mask bit cleared.
type UnpackType uint8

const (
	S32     UnpackType = 0x60
	S16     UnpackType = 0x61
	S8      UnpackType = 0x62
	V2_32   UnpackType = 0x64
	V2_16   UnpackType = 0x65
	V2_8    UnpackType = 0x66
	V3_32   UnpackType = 0x68
	V3_16   UnpackType = 0x69
	V3_8    UnpackType = 0x6A
	V4_32   UnpackType = 0x6C
	V4_16   UnpackType = 0x6D
	V4_8    UnpackType = 0x6E
	V4_5551 UnpackType = 0x6F
)

var unpackNames = map[UnpackType]string{
	S32: "S_32", S16: "S_16", S8: "S_8",
	V2_32: "V2_32", V2_16: "V2_16", V2_8: "V2_8",
	V3_32: "V3_32", V3_16: "V3_16", V3_8: "V3_8",
	V4_32: "V4_32", V4_16: "V4_16", V4_8: "V4_8",
	V4_5551: "V4_5551",
}

func (u UnpackType) Valid() bool {
	_, ok := unpackNames[u]
	return ok
}

func (u UnpackType) String() string {
	if name, ok := unpackNames[u]; ok {
		return name
	}
	return fmt.Sprintf("INVALID_%02X", uint8(u))
}

// ElementSize is the byte width of one raw value: 4, 2 or 1.
func (u UnpackType) ElementSize() int {
	switch u & 3 {
	case 0:
		return 4
	case 1, 3:
		return 2
	default:
		return 1
	}
}

// Components is the number of raw values read per element. V4_5551 packs its
// four channels into a single 16-bit value.
func (u UnpackType) Components() int {
	if u == V4_5551 {
		return 1
	}
	return int((u>>2)&3) + 1
}

// Scale is the fixed-point divisor for scaled formats, or 0 for raw integers.
func (u UnpackType) Scale() float64 {
	switch u {
	case V3_8, V4_8:
		return 128.0
	case S16:
		return 2048.0
	case V4_16:
		return 256.0
	}
	return 0
}

// Tag is one decoded VIFcode.
type Tag struct {
	Imm uint16  `json:"imm"`
	Num uint8   `json:"num"`
	Cmd Command `json:"cmd"`
	IRQ bool    `json:"irq,omitempty"`
}

// ParseTag splits a little-endian VIFcode into its fields.
func ParseTag(b []byte) Tag {
	v := binary.LittleEndian.Uint32(b)
	return Tag{
		Imm: uint16(v),
		Num: uint8(v >> 16),
		Cmd: Command((v >> 24) & 0x7F),
		IRQ: v>>31 != 0,
	}
}

// Uint32 re-encodes the tag.
func (t Tag) Uint32() uint32 {
	v := uint32(t.Imm) | uint32(t.Num)<<16 | uint32(t.Cmd&0x7F)<<24
	if t.IRQ {
		v |= 1 << 31
	}
	return v
}

// Addr is the VU memory address of an unpack, in quad words.
func (t Tag) Addr() uint16 { return t.Imm & 0x3FF }

// USN selects unsigned reads.
func (t Tag) USN() bool { return t.Imm&(1<<14) != 0 }

// FLG selects the difference bias on 8 and 16-bit reads.
func (t Tag) FLG() bool { return t.Imm&(1<<15) != 0 }

func (t Tag) CL() uint8 { return uint8(t.Imm) }
func (t Tag) WL() uint8 { return uint8(t.Imm >> 8) }

func (t Tag) Unpack() UnpackType { return UnpackType(t.Cmd &^ unpackMaskBit) }

// Masked reports the unpack mask bit.
func (t Tag) Masked() bool { return t.Cmd&unpackMaskBit != 0 }

func (t Tag) String() string {
	return fmt.Sprintf("%s imm=%04X num=%d irq=%t", t.Cmd, t.Imm, t.Num, t.IRQ)
}
