package vif

import (
	"encoding/binary"
	"fmt"

	"github.com/samcharles93/dscript/internal/logger"
)

// Instruction is one decoded tag with its operands.
type Instruction struct {
	// Offset of the tag in the stream.
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
	Tag    Tag    `json:"tag"`
	Name   string `json:"name"`
	Info   string `json:"info,omitempty"`

	// Unhandled marks defined commands whose operands are skipped.
	Unhandled bool `json:"unhandled,omitempty"`
	// Generic marks undefined commands rendered from raw fields.
	Generic bool `json:"generic,omitempty"`

	Mask   *MaskTable `json:"mask,omitempty"`
	Unpack *Unpack    `json:"unpack,omitempty"`

	// Session is the state after this tag.
	Session Session `json:"session"`
}

// Props lists the immediate flags in trace form.
func (in Instruction) Props() []string {
	var props []string
	if in.Tag.FLG() {
		props = append(props, "+FLAG")
	}
	if in.Tag.USN() {
		props = append(props, "+UNSIGNED")
	}
	return props
}

// Unpack holds the elements of one unpack tag, split into write groups.
type Unpack struct {
	Type   UnpackType `json:"type"`
	Masked bool       `json:"masked,omitempty"`
	Groups []Group    `json:"groups"`
}

// Count returns the total number of elements.
func (u *Unpack) Count() int {
	n := 0
	for _, g := range u.Groups {
		n += len(g.Elements)
	}
	return n
}

// Group is a run of WL elements; Start is the index of its first element.
type Group struct {
	Start    int       `json:"start"`
	Elements []Element `json:"elements"`
}

// Element is one unpacked value. Raw holds the component values after the FLG
// bias; Scaled is set for fixed-point formats and Color for V4_5551.
type Element struct {
	Raw    []int64   `json:"raw"`
	Scaled []float64 `json:"scaled,omitempty"`
	Color  *Color    `json:"color,omitempty"`
}

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

type Option func(*options)

type options struct {
	log logger.Logger
}

// WithLogger sets the logger that receives unhandled command warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Decode disassembles buf with a fresh Session. On error the instructions
// decoded before the failing tag are returned with it.
func Decode(buf []byte, opts ...Option) ([]Instruction, error) {
	o := options{log: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		out []Instruction
		s   Session
	)
	pos := 0
	for pos < len(buf) {
		pos = align(pos)
		if pos >= len(buf) {
			break
		}
		in, next, ns, err := Step(buf, pos, s)
		if err != nil {
			return out, err
		}
		if in.Unhandled {
			o.log.Warn("unhandled VIF command", "cmd", in.Name, "offset", in.Offset)
		}
		out = append(out, in)
		pos, s = next, ns
	}
	return out, nil
}

func align(pos int) int {
	return (pos + 3) &^ 3
}

// Step decodes the tag at pos under s. It returns the instruction, the
// position after its operands and the updated session.
func Step(buf []byte, pos int, s Session) (Instruction, int, Session, error) {
	if pos < 0 || pos+TagSize > len(buf) {
		return Instruction{}, pos, s, fmt.Errorf("%w: tag at 0x%X needs %d bytes, stream is %d",
			ErrTruncated, pos, TagSize, len(buf))
	}
	tag := ParseTag(buf[pos:])
	in := Instruction{Offset: pos, Tag: tag, Name: tag.Cmd.String()}
	next := pos + TagSize

	skip := func(n int) {
		next += n
		if next > len(buf) {
			next = len(buf)
		}
	}

	switch tag.Cmd {
	case CmdNOP:
		skip(4)
	case CmdSTCYCL:
		s.CL, s.WL = tag.CL(), tag.WL()
		in.Info = fmt.Sprintf("CL:%d, WL:%d", s.CL, s.WL)
	case CmdOFFSET:
		s.Offset = tag.Imm & 0x3FF
		in.Info = fmt.Sprintf("OFFSET:%X", s.Offset)
		skip(4)
	case CmdITOP:
		s.ITop = tag.Imm & 0x3FF
		in.Info = fmt.Sprintf("ADDR:%X", s.ITop)
		skip(4)
	case CmdSTMOD:
		s.Mode = Mode(tag.Imm & 3)
		in.Info = fmt.Sprintf("MODE:%d (%s)", s.Mode, s.Mode)
	case CmdMSCAL:
		s.ExecAddr = tag.Imm
		in.Info = fmt.Sprintf("EXECADDR:%X", s.ExecAddr)
		skip(4)
	case CmdMSCNT:
	case CmdSTMASK:
		if next+4 > len(buf) {
			return in, pos, s, fmt.Errorf("%w: STMASK at 0x%X has no mask word", ErrTruncated, pos)
		}
		s.Mask = binary.LittleEndian.Uint32(buf[next:])
		s.Masks = ParseMask(s.Mask)
		mask := s.Masks
		in.Mask = &mask
		in.Info = fmt.Sprintf("MASK:%08X", s.Mask)
		next += 4
	case CmdFLUSH:
		skip(4)
	case CmdDIRECT:
		in.Info = fmt.Sprintf("SIZE:%X", tag.Imm)
		skip(int(tag.Imm)*16 + 4)
	default:
		switch {
		case tag.Cmd.Defined():
			in.Unhandled = true
			skip(4)
		case tag.Cmd.IsUnpack():
			in.Info = fmt.Sprintf("ADDR:%X (%X), NUM:%d", tag.Addr(), uint32(tag.Addr())*16, tag.Num)
			u, n, err := unpack(buf, next, tag, s)
			if err != nil {
				return in, pos, s, err
			}
			in.Unpack = u
			next += n
		default:
			in.Generic = true
			in.Info = fmt.Sprintf("ADDR:%X (%X), NUM:%d, IRQ:%t",
				tag.Addr(), uint32(tag.Addr())*16, tag.Num, tag.IRQ)
		}
	}

	in.Size = next - pos
	in.Session = s
	return in, next, s, nil
}

func unpack(buf []byte, pos int, tag Tag, s Session) (*Unpack, int, error) {
	typ := tag.Unpack()
	if !typ.Valid() {
		return nil, 0, fmt.Errorf("%w: cmd 0x%02X at 0x%X", ErrInvalidUnpackType, uint8(tag.Cmd), pos-TagSize)
	}

	size, comps := typ.ElementSize(), typ.Components()
	num := int(tag.Num)
	need := num * comps * size
	if pos+need > len(buf) {
		return nil, 0, fmt.Errorf("%w: %s at 0x%X needs %d bytes, %d remain",
			ErrTruncated, typ, pos-TagSize, need, len(buf)-pos)
	}

	u := &Unpack{Type: typ, Masked: tag.Masked()}
	wl := int(s.WL)
	scale := typ.Scale()
	at := pos
	for i := 0; i < num; i++ {
		if (wl == 0 && i == 0) || (wl > 0 && i%wl == 0) {
			u.Groups = append(u.Groups, Group{Start: i})
		}

		e := Element{Raw: make([]int64, comps)}
		for c := 0; c < comps; c++ {
			e.Raw[c] = readValue(buf[at:], size, tag.USN(), tag.FLG())
			at += size
		}
		if scale != 0 {
			e.Scaled = make([]float64, comps)
			for c, v := range e.Raw {
				e.Scaled[c] = float64(v) / scale
			}
		}
		if typ == V4_5551 {
			v := e.Raw[0]
			e.Color = &Color{
				R: uint8(v & 0x1F),
				G: uint8((v >> 5) & 0x1F),
				B: uint8((v >> 10) & 0x1F),
				A: uint8((v >> 15) & 1),
			}
		}

		g := &u.Groups[len(u.Groups)-1]
		g.Elements = append(g.Elements, e)
	}
	return u, need, nil
}

func readValue(b []byte, size int, unsigned, flg bool) int64 {
	var v int64
	switch size {
	case 1:
		if unsigned {
			v = int64(b[0])
		} else {
			v = int64(int8(b[0]))
		}
	case 2:
		u := binary.LittleEndian.Uint16(b)
		if unsigned {
			v = int64(u)
		} else {
			v = int64(int16(u))
		}
	default:
		u := binary.LittleEndian.Uint32(b)
		if unsigned {
			return int64(u)
		}
		return int64(int32(u))
	}
	if flg && v > 127 {
		v -= 128
	}
	return v
}
