package vif

// Mode is the STMOD addition mode.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeOffset
	ModeDifference
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeOffset:
		return "OFFSET"
	case ModeDifference:
		return "DIFFERENCE"
	default:
		return "UNDEFINED"
	}
}

// MaskType is one 2-bit STMASK entry.
type MaskType uint8

const (
	MaskData MaskType = iota
	MaskRow
	MaskCol
	MaskWriteProtect
)

func (m MaskType) String() string {
	switch m {
	case MaskData:
		return "DATA"
	case MaskRow:
		return "MASK_ROW"
	case MaskCol:
		return "MASK_COL"
	default:
		return "WRITE_PROTECT"
	}
}

// MaskTable is indexed [row][component]; each row covers one write cycle.
type MaskTable [4][4]MaskType

// ParseMask expands a STMASK word.
func ParseMask(mask uint32) MaskTable {
	var t MaskTable
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			t[row][col] = MaskType((mask >> (row*8 + col*2)) & 3)
		}
	}
	return t
}

// Session is the decoder state carried from tag to tag. The zero value is the
// reset state.
type Session struct {
	CL       uint8     `json:"cl"`
	WL       uint8     `json:"wl"`
	Mode     Mode      `json:"mode"`
	ITop     uint16    `json:"itop"`
	Offset   uint16    `json:"offset"`
	ExecAddr uint16    `json:"exec_addr"`
	Mask     uint32    `json:"mask"`
	Masks    MaskTable `json:"masks"`
}
