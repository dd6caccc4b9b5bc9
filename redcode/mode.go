package redcode

// Mode is an operand addressing mode.
type Mode byte

const (
	Immediate      Mode = iota // #
	Direct                     // $
	AIndirect                  // *
	BIndirect                  // @
	APreDecrement              // {
	APostIncrement             // }
	BPreDecrement              // <
	BPostIncrement             // >
)

// Sigils, indexed by Mode.
const Sigils = "#$*@{}<>"

// Sigil returns the single character prefix of the mode.
func (m Mode) Sigil() byte {
	if !m.Valid() {
		return '?'
	}
	return Sigils[m]
}

func (m Mode) String() string {
	switch m {
	case Immediate:
		return "immediate"
	case Direct:
		return "direct"
	case AIndirect:
		return "a-indirect"
	case BIndirect:
		return "b-indirect"
	case APreDecrement:
		return "a-predecrement"
	case APostIncrement:
		return "a-postincrement"
	case BPreDecrement:
		return "b-predecrement"
	case BPostIncrement:
		return "b-postincrement"
	default:
		return "unknown mode"
	}
}

func (m Mode) Valid() bool { return int(m) < len(Sigils) }

// Indirect reports whether the mode dereferences a pointer cell.
func (m Mode) Indirect() bool { return m >= AIndirect && m.Valid() }

// UsesAField reports whether an indirect mode reads the pointer cell's A-field.
func (m Mode) UsesAField() bool {
	return m == AIndirect || m == APreDecrement || m == APostIncrement
}

// ModeFromSigil returns the mode for the given sigil.
func ModeFromSigil(r rune) (Mode, bool) {
	for i, elem := range Sigils {
		if elem == r {
			return Mode(i), true
		}
	}
	return 0, false
}
