package redcode

import "strings"

// Modifier selects which field(s) of an instruction an operation uses.
type Modifier byte

const (
	ModA  Modifier = iota // A -> A.
	ModB                  // B -> B.
	ModAB                 // A -> B.
	ModBA                 // B -> A.
	ModF                  // A -> A and B -> B.
	ModX                  // A -> B and B -> A.
	ModI                  // Whole instruction.
)

var modifierNames = [...]string{"A", "B", "AB", "BA", "F", "X", "I"}

func (m Modifier) String() string {
	if !m.Valid() {
		return "?"
	}
	return modifierNames[m]
}

func (m Modifier) Valid() bool { return int(m) < len(modifierNames) }

// ParseModifier looks up a modifier by name, case insensitive.
func ParseModifier(name string) (Modifier, bool) {
	name = strings.ToUpper(name)
	for i, elem := range modifierNames {
		if elem == name {
			return Modifier(i), true
		}
	}
	return 0, false
}

// DefaultModifier returns the ICWS'94 modifier an assembler picks
// when the source omits it.
func DefaultModifier(op Opcode, a, b Mode) Modifier {
	switch op {
	case DAT, NOP:
		return ModF
	case MOV, CMP, SEQ, SNE:
		if a == Immediate {
			return ModAB
		}
		if b == Immediate {
			return ModB
		}
		return ModI
	case ADD, SUB, MUL, DIV, MOD:
		if a == Immediate {
			return ModAB
		}
		if b == Immediate {
			return ModB
		}
		return ModF
	case SLT, LDP, STP:
		if a == Immediate {
			return ModAB
		}
		return ModB
	default: // JMP, JMZ, JMN, DJZ, DJN, SPL.
		return ModB
	}
}
