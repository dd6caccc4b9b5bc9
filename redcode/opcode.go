package redcode

import "strings"

// Opcode enum type.
type Opcode byte

// Opcode values, in ICWS'94 order.
const (
	DAT Opcode = iota // Data. Kills the process executing it.
	MOV               // Move.
	ADD               // Add.
	SUB               // Subtract.
	MUL               // Multiply.
	DIV               // Divide.
	MOD               // Modulus.
	JMP               // Jump.
	JMZ               // Jump if zero.
	JMN               // Jump if not zero.
	DJZ               // Decrement, jump if zero.
	DJN               // Decrement, jump if not zero.
	CMP               // Compare, alias of SEQ.
	SEQ               // Skip if equal.
	SNE               // Skip if not equal.
	SLT               // Skip if less than.
	LDP               // Load from p-space.
	STP               // Store to p-space.
	NOP               // No operation.
	SPL               // Split.
)

// OpcodeInfo is the definition of an opcode.
type OpcodeInfo struct {
	Name      string
	Code      Opcode
	Comment   string
	Supported bool // Whether the execution engine implements it.
}

var OpcodeTable = []OpcodeInfo{
	{"DAT", DAT, "data, kills the process", true},
	{"MOV", MOV, "move A into B", true},
	{"ADD", ADD, "add A to B", true},
	{"SUB", SUB, "subtract A from B", true},
	{"MUL", MUL, "multiply B by A", true},
	{"DIV", DIV, "divide B by A", true},
	{"MOD", MOD, "remainder of B by A", true},
	{"JMP", JMP, "jump to A", true},
	{"JMZ", JMZ, "jump to A if zero", true},
	{"JMN", JMN, "jump to A if not zero", true},
	{"DJZ", DJZ, "decrement, jump if zero", false},
	{"DJN", DJN, "decrement B, jump to A if not zero", true},
	{"CMP", CMP, "skip next if equal", true},
	{"SEQ", SEQ, "skip next if equal", true},
	{"SNE", SNE, "skip next if not equal", true},
	{"SLT", SLT, "skip next if A lower than B", true},
	{"LDP", LDP, "load from p-space", false},
	{"STP", STP, "store to p-space", false},
	{"NOP", NOP, "no operation", true},
	{"SPL", SPL, "split a new process", false},
}

func (o Opcode) String() string {
	if !o.Valid() {
		return "???"
	}
	return OpcodeTable[o].Name
}

// Valid reports whether o is a known opcode.
func (o Opcode) Valid() bool { return int(o) < len(OpcodeTable) }

// Supported reports whether the execution engine implements o.
func (o Opcode) Supported() bool { return o.Valid() && OpcodeTable[o].Supported }

// ParseOpcode looks up an opcode by mnemonic, case insensitive.
func ParseOpcode(name string) (Opcode, bool) {
	name = strings.ToUpper(name)
	for _, elem := range OpcodeTable {
		if elem.Name == name {
			return elem.Code, true
		}
	}
	return 0, false
}
