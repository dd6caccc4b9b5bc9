package mars

import "go.creack.net/mars/redcode"

// Imp is "Barry the IMP": MOV.I $0, $1.
func Imp() WarriorSpec {
	return WarriorSpec{
		Title: "Barry the IMP",
		Code: []redcode.Instruction{
			redcode.New(redcode.MOV, redcode.ModI, redcode.Direct, 0, redcode.Direct, 1),
		},
	}
}

// Dwarf is "Kevin the Dwarf", bombing every fourth cell.
func Dwarf() WarriorSpec {
	return WarriorSpec{
		Title: "Kevin the Dwarf",
		Code: []redcode.Instruction{
			redcode.New(redcode.ADD, redcode.ModAB, redcode.Immediate, 4, redcode.Direct, 3),
			redcode.New(redcode.MOV, redcode.ModI, redcode.Direct, 2, redcode.BIndirect, 2),
			redcode.New(redcode.JMP, redcode.ModB, redcode.Direct, -2, redcode.Direct, 0),
			redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 0, redcode.Immediate, 0),
		},
	}
}
