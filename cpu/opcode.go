package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode is the one byte code identifying an instruction.
type Opcode byte

// Control.
const (
	OP_NOOP = Opcode(0x00) // NOOP
	OP_HALT = Opcode(0x08) // HALT
)

// Data movement.
const (
	OP_LRI  = Opcode(0x10) // LRI
	OP_LR0  = Opcode(0x11) // LR0
	OP_LR1  = Opcode(0x12) // LR1
	OP_LR2  = Opcode(0x13) // LR2
	OP_LR3  = Opcode(0x14) // LR3
	OP_SR0  = Opcode(0x15) // SR0
	OP_SR1  = Opcode(0x16) // SR1
	OP_SR2  = Opcode(0x17) // SR2
	OP_SR3  = Opcode(0x18) // SR3
	OP_ZERO = Opcode(0x19) // ZERO
	OP_LRS  = Opcode(0x1a) // LRS
)

// Arithmetic.
const (
	OP_ADD  = Opcode(0x20) // ADD
	OP_ADDC = Opcode(0x21) // ADDC
	OP_SUB  = Opcode(0x22) // SUB
	OP_SUBC = Opcode(0x23) // SUBC
	OP_NEG  = Opcode(0x24) // NEG
	OP_MUL  = Opcode(0x25) // MUL
	OP_DIV  = Opcode(0x26) // DIV
	OP_ADDI = Opcode(0x27) // ADDI
	OP_SUBI = Opcode(0x28) // SUBI
)

// Operand stack manipulation.
const (
	OP_PUSH   = Opcode(0x30) // PUSH
	OP_POP    = Opcode(0x31) // POP
	OP_SWAP   = Opcode(0x32) // SWAP
	OP_PEAK   = Opcode(0x33) // PEAK
	OP_SPILL  = Opcode(0x34) // SPILL
	OP_DROP   = Opcode(0x35) // DROP
	OP_UNDER  = Opcode(0x36) // UNDER
	OP_ROTCW  = Opcode(0x37) // ROTCW
	OP_ROTAC  = Opcode(0x38) // ROTAC
	OP_DUP    = Opcode(0x39) // DUP
	OP_PUSHI  = Opcode(0x3a) // PUSHI
	OP_ROTCW4 = Opcode(0x3b) // ROTCW4
	OP_ROTAC4 = Opcode(0x3c) // ROTAC4
	OP_ROTCW5 = Opcode(0x3d) // ROTCW5
	OP_ROTAC5 = Opcode(0x3e) // ROTAC5
)

// Control flow.
const (
	OP_JMPI  = Opcode(0x40) // JMPI
	OP_JMPIG = Opcode(0x41) // JMPIG
	OP_JMPIL = Opcode(0x42) // JMPIL
	OP_JMPIE = Opcode(0x43) // JMPIE
	OP_JMPIT = Opcode(0x44) // JMPIT
	OP_JMP   = Opcode(0x45) // JMP
	OP_JMPGT = Opcode(0x46) // JMPGT
	OP_JMPLT = Opcode(0x47) // JMPLT
	OP_JMPEQ = Opcode(0x48) // JMPEQ
	OP_JMPT  = Opcode(0x49) // JMPT
	OP_PUSHP = Opcode(0x4a) // PUSHP
	OP_POPP  = Opcode(0x4b) // POPP
	OP_CALL  = Opcode(0x4c) // CALL
	OP_RET   = Opcode(0x4d) // RET
	OP_CALLI = Opcode(0x4e) // CALLI
	OP_SKIP  = Opcode(0x4f) // SKIP
)

// Memory.
const (
	OP_LOAD   = Opcode(0x50) // LOAD
	OP_STORE  = Opcode(0x51) // STORE
	OP_LOADI  = Opcode(0x52) // LOADI
	OP_STOREI = Opcode(0x53) // STOREI
)

// Bitwise and shift.
const (
	OP_OR    = Opcode(0x60) // OR
	OP_AND   = Opcode(0x61) // AND
	OP_XOR   = Opcode(0x62) // XOR
	OP_NAND  = Opcode(0x63) // NAND
	OP_NOR   = Opcode(0x64) // NOR
	OP_NOT   = Opcode(0x65) // NOT
	OP_LSFT0 = Opcode(0x66) // LSFT0
	OP_RSFT0 = Opcode(0x67) // RSFT0
	OP_LSFT1 = Opcode(0x68) // LSFT1
	OP_RSFT1 = Opcode(0x69) // RSFT1
	OP_ORI   = Opcode(0x6a) // ORI
	OP_ANDI  = Opcode(0x6b) // ANDI
	OP_XORI  = Opcode(0x6c) // XORI
	OP_NANDI = Opcode(0x6d) // NANDI
	OP_NORI  = Opcode(0x6e) // NORI
	OP_LSFTB = Opcode(0x90) // LSFTB
	OP_RSFTB = Opcode(0x91) // RSFTB
)

// Increment and decrement.
const (
	OP_INC   = Opcode(0x70) // INC
	OP_INC2  = Opcode(0x71) // INC2
	OP_INC3  = Opcode(0x72) // INC3
	OP_INC4  = Opcode(0x73) // INC4
	OP_DEC   = Opcode(0x74) // DEC
	OP_DEC2  = Opcode(0x75) // DEC2
	OP_DEC3  = Opcode(0x76) // DEC3
	OP_DEC4  = Opcode(0x77) // DEC4
	OP_INCP  = Opcode(0x78) // INCP
	OP_INC2P = Opcode(0x79) // INC2P
	OP_INC3P = Opcode(0x7a) // INC3P
	OP_INC4P = Opcode(0x7b) // INC4P
	OP_DECP  = Opcode(0x7c) // DECP
	OP_DEC2P = Opcode(0x7d) // DEC2P
	OP_DEC3P = Opcode(0x7e) // DEC3P
	OP_DEC4P = Opcode(0x7f) // DEC4P
)

// Flag tests.
const (
	OP_TEST   = Opcode(0x80) // TEST
	OP_TESTC  = Opcode(0x81) // TESTC
	OP_TESTO  = Opcode(0x82) // TESTO
	OP_TSAST  = Opcode(0x88) // TSAST
	OP_TSAINC = Opcode(0x89) // TSAINC
	OP_TSADEC = Opcode(0x8a) // TSADEC
	OP_TSASTR = Opcode(0x8b) // TSASTR
	OP_TSAINR = Opcode(0x8c) // TSAINR
	OP_TSADER = Opcode(0x8d) // TSADER
)

// Serial output.
const (
	OP_PRN    = Opcode(0xf0) // PRN
	OP_PRNI   = Opcode(0xf1) // PRNI
	OP_PRN2   = Opcode(0xf2) // PRN2
	OP_PRN2I  = Opcode(0xf3) // PRN2I
	OP_DUMP8  = Opcode(0xf4) // DUMP8
	OP_DUMP16 = Opcode(0xf5) // DUMP16
)

// Instruction describes the encoding and cost of a single opcode.
type Instruction struct {
	Mnemonic string // Upper case assembler name.
	Code     Opcode // Opcode byte.
	Operands int    // Number of operands following the opcode (0 or 1).
	Width    int    // Bytes per operand.
	Cycles   int    // Clock cycles consumed.
}

// Size returns the total encoded size of the instruction, opcode included.
func (inst Instruction) Size() int {
	return 1 + inst.Operands*inst.Width
}

// Branches returns true if the instruction may set the instruction pointer
// to something other than the next instruction.
func (inst Instruction) Branches() bool {
	switch inst.Code {
	case OP_HALT,
		OP_JMPI, OP_JMPIG, OP_JMPIL, OP_JMPIE, OP_JMPIT,
		OP_JMP, OP_JMPGT, OP_JMPLT, OP_JMPEQ, OP_JMPT,
		OP_POPP, OP_CALL, OP_RET, OP_CALLI:
		return true
	}

	return false
}

// String returns the mnemonic of the instruction.
func (inst Instruction) String() string {
	return inst.Mnemonic
}

// String returns the mnemonic of a known opcode.
func (op Opcode) String() string {
	inst, ok := LookupOpcode(op)
	if !ok {
		return fmt.Sprintf("Opcode(0x%02x)", byte(op))
	}
	return inst.Mnemonic
}

// catalog is the complete instruction set.
var catalog = [...]Instruction{
	{"NOOP", OP_NOOP, 0, 0, 1},
	{"HALT", OP_HALT, 0, 0, 1},

	{"LRI", OP_LRI, 1, 2, 3},
	{"LR0", OP_LR0, 0, 0, 1},
	{"LR1", OP_LR1, 0, 0, 1},
	{"LR2", OP_LR2, 0, 0, 1},
	{"LR3", OP_LR3, 0, 0, 1},
	{"SR0", OP_SR0, 0, 0, 1},
	{"SR1", OP_SR1, 0, 0, 1},
	{"SR2", OP_SR2, 0, 0, 1},
	{"SR3", OP_SR3, 0, 0, 1},
	{"ZERO", OP_ZERO, 0, 0, 1},
	{"LRS", OP_LRS, 1, 1, 2},

	{"ADD", OP_ADD, 0, 0, 1},
	{"ADDC", OP_ADDC, 0, 0, 1},
	{"SUB", OP_SUB, 0, 0, 1},
	{"SUBC", OP_SUBC, 0, 0, 1},
	{"NEG", OP_NEG, 0, 0, 1},
	{"MUL", OP_MUL, 0, 0, 2},
	{"DIV", OP_DIV, 0, 0, 3},
	{"ADDI", OP_ADDI, 1, 2, 3},
	{"SUBI", OP_SUBI, 1, 2, 3},

	{"PUSH", OP_PUSH, 0, 0, 1},
	{"POP", OP_POP, 0, 0, 1},
	{"SWAP", OP_SWAP, 0, 0, 1},
	{"PEAK", OP_PEAK, 0, 0, 1},
	{"SPILL", OP_SPILL, 0, 0, 1},
	{"DROP", OP_DROP, 0, 0, 1},
	{"UNDER", OP_UNDER, 0, 0, 1},
	{"ROTCW", OP_ROTCW, 0, 0, 2},
	{"ROTAC", OP_ROTAC, 0, 0, 2},
	{"DUP", OP_DUP, 0, 0, 1},
	{"PUSHI", OP_PUSHI, 1, 2, 3},
	{"ROTCW4", OP_ROTCW4, 0, 0, 2},
	{"ROTAC4", OP_ROTAC4, 0, 0, 2},
	{"ROTCW5", OP_ROTCW5, 0, 0, 2},
	{"ROTAC5", OP_ROTAC5, 0, 0, 2},

	{"JMPI", OP_JMPI, 1, 2, 3},
	{"JMPIG", OP_JMPIG, 1, 2, 4},
	{"JMPIL", OP_JMPIL, 1, 2, 4},
	{"JMPIE", OP_JMPIE, 1, 2, 4},
	{"JMPIT", OP_JMPIT, 1, 2, 3},
	{"JMP", OP_JMP, 0, 0, 1},
	{"JMPGT", OP_JMPGT, 0, 0, 2},
	{"JMPLT", OP_JMPLT, 0, 0, 2},
	{"JMPEQ", OP_JMPEQ, 0, 0, 2},
	{"JMPT", OP_JMPT, 0, 0, 1},
	{"PUSHP", OP_PUSHP, 0, 0, 1},
	{"POPP", OP_POPP, 0, 0, 1},
	{"CALL", OP_CALL, 0, 0, 1},
	{"RET", OP_RET, 0, 0, 1},
	{"CALLI", OP_CALLI, 1, 2, 3},
	{"SKIP", OP_SKIP, 1, 2, 1},

	{"LOAD", OP_LOAD, 0, 0, 3},
	{"STORE", OP_STORE, 0, 0, 3},
	{"LOADI", OP_LOADI, 1, 2, 5},
	{"STOREI", OP_STOREI, 1, 2, 5},

	{"OR", OP_OR, 0, 0, 1},
	{"AND", OP_AND, 0, 0, 1},
	{"XOR", OP_XOR, 0, 0, 1},
	{"NAND", OP_NAND, 0, 0, 1},
	{"NOR", OP_NOR, 0, 0, 1},
	{"NOT", OP_NOT, 0, 0, 1},
	{"LSFT0", OP_LSFT0, 0, 0, 1},
	{"RSFT0", OP_RSFT0, 0, 0, 1},
	{"LSFT1", OP_LSFT1, 0, 0, 1},
	{"RSFT1", OP_RSFT1, 0, 0, 1},
	{"ORI", OP_ORI, 1, 2, 3},
	{"ANDI", OP_ANDI, 1, 2, 3},
	{"XORI", OP_XORI, 1, 2, 3},
	{"NANDI", OP_NANDI, 1, 2, 3},
	{"NORI", OP_NORI, 1, 2, 3},

	{"INC", OP_INC, 0, 0, 1},
	{"INC2", OP_INC2, 0, 0, 1},
	{"INC3", OP_INC3, 0, 0, 1},
	{"INC4", OP_INC4, 0, 0, 1},
	{"DEC", OP_DEC, 0, 0, 1},
	{"DEC2", OP_DEC2, 0, 0, 1},
	{"DEC3", OP_DEC3, 0, 0, 1},
	{"DEC4", OP_DEC4, 0, 0, 1},
	{"INCP", OP_INCP, 0, 0, 1},
	{"INC2P", OP_INC2P, 0, 0, 1},
	{"INC3P", OP_INC3P, 0, 0, 1},
	{"INC4P", OP_INC4P, 0, 0, 1},
	{"DECP", OP_DECP, 0, 0, 1},
	{"DEC2P", OP_DEC2P, 0, 0, 1},
	{"DEC3P", OP_DEC3P, 0, 0, 1},
	{"DEC4P", OP_DEC4P, 0, 0, 1},

	{"TEST", OP_TEST, 0, 0, 1},
	{"TESTC", OP_TESTC, 0, 0, 1},
	{"TESTO", OP_TESTO, 0, 0, 1},
	{"TSAST", OP_TSAST, 0, 0, 3},
	{"TSAINC", OP_TSAINC, 0, 0, 4},
	{"TSADEC", OP_TSADEC, 0, 0, 4},
	{"TSASTR", OP_TSASTR, 0, 0, 2},
	{"TSAINR", OP_TSAINR, 0, 0, 2},
	{"TSADER", OP_TSADER, 0, 0, 2},

	{"LSFTB", OP_LSFTB, 0, 0, 1},
	{"RSFTB", OP_RSFTB, 0, 0, 1},

	{"PRN", OP_PRN, 0, 0, 1},
	{"PRNI", OP_PRNI, 1, 1, 2},
	{"PRN2", OP_PRN2, 0, 0, 1},
	{"PRN2I", OP_PRN2I, 1, 2, 3},
	{"DUMP8", OP_DUMP8, 0, 0, 1},
	{"DUMP16", OP_DUMP16, 0, 0, 1},
}

var (
	byOpcode [256]*Instruction
	byName   = make(map[string]*Instruction, len(catalog))
)

func init() {
	for n := range catalog {
		inst := &catalog[n]
		if byOpcode[inst.Code] != nil {
			panic(fmt.Sprintf("opcode 0x%02x used by %v and %v", byte(inst.Code), byOpcode[inst.Code].Mnemonic, inst.Mnemonic))
		}
		if _, ok := byName[inst.Mnemonic]; ok {
			panic(fmt.Sprintf("mnemonic %v duplicated", inst.Mnemonic))
		}
		byOpcode[inst.Code] = inst
		byName[inst.Mnemonic] = inst
	}
}

// LookupName finds an instruction by mnemonic, ignoring case.
func LookupName(name string) (inst Instruction, ok bool) {
	found, ok := byName[strings.ToUpper(name)]
	if ok {
		inst = *found
	}
	return
}

// LookupOpcode finds an instruction by opcode byte.
func LookupOpcode(op Opcode) (inst Instruction, ok bool) {
	found := byOpcode[op]
	if found != nil {
		inst = *found
		ok = true
	}
	return
}

// Instructions iterates over the catalog in opcode order.
func Instructions() iter.Seq[Instruction] {
	return func(yield func(inst Instruction) bool) {
		for _, inst := range byOpcode {
			if inst == nil {
				continue
			}
			if !yield(*inst) {
				return
			}
		}
	}
}
