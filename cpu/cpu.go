package cpu

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ezrec/jello/io"
)

const (
	MEMORY_SIZE = 65536 // Bytes of flat memory.
)

// Register is a general purpose register index.
type Register int

//go:generate go tool stringer -linecomment -type=Register
const (
	REG_R0 = Register(0) // r0
	REG_R1 = Register(1) // r1
	REG_R2 = Register(2) // r2
	REG_R3 = Register(3) // r3
)

// Flags are the condition flags of the CPU.
type Flags struct {
	Halt     bool // Set by HALT, stops execution.
	Carry    bool // Unsigned overflow or underflow of ADD/SUB families.
	Overflow bool // Saturation of MUL.
	Test     bool // Result of the TEST families, consumed by test-gated jumps.
}

func (fl Flags) String() string {
	return fmt.Sprintf("{halt: %v, carry: %v, overflow: %v, test: %v}",
		fl.Halt, fl.Carry, fl.Overflow, fl.Test)
}

// Cpu is the simulation context of the jello machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory    [MEMORY_SIZE]byte // Flat memory, program loaded at 0.
	Register  [4]uint16         // Register bank.
	Acc       uint16            // Accumulator.
	Ip        uint16            // Current instruction pointer.
	Stack     Stack             // Operand stack.
	CallStack Stack             // Return address stack.
	Flags     Flags             // Condition flags.

	ClockHz float64 // Emulated clock rate, zero for unthrottled.

	Output io.Serial // Bytes written by the program.
	Input  io.Serial // Bytes available to the program.

	Ticks  int // Instructions executed since reset.
	Cycles int // Clock cycles consumed since reset.

	// Sleep blocks for the throttle delay of an instruction.
	// If nil, time.Sleep is used.
	Sleep func(delay time.Duration)
}

// NewCpu creates a new, reset CPU.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()

	return
}

// Reset the CPU state.
// - Clears memory, registers, stacks and flags.
// - Empties the serial buffers.
// - Zeros statistics counters.
//
// The clock rate is preserved.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Memory[:])
	clear(cpu.Register[:])
	cpu.Acc = 0
	cpu.Ip = 0
	cpu.Stack.Reset()
	cpu.CallStack.Reset()
	cpu.Flags = Flags{}
	cpu.Output.Rewind()
	cpu.Input.Rewind()
	cpu.Ticks = 0
	cpu.Cycles = 0
}

// Load copies a program into memory starting at address 0.
func (cpu *Cpu) Load(program []byte) (err error) {
	if len(program) > len(cpu.Memory) {
		err = ErrProgramSize
		return
	}

	copy(cpu.Memory[:], program)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(program))
	}

	return
}

// Fetch looks up the instruction at the instruction pointer.
func (cpu *Cpu) Fetch() (inst Instruction, ok bool) {
	return LookupOpcode(Opcode(cpu.Memory[cpu.Ip]))
}

// Delay returns the time an instruction takes at the configured clock rate.
func (cpu *Cpu) Delay(inst Instruction) time.Duration {
	if cpu.ClockHz <= 0 {
		return 0
	}

	return time.Duration(float64(inst.Cycles) / cpu.ClockHz * float64(time.Second))
}

// Tick executes a single fetch-decode-execute cycle.
//
// An unknown opcode is a no-op that leaves the instruction pointer in
// place, so a program that runs into one stops making progress.
func (cpu *Cpu) Tick() (err error) {
	inst, ok := cpu.Fetch()
	if !ok {
		if cpu.Verbose {
			log.Printf("cpu: %04x: unknown opcode 0x%02x", cpu.Ip, cpu.Memory[cpu.Ip])
		}
		return
	}

	err = cpu.Execute(inst)
	if err != nil {
		return
	}

	cpu.Ticks++
	cpu.Cycles += inst.Cycles

	delay := cpu.Delay(inst)
	if delay > 0 {
		sleep := cpu.Sleep
		if sleep == nil {
			sleep = time.Sleep
		}
		sleep(delay)
	}

	return
}

// immediate8 reads the single operand byte of the current instruction.
func (cpu *Cpu) immediate8() byte {
	return cpu.Memory[cpu.Ip+1]
}

// immediate16 reads the little endian operand word of the current instruction.
func (cpu *Cpu) immediate16() uint16 {
	return uint16(cpu.Memory[cpu.Ip+1]) | (uint16(cpu.Memory[cpu.Ip+2]) << 8)
}

// Read16 reads a little endian word from memory, wrapping at the top.
func (cpu *Cpu) Read16(address uint16) uint16 {
	return uint16(cpu.Memory[address]) | (uint16(cpu.Memory[address+1]) << 8)
}

// Write16 writes a little endian word to memory, wrapping at the top.
func (cpu *Cpu) Write16(address uint16, value uint16) {
	cpu.Memory[address] = byte(value & 0xff)
	cpu.Memory[address+1] = byte(value >> 8)
}

// Execute applies a single instruction to the CPU state.
func (cpu *Cpu) Execute(inst Instruction) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(inst.Code), err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%v", cpu.FormatInst())
	}

	st := &cpu.Stack
	next_ip := cpu.Ip + uint16(inst.Size())

	// Comparison jumps leave both compared values on the stack.
	compare := func(target uint16, taken func(first, second uint16) bool) {
		first := st.Pop()
		second := st.Pop()
		st.Push(second)
		st.Push(first)
		if taken(first, second) {
			next_ip = target
		}
	}
	greater := func(first, second uint16) bool { return first > second }
	less := func(first, second uint16) bool { return first < second }
	equal := func(first, second uint16) bool { return first == second }

	switch op := inst.Code; op {
	case OP_NOOP:
		// pass
	case OP_HALT:
		cpu.Flags.Halt = true
		next_ip = cpu.Ip

	case OP_LRI:
		cpu.Acc = cpu.immediate16()
	case OP_LR0, OP_LR1, OP_LR2, OP_LR3:
		cpu.Acc = cpu.Register[Register(op-OP_LR0)]
	case OP_SR0, OP_SR1, OP_SR2, OP_SR3:
		cpu.Register[Register(op-OP_SR0)] = cpu.Acc
	case OP_ZERO:
		cpu.Acc = 0
	case OP_LRS:
		cpu.Acc = uint16(cpu.immediate8())

	case OP_ADD:
		cpu.Acc, cpu.Flags.Carry = add(st.Pop(), st.Pop(), 0)
	case OP_ADDC:
		cpu.Acc, cpu.Flags.Carry = add(st.Pop(), st.Pop(), carryIn(cpu.Flags.Carry))
	case OP_SUB:
		cpu.Acc, cpu.Flags.Carry = sub(st.Pop(), st.Pop(), 0)
	case OP_SUBC:
		cpu.Acc, cpu.Flags.Carry = sub(st.Pop(), st.Pop(), carryIn(cpu.Flags.Carry))
	case OP_NEG:
		cpu.Acc = (st.Pop() ^ 0xffff) + 1
	case OP_MUL:
		product := uint32(st.Pop()) * uint32(st.Pop())
		cpu.Flags.Overflow = product > 0xffff
		if cpu.Flags.Overflow {
			product = 0xffff
		}
		cpu.Acc = uint16(product)
	case OP_DIV:
		dividend := st.Pop()
		divisor := st.Pop()
		if divisor == 0 {
			err = ErrDivideByZero
			return
		}
		cpu.Acc = dividend / divisor
	case OP_ADDI:
		cpu.Acc, cpu.Flags.Carry = add(st.Pop(), cpu.immediate16(), 0)
	case OP_SUBI:
		cpu.Acc, cpu.Flags.Carry = sub(st.Pop(), cpu.immediate16(), 0)

	case OP_PUSH:
		st.Push(cpu.Acc)
	case OP_POP:
		cpu.Acc = st.Pop()
	case OP_SWAP:
		first := st.Pop()
		second := st.Pop()
		st.Push(first)
		st.Push(second)
	case OP_PEAK:
		first := st.Pop()
		st.Push(first)
		cpu.Acc = first
	case OP_SPILL:
		first := st.Pop()
		st.Pop()
		st.Push(first)
	case OP_DROP:
		st.Pop()
	case OP_UNDER:
		first := st.Pop()
		st.Push(cpu.Acc)
		st.Push(first)
	case OP_DUP:
		first := st.Pop()
		st.Push(first)
		st.Push(first)
	case OP_PUSHI:
		st.Push(cpu.immediate16())
	case OP_ROTCW, OP_ROTAC, OP_ROTCW4, OP_ROTAC4, OP_ROTCW5, OP_ROTAC5:
		rotate(st, rotations[op])

	case OP_JMPI:
		next_ip = cpu.immediate16()
	case OP_JMPIG:
		compare(cpu.immediate16(), greater)
	case OP_JMPIL:
		compare(cpu.immediate16(), less)
	case OP_JMPIE:
		compare(cpu.immediate16(), equal)
	case OP_JMPIT:
		if cpu.Flags.Test {
			next_ip = cpu.immediate16()
		}
	case OP_JMP:
		next_ip = st.Pop()
	case OP_JMPGT:
		compare(st.Pop(), greater)
	case OP_JMPLT:
		compare(st.Pop(), less)
	case OP_JMPEQ:
		compare(st.Pop(), equal)
	case OP_JMPT:
		target := st.Pop()
		if cpu.Flags.Test {
			next_ip = target
		}
	case OP_PUSHP:
		cpu.CallStack.Push(cpu.Ip)
	case OP_POPP:
		next_ip = cpu.CallStack.Pop()
	case OP_CALL:
		next_ip = st.Pop()
		cpu.CallStack.Push(cpu.Ip)
	case OP_RET:
		next_ip = cpu.CallStack.Pop() + 1
	case OP_CALLI:
		// The return address is the last operand byte, so RET
		// resumes at the following instruction.
		next_ip = cpu.immediate16()
		cpu.CallStack.Push(cpu.Ip + 2)
	case OP_SKIP:
		// pass

	case OP_LOAD:
		st.Push(cpu.Read16(st.Pop()))
	case OP_STORE:
		address := st.Pop()
		cpu.Write16(address, st.Pop())
	case OP_LOADI:
		st.Push(cpu.Read16(cpu.immediate16()))
	case OP_STOREI:
		cpu.Write16(cpu.immediate16(), st.Pop())

	case OP_OR:
		cpu.Acc = st.Pop() | st.Pop()
	case OP_AND:
		cpu.Acc = st.Pop() & st.Pop()
	case OP_XOR:
		cpu.Acc = st.Pop() ^ st.Pop()
	case OP_NAND:
		cpu.Acc = ^(st.Pop() & st.Pop())
	case OP_NOR:
		cpu.Acc = ^(st.Pop() | st.Pop())
	case OP_NOT:
		cpu.Acc = ^st.Pop()
	case OP_LSFT0:
		cpu.Acc = st.Pop() << 1
	case OP_RSFT0:
		cpu.Acc = st.Pop() >> 1
	case OP_LSFT1:
		cpu.Acc = (st.Pop() << 1) | 0x0001
	case OP_RSFT1:
		cpu.Acc = (st.Pop() >> 1) | 0x8000
	case OP_LSFTB:
		cpu.Acc = st.Pop() << 8
	case OP_RSFTB:
		cpu.Acc = st.Pop() >> 8
	case OP_ORI:
		cpu.Acc = st.Pop() | cpu.immediate16()
	case OP_ANDI:
		cpu.Acc = st.Pop() & cpu.immediate16()
	case OP_XORI:
		cpu.Acc = st.Pop() ^ cpu.immediate16()
	case OP_NANDI:
		cpu.Acc = ^(st.Pop() & cpu.immediate16())
	case OP_NORI:
		cpu.Acc = ^(st.Pop() | cpu.immediate16())

	case OP_INC, OP_INC2, OP_INC3, OP_INC4:
		cpu.Acc = st.Pop() + uint16(op-OP_INC+1)
	case OP_DEC, OP_DEC2, OP_DEC3, OP_DEC4:
		cpu.Acc = st.Pop() - uint16(op-OP_DEC+1)
	case OP_INCP, OP_INC2P, OP_INC3P, OP_INC4P:
		st.Push(st.Pop() + uint16(op-OP_INCP+1))
	case OP_DECP, OP_DEC2P, OP_DEC3P, OP_DEC4P:
		st.Push(st.Pop() - uint16(op-OP_DECP+1))

	case OP_TEST:
		cpu.Flags.Test = cpu.Flags.Carry || cpu.Flags.Overflow
	case OP_TESTC:
		cpu.Flags.Test = cpu.Flags.Carry
	case OP_TESTO:
		cpu.Flags.Test = cpu.Flags.Overflow
	case OP_TSAST:
		cpu.Flags.Test = st.Pop() != 0
		st.Push(1)
	case OP_TSAINC:
		value := st.Pop()
		cpu.Flags.Test = value != 0
		st.Push(value + 1)
	case OP_TSADEC:
		value := st.Pop()
		cpu.Flags.Test = value != 0
		st.Push(value - 1)
	case OP_TSASTR:
		cpu.Flags.Test = cpu.Register[REG_R0] != 0
		cpu.Register[REG_R0] = 1
	case OP_TSAINR:
		cpu.Flags.Test = cpu.Register[REG_R0] != 0
		cpu.Register[REG_R0]++
	case OP_TSADER:
		cpu.Flags.Test = cpu.Register[REG_R0] != 0
		cpu.Register[REG_R0]--

	case OP_PRN:
		cpu.Output.Put(byte(st.Pop() & 0xff))
	case OP_PRNI:
		cpu.Output.Put(cpu.immediate8())
	case OP_PRN2:
		value := st.Pop()
		cpu.Output.Put(byte(value & 0xff))
		cpu.Output.Put(byte(value >> 8))
	case OP_PRN2I:
		cpu.Output.Put(cpu.Memory[cpu.Ip+1])
		cpu.Output.Put(cpu.Memory[cpu.Ip+2])
	case OP_DUMP8:
		cpu.Output.PutString(fmt.Sprintf("0x%02x", st.Pop()&0xff))
	case OP_DUMP16:
		cpu.Output.PutString(fmt.Sprintf("0x%04x", st.Pop()))

	default:
		panic(fmt.Sprintf("cpu: opcode 0x%02x in catalog but not executable", byte(op)))
	}

	cpu.Ip = next_ip

	return
}

// carryIn returns the carry flag as an arithmetic value.
func carryIn(carry bool) uint32 {
	if carry {
		return 1
	}
	return 0
}

// add returns a + b + cin, and whether the sum carried out of 16 bits.
func add(a, b uint16, cin uint32) (sum uint16, carry bool) {
	total := uint32(a) + uint32(b) + cin
	return uint16(total), total > 0xffff
}

// sub returns a - b - bin, and whether the difference borrowed.
func sub(a, b uint16, bin uint32) (diff uint16, carry bool) {
	total := int32(a) - int32(b) - int32(bin)
	return uint16(total), total < 0
}

// rotations are the operand stack permutations of the rotate instructions.
// Each entry lists, in push order, the pop positions (0 is the top) of
// the values to push back.
var rotations = map[Opcode][]int{
	OP_ROTCW:  {1, 0, 2},
	OP_ROTAC:  {0, 2, 1},
	OP_ROTCW4: {2, 1, 0, 3},
	OP_ROTAC4: {0, 3, 2, 1},
	OP_ROTCW5: {0, 4, 3, 2, 1},
	OP_ROTAC5: {3, 2, 1, 0, 4},
}

func rotate(st *Stack, order []int) {
	popped := make([]uint16, len(order))
	for n := range popped {
		popped[n] = st.Pop()
	}
	for _, n := range order {
		st.Push(popped[n])
	}
}

// FormatInst disassembles the instruction at the instruction pointer.
func (cpu *Cpu) FormatInst() string {
	op := cpu.Memory[cpu.Ip]
	inst, ok := LookupOpcode(Opcode(op))
	if !ok {
		return fmt.Sprintf("[%04x] ??? (%02x)", cpu.Ip, op)
	}

	if inst.Operands == 0 {
		return fmt.Sprintf("[%04x] %v (%02x)", cpu.Ip, inst.Mnemonic, op)
	}

	var data strings.Builder
	for n := range inst.Size() - 1 {
		if n != 0 {
			data.WriteString(" ")
			if n%inst.Width == 0 {
				data.WriteString(". ")
			}
		}
		fmt.Fprintf(&data, "%02x", cpu.Memory[cpu.Ip+1+uint16(n)])
	}

	return fmt.Sprintf("[%04x] %v (%02x | %v)", cpu.Ip, inst.Mnemonic, op, data.String())
}

// formatMemory condenses memory to its non-zero runs, with up to two
// zero bytes of context after each run.
func (cpu *Cpu) formatMemory() string {
	var text strings.Builder

	first := true
	interesting := 0
	for index, value := range cpu.Memory {
		if value != 0 {
			if interesting == 0 {
				first = true
			}
			interesting = 3
		} else if interesting > 0 {
			interesting--
			if interesting == 0 {
				fmt.Fprintf(&text, " [%04x] ... ", index)
			}
		}
		if interesting > 0 {
			if first {
				first = false
				fmt.Fprintf(&text, "[%04x] ", index)
			} else {
				text.WriteString(" ")
			}
			fmt.Fprintf(&text, "%02x", value)
		}
	}

	return text.String()
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"acc", "ip",
		"r0", "r1", "r2", "r3",
		"stack", "calls", "flags", "memory",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "acc":
			strval = fmt.Sprintf("%04x", cpu.Acc)
		case "ip":
			strval = fmt.Sprintf("%04x", cpu.Ip)
		case "r0", "r1", "r2", "r3":
			strval = fmt.Sprintf("%04x", cpu.Register[byte(reg[1]-'0')])
		case "stack":
			strval = cpu.Stack.String()
		case "calls":
			strval = cpu.CallStack.String()
		case "flags":
			strval = cpu.Flags.String()
		case "memory":
			strval = cpu.formatMemory()
		}
		text += fmt.Sprintf("% 6s: %v\n", reg, strval)
	}

	return
}
