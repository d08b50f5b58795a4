// Package cpu implements the jello 16-bit stack machine and its assembler.
//
// The machine has an accumulator (acc), an instruction pointer (ip), four
// 16-bit registers (r0-r3), a bounded operand stack, a bounded call stack,
// condition flags, 64KiB of flat memory, and a pair of serial buffers for
// program output and input.
//
// Instructions are a single opcode byte followed by zero, one or two
// little endian operand bytes. The catalog of instructions is fixed, and is
// shared by the assembler for encoding and by the CPU for decoding.
//
// The assembler is line oriented. A line is blank, a '#' comment, a ':name'
// label declaration, a '.DATA ADDR VALUE' placement directive, or a
// 'MNEMONIC [operand]' instruction. Operands are hexadecimal ('0x12',
// '0x1234'), binary ('0b101'), character ('c'), string ("text") or
// label (':name') literals.
package cpu
