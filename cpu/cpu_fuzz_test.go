package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

const fuzzIp = uint16(0x0100)

func FuzzCpu(f *testing.F) {
	for op := range 256 {
		f.Add(uint8(op), uint16(0), uint16(0), uint16(0))
		f.Add(uint8(op), uint16(0xffff), uint16(0x0001), uint16(0x8000))
	}

	f.Fuzz(func(t *testing.T, op uint8, second uint16, top uint16, imm uint16) {
		assert := assert.New(t)

		cpu := NewCpu()
		cpu.Ip = fuzzIp
		cpu.Memory[fuzzIp] = op
		cpu.Write16(fuzzIp+1, imm)
		cpu.Stack.Push(second)
		cpu.Stack.Push(top)

		inst, ok := LookupOpcode(Opcode(op))

		err := cpu.Tick()
		if !ok {
			assert.NoError(err)
			assert.Equal(fuzzIp, cpu.Ip)
			assert.Equal(0, cpu.Ticks)
			return
		}

		if err != nil {
			assert.Equal(OP_DIV, inst.Code, inst.Mnemonic)
			assert.Equal(uint16(0), second, inst.Mnemonic)
			assert.True(errors.Is(err, ErrDivideByZero), inst.Mnemonic)
			assert.Equal(fuzzIp, cpu.Ip, inst.Mnemonic)
			return
		}

		assert.Equal(1, cpu.Ticks, inst.Mnemonic)
		assert.Equal(inst.Cycles, cpu.Cycles, inst.Mnemonic)
		assert.LessOrEqual(cpu.Output.Len(), 6, inst.Mnemonic)
		assert.LessOrEqual(cpu.Stack.Len(), 5, inst.Mnemonic)

		if !inst.Branches() {
			assert.Equal(fuzzIp+uint16(inst.Size()), cpu.Ip, inst.Mnemonic)
		}
	})
}
