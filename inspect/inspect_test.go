package inspect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/jello/cpu"
)

func testCpu() (c *cpu.Cpu) {
	c = cpu.NewCpu()
	c.Acc = 0x1234
	c.Ip = 0x0010
	c.Register[cpu.REG_R1] = 2
	c.Register[cpu.REG_R2] = 40
	c.Flags.Carry = true
	c.Stack.Push(1)
	c.Stack.Push(2)
	c.CallStack.Push(0x0003)
	c.Write16(0x0020, 0xbeef)

	return
}

func TestEval(t *testing.T) {
	assert := assert.New(t)

	c := testCpu()

	table := [](struct {
		expr     string
		expected string
	}){
		{"acc", "4660"},
		{"hex(acc)", "0x1234"},
		{"ip", "16"},
		{"r1 + r2", "42"},
		{"r0", "0"},
		{"carry", "True"},
		{"carry and not overflow", "True"},
		{"test or halt", "False"},
		{"stack", "[1, 2]"},
		{"stack[-1]", "2"},
		{"len(calls)", "1"},
		{"mem(0x20)", "239"},
		{"hex(mem16(0x20))", "0xbeef"},
		{"[hex(v) for v in stack]", `["0x0001", "0x0002"]`},
	}

	for _, entry := range table {
		text, err := Eval(c, entry.expr)
		assert.NoError(err, entry.expr)
		assert.Equal(entry.expected, text, entry.expr)
	}
}

func TestEval_Errors(t *testing.T) {
	assert := assert.New(t)

	c := testCpu()

	for _, expr := range []string{
		"",
		"undefined",
		"mem()",
		"mem(-1)",
		"mem(65536)",
		"acc +",
	} {
		_, err := Eval(c, expr)
		var eerr *ErrExpression
		assert.True(errors.As(err, &eerr), expr)
	}

	_, err := Eval(c, "mem16(70000)")
	var addr *ErrAddress
	if assert.True(errors.As(err, &addr)) {
		assert.Equal(70000, addr.Address)
	}
}
