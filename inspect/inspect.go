// Package inspect evaluates Starlark expressions over the state of a
// jello machine.
//
// The expression sees the accumulator (acc), instruction pointer (ip),
// registers (r0-r3), flags (carry, overflow, test, halt), both stacks
// as lists bottom first (stack, calls), and the builtins mem(addr),
// mem16(addr) and hex(value).
package inspect

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/jello/cpu"
)

// address unpacks a single memory address argument.
func address(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (addr uint16, err error) {
	var value int
	err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &value)
	if err != nil {
		return
	}
	if value < 0 || value >= cpu.MEMORY_SIZE {
		err = &ErrAddress{Address: value}
		return
	}

	addr = uint16(value)
	return
}

func stackList(st *cpu.Stack) *starlark.List {
	var items []starlark.Value
	for _, value := range st.Values() {
		items = append(items, starlark.MakeInt(int(value)))
	}
	return starlark.NewList(items)
}

// Globals returns the predeclared names of an expression over the machine.
func Globals(c *cpu.Cpu) (pred starlark.StringDict) {
	pred = starlark.StringDict{
		"acc":      starlark.MakeInt(int(c.Acc)),
		"ip":       starlark.MakeInt(int(c.Ip)),
		"carry":    starlark.Bool(c.Flags.Carry),
		"overflow": starlark.Bool(c.Flags.Overflow),
		"test":     starlark.Bool(c.Flags.Test),
		"halt":     starlark.Bool(c.Flags.Halt),
		"stack":    stackList(&c.Stack),
		"calls":    stackList(&c.CallStack),
	}

	for reg := cpu.REG_R0; reg <= cpu.REG_R3; reg++ {
		pred[reg.String()] = starlark.MakeInt(int(c.Register[reg]))
	}

	pred["mem"] = starlark.NewBuiltin("mem", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		addr, err := address(b, args, kwargs)
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(int(c.Memory[addr])), nil
	})

	pred["mem16"] = starlark.NewBuiltin("mem16", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		addr, err := address(b, args, kwargs)
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(int(c.Read16(addr))), nil
	})

	pred["hex"] = starlark.NewBuiltin("hex", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var value int
		err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &value)
		if err != nil {
			return nil, err
		}
		return starlark.String(fmt.Sprintf("0x%04x", value)), nil
	})

	return
}

// Eval evaluates an expression over the machine state, returning its
// printed value.
func Eval(c *cpu.Cpu, expr string) (text string, err error) {
	thread := starlark.Thread{Name: "inspect"}
	opts := syntax.FileOptions{}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, Globals(c))
	if err != nil {
		err = &ErrExpression{Expr: expr, Err: err}
		return
	}

	rc, ok := dict["rc"]
	if !ok {
		err = &ErrExpression{Expr: expr, Err: ErrNoValue}
		return
	}

	str, ok := rc.(starlark.String)
	if ok {
		text = string(str)
	} else {
		text = rc.String()
	}

	return
}
