package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(source ...string) (binary []byte, err error) {
	asm := &Assembler{}
	asm.AddString(strings.Join(source, "\n"))
	return asm.Assemble()
}

func TestAssembler_Empty(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Binary))
	assert.Equal(0, len(prog.Lines))
}

func TestAssembler_Sizes(t *testing.T) {
	assert := assert.New(t)

	for inst := range Instructions() {
		line := inst.Mnemonic
		switch inst.Width {
		case 1:
			line += " 0x12"
		case 2:
			line += " 0x1234"
		}

		binary, err := assemble(line)
		if !assert.NoError(err, line) {
			continue
		}
		assert.Equal(inst.Size(), len(binary), line)
		assert.Equal(byte(inst.Code), binary[0], line)
		switch inst.Width {
		case 1:
			assert.Equal([]byte{0x12}, binary[1:], line)
		case 2:
			assert.Equal([]byte{0x34, 0x12}, binary[1:], line)
		}
	}
}

func TestAssembler_Operands(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		line     string
		expected []byte
	}){
		{"LRS 0xa5", []byte{0x1a, 0xa5}},
		{"LRI 0xbeef", []byte{0x10, 0xef, 0xbe}},
		{"LRS 0b101", []byte{0x1a, 0x05}},
		{"LRS 0b11111111", []byte{0x1a, 0xff}},
		{"LRS 'A'", []byte{0x1a, 0x41}},
		{"LRS ' '", []byte{0x1a, 0x20}},
		{`PRN2I "AB"`, []byte{0xf3, 0x41, 0x42}},
		{`PRN2I "\n\t"`, []byte{0xf3, 0x0a, 0x09}},
		{`PRN2I "\0\\"`, []byte{0xf3, 0x00, 0x5c}},
		{`PRN2I "\""`, nil},
		{`PRN2I " \""`, []byte{0xf3, 0x20, 0x22}},
		{"PRN2I 'a' 'b'", nil},
		{"halt", []byte{0x08}},
		{"  noop\t", []byte{0x00}},
	}

	for _, entry := range table {
		binary, err := assemble(entry.line)
		if entry.expected == nil {
			assert.Error(err, entry.line)
			continue
		}
		assert.NoError(err, entry.line)
		assert.Equal(entry.expected, binary, entry.line)
	}
}

func TestAssembler_SplitLine(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		line  string
		words []string
	}){
		{"PUSHI 0x1234", []string{"PUSHI", "0x1234"}},
		{"PUSHI \t 0x1234  ", []string{"PUSHI", "0x1234"}},
		{`.DATA 0x0010 "a b"`, []string{".DATA", "0x0010", `"a b"`}},
		{`.DATA 0x0010 "a\" b"`, []string{".DATA", "0x0010", `"a\" b"`}},
		{`.DATA 0x0010 "it's"`, []string{".DATA", "0x0010", `"it's"`}},
		{"LRS ' '", []string{"LRS", "' '"}},
		{`PRNI 'a'\ x`, []string{"PRNI", `'a'\`, "x"}},
		{`PRNI "a\ b"`, []string{"PRNI", `"a\ b"`}},
		{"", nil},
	}

	for _, entry := range table {
		assert.Equal(entry.words, splitLine(entry.line), entry.line)
	}
}

func TestAssembler_Label(t *testing.T) {
	assert := assert.New(t)

	binary, err := assemble(
		"LRI :end",
		"NOOP",
		":end",
		"HALT",
	)
	assert.NoError(err)
	assert.Equal([]byte{0x10, 0x04, 0x00, 0x00, 0x08}, binary)

	// Labels declared together all resolve to the same opcode, and
	// backward references work as well as forward ones.
	binary, err = assemble(
		"NOOP",
		":top",
		"# comment",
		":also",
		"",
		"JMPI :top",
		"JMPI :also",
	)
	assert.NoError(err)
	assert.Equal([]byte{0x00, 0x40, 0x01, 0x00, 0x40, 0x01, 0x00}, binary)
}

func TestAssembler_Data(t *testing.T) {
	assert := assert.New(t)

	binary, err := assemble(
		"PUSHI 0x1234",
		"HALT",
		`.DATA 0x0010 "AB"`,
	)
	assert.NoError(err)
	assert.Equal(18, len(binary))
	assert.Equal([]byte{0x3a, 0x34, 0x12, 0x08}, binary[:4])
	assert.Equal(make([]byte, 12), binary[4:16])
	assert.Equal([]byte{0x41, 0x42}, binary[16:])

	// Data may be placed immediately after the program.
	binary, err = assemble(
		"HALT",
		".data 0x0001 0xff",
		".DATA 0x0002 0x7f",
	)
	assert.NoError(err)
	assert.Equal([]byte{0x08, 0xff, 0x7f}, binary)

	// Data may reference labels.
	binary, err = assemble(
		"NOOP",
		":here",
		"HALT",
		".DATA 0x0004 :here",
	)
	assert.NoError(err)
	assert.Equal([]byte{0x00, 0x08, 0x00, 0x00, 0x01, 0x00}, binary)
}

func TestAssembler_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source string
		err    error
		lineno int
	}){
		{"BOGUS", ErrInstructionUnknown, 1},
		{"NOOP\nPUSHI", ErrArgumentCount, 2},
		{"HALT 0x00", ErrArgumentCount, 1},
		{"PUSHI 0x12", ErrOperandNarrow, 1},
		{"LRS 0x1234", ErrOperandWide, 1},
		{`LRS "AB"`, ErrOperandWide, 1},
		{"PUSHI 0xZZZZ", ErrOperandParse, 1},
		{"PUSHI 0x123", ErrOperandParse, 1},
		{"LRS 0b101010101", ErrOperandParse, 1},
		{"LRS 0b", ErrOperandParse, 1},
		{"LRS 'AB'", ErrOperandParse, 1},
		{"LRS 12", ErrOperandParse, 1},
		{"JMPI :", ErrOperandParse, 1},
		{`PRN2I "AB`, ErrStringUnterminated, 1},
		{`PRN2I "AB`, ErrOperandParse, 1},
		{`PRN2I ""`, ErrOperandParse, 1},
		{":a\nNOOP\n:a\nHALT", ErrLabelDuplicate, 3},
		{":\nHALT", ErrLabelInvalid, 1},
		{"JMPI :nowhere", ErrLabelMissing("nowhere"), 1},
		{"NOOP\nJMPI :tail\n:tail", ErrLabelMissing("tail"), 2},
		{".DATA 0x0010", ErrDataLength, 1},
		{".DATA 0x0010 0x01 0x02", ErrDataLength, 1},
		{".DATA :x 0x01", ErrDataAddress, 1},
		{".DATA zz 0x01", ErrDataAddress, 1},
		{".DATA 0x10 0x01", ErrDataAddressLength, 1},
		{".DATA 0x0010 0xZZ", ErrDataValue, 1},
		{".DATA 0x0010 :missing", ErrLabelMissing("missing"), 1},
		{"PUSHI 0x1234\nHALT\n.DATA 0x0002 0x01", ErrDataOverlap, 3},
		{".DATA 0x0010 0x01\n.DATA 0x0010 0x02", ErrDataOverlap, 2},
		{".DATA 0xffff \"AB\"", ErrProgramSize, 1},
		{"\n\n# comment\nBOGUS", ErrInstructionUnknown, 4},
	}

	for _, entry := range table {
		_, err := assemble(entry.source)
		assert.ErrorIs(err, entry.err, entry.source)

		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.source) {
			assert.Equal(entry.lineno, syntax.LineNo, entry.source)
			assert.Equal(strings.Split(entry.source, "\n")[entry.lineno-1], syntax.Line, entry.source)
		}
	}
}

func TestAssembler_LongLine(t *testing.T) {
	assert := assert.New(t)

	// Lines longer than the default scanner limit still assemble.
	_, err := assemble(`.DATA 0x0000 "` + strings.Repeat("A", 70000) + `"`)
	assert.ErrorIs(err, ErrProgramSize)
	var syntax *ErrSyntax
	if assert.True(errors.As(err, &syntax)) {
		assert.Equal(1, syntax.LineNo)
	}

	binary, err := assemble(`.DATA 0x0000 "` + strings.Repeat("A", 65000) + `"`)
	assert.NoError(err)
	assert.Equal(65000, len(binary))

	// A line beyond any program size is reported where it occurs.
	_, err = assemble("NOOP", strings.Repeat("x", 3*MEMORY_SIZE))
	assert.ErrorIs(err, bufio.ErrTooLong)
	if assert.True(errors.As(err, &syntax)) {
		assert.Equal(2, syntax.LineNo)
	}
}

func TestAssembler_ErrorDetail(t *testing.T) {
	assert := assert.New(t)

	_, err := assemble("PUSHI")
	var size *ErrSize
	if assert.True(errors.As(err, &size)) {
		assert.Equal(1, size.Expected)
		assert.Equal(0, size.Got)
	}

	_, err = assemble("NOOP\n:twice\nNOOP\n:twice\nHALT")
	var label *ErrLabel
	if assert.True(errors.As(err, &label)) {
		assert.Equal("twice", label.Label)
		assert.Equal(2, label.First)
	}

	_, err = assemble("HALT\n.DATA 0x0000 0x01")
	var address *ErrAddress
	if assert.True(errors.As(err, &address)) {
		assert.Equal(uint16(0), address.Address)
	}
}

func TestAssembler_Idempotent(t *testing.T) {
	assert := assert.New(t)

	source := strings.Join([]string{
		":loop",
		"PUSHI 0x0001",
		"PRN2I \"hi\"",
		"JMPI :loop",
		".DATA 0x0020 \"data\"",
	}, "\n")

	asm := &Assembler{}
	first, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)
	second, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)
	assert.Equal(first.Binary, second.Binary)

	other := &Assembler{}
	other.AddString(source)
	third, err := other.Assemble()
	assert.NoError(err)
	assert.Equal(first.Binary, third)
}

func TestAssembler_AddString(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.AddString("NOOP")
	asm.AddString("HALT\n")
	asm.AddString("")
	asm.AddString("PRNI 'x'")

	binary, err := asm.Assemble()
	assert.NoError(err)
	assert.Equal([]byte{0x00, 0x08, 0xf1, 0x78}, binary)
}

func TestAssembler_Listing(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"# header",
		"PUSHI 0x0001",
		":next",
		"HALT",
		".DATA 0x0008 0x2a",
	}, "\n")))
	assert.NoError(err)

	assert.Equal([]Line{
		{LineNo: 2, Ip: 0, Size: 3, Words: []string{"PUSHI", "0x0001"}},
		{LineNo: 4, Ip: 3, Size: 1, Words: []string{"HALT"}},
		{LineNo: 5, Ip: 8, Size: 1, Words: []string{".DATA", "0x0008", "0x2a"}},
	}, prog.Lines)

	for ip, lineno := range map[uint16]int{0: 2, 2: 2, 3: 4, 4: 0, 8: 5, 9: 0} {
		assert.Equal(lineno, prog.LineNo(ip), fmt.Sprintf("ip %04x", ip))
	}
}
