// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"io"
	"log"
	"strconv"
	"strings"
)

// itemKind tags an intermediate byte of the assembler output.
type itemKind int

const (
	ITEM_DATA      = itemKind(iota) // Literal byte.
	ITEM_OPCODE                     // Opcode byte, possibly carrying labels.
	ITEM_LABEL_REF                  // Low byte of a label address.
	ITEM_LABEL_PAD                  // High byte of a label address.
)

// item is a single intermediate byte. Every item emits exactly one byte,
// so the index of an item is its address in the final stream.
type item struct {
	Kind   itemKind
	Value  byte
	Label  string   // Referenced label, for ITEM_LABEL_REF and ITEM_LABEL_PAD.
	Labels []string // Labels declared for this opcode.
	LineNo int
}

// pendingData is a deferred .DATA placement.
type pendingData struct {
	LineNo  int
	Address uint16
	Items   []item
}

// Assembler is a two pass assembler for the jello instruction set.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	source strings.Builder // Accumulated source text.
}

// AddString appends source text to the assembler input.
func (asm *Assembler) AddString(text string) {
	asm.source.WriteString(text)
	if len(text) > 0 && !strings.HasSuffix(text, "\n") {
		asm.source.WriteString("\n")
	}
}

// Assemble assembles the accumulated source text into a byte stream.
func (asm *Assembler) Assemble() (binary []byte, err error) {
	prog, err := asm.Parse(strings.NewReader(asm.source.String()))
	if err != nil {
		return
	}

	binary = prog.Binary
	return
}

// isSpace returns true for token separators.
func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// splitLine splits a line into whitespace separated words. Whitespace
// within single or double quotes does not separate words, and a backslash
// prevents the following quote from opening or closing a quoted run.
// Outside of quotes whitespace always separates words and ends an escape.
// Escapes are kept in the words for the operand parser.
func splitLine(line string) (words []string) {
	var word strings.Builder
	var quote rune
	escape := false
	pending := false

	for _, r := range line {
		switch {
		case quote == 0 && isSpace(r):
			escape = false
			if pending {
				words = append(words, word.String())
				word.Reset()
				pending = false
			}
			continue
		case escape:
			escape = false
		case r == '\\':
			escape = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		}
		word.WriteRune(r)
		pending = true
	}

	if pending {
		words = append(words, word.String())
	}

	return
}

// parseString decodes a double quoted string literal.
func parseString(word string) (items []item, err error) {
	escape := false
	closed := false

	for n, r := range word[1:] {
		if closed {
			err = ErrOperandParse
			return
		}
		if escape {
			escape = false
			switch r {
			case '0':
				r = 0
			case 'n':
				r = '\n'
			case 'r':
				r = '\r'
			case 't':
				r = '\t'
			}
		} else if r == '\\' {
			escape = true
			continue
		} else if r == '"' {
			closed = true
			if n == 0 {
				// Empty strings emit nothing, so they are not operands.
				err = ErrOperandParse
				return
			}
			continue
		}
		items = append(items, item{Kind: ITEM_DATA, Value: byte(r)})
	}

	if !closed {
		items = nil
		err = errors.Join(ErrOperandParse, ErrStringUnterminated)
	}

	return
}

// parseValue parses an operand word into intermediate bytes.
func parseValue(word string) (items []item, err error) {
	switch {
	case strings.HasPrefix(word, "0x"):
		digits := word[2:]
		var value uint64
		switch len(digits) {
		case 2:
			value, err = strconv.ParseUint(digits, 16, 8)
			if err == nil {
				items = []item{{Kind: ITEM_DATA, Value: byte(value)}}
			}
		case 4:
			value, err = strconv.ParseUint(digits, 16, 16)
			if err == nil {
				items = []item{
					{Kind: ITEM_DATA, Value: byte(value & 0xff)},
					{Kind: ITEM_DATA, Value: byte(value >> 8)},
				}
			}
		default:
			err = ErrOperandParse
		}
	case strings.HasPrefix(word, "0b"):
		digits := word[2:]
		if len(digits) == 0 || len(digits) > 8 {
			err = ErrOperandParse
			break
		}
		var value uint64
		value, err = strconv.ParseUint(digits, 2, 8)
		if err == nil {
			items = []item{{Kind: ITEM_DATA, Value: byte(value)}}
		}
	case strings.HasPrefix(word, "'"):
		if len(word) != 3 || word[2] != '\'' {
			err = ErrOperandParse
			break
		}
		items = []item{{Kind: ITEM_DATA, Value: word[1]}}
	case strings.HasPrefix(word, "\""):
		items, err = parseString(word)
	case strings.HasPrefix(word, ":") && len(word) > 1:
		label := word[1:]
		items = []item{
			{Kind: ITEM_LABEL_REF, Label: label},
			{Kind: ITEM_LABEL_PAD, Label: label},
		}
	default:
		err = ErrOperandParse
	}

	if err != nil && !errors.Is(err, ErrOperandParse) {
		err = errors.Join(ErrOperandParse, err)
	}

	return
}

// isLabel returns true if the line declares a label.
func isLabel(line string) bool {
	return strings.HasPrefix(line, ":")
}

// isIgnored returns true for blank and comment lines.
func isIgnored(line string) bool {
	return len(line) == 0 || strings.HasPrefix(line, "#")
}

// checkLabels verifies that no label is declared twice.
func (asm *Assembler) checkLabels(lines []string) (lineno int, err error) {
	seen := map[string]int{}

	for n, line := range lines {
		if isIgnored(line) || !isLabel(line) {
			continue
		}
		lineno = n + 1
		label := strings.TrimSpace(line[1:])
		if len(label) == 0 {
			err = ErrLabelInvalid
			return
		}
		first, ok := seen[label]
		if ok {
			err = &ErrLabel{Err: ErrLabelDuplicate, Label: label, First: first}
			return
		}
		seen[label] = lineno
	}

	lineno = 0
	return
}

// parseData parses a .DATA directive.
func (asm *Assembler) parseData(words []string, lineno int) (data pendingData, err error) {
	if len(words) != 3 {
		err = &ErrSize{Err: ErrDataLength, Expected: 3, Got: len(words)}
		return
	}

	if isLabel(words[1]) {
		err = ErrDataAddress
		return
	}
	address, err := parseValue(words[1])
	if err != nil {
		err = errors.Join(ErrDataAddress, err)
		return
	}
	if len(address) != 2 {
		err = &ErrSize{Err: ErrDataAddressLength, Expected: 2, Got: len(address)}
		return
	}

	value, err := parseValue(words[2])
	if err != nil {
		err = errors.Join(ErrDataValue, err)
		return
	}
	for n := range value {
		value[n].LineNo = lineno
	}

	data = pendingData{
		LineNo:  lineno,
		Address: uint16(address[0].Value) | (uint16(address[1].Value) << 8),
		Items:   value,
	}

	return
}

// parseInstruction encodes a single instruction line.
func (asm *Assembler) parseInstruction(words []string, lineno int, labels []string) (items []item, err error) {
	inst, ok := LookupName(words[0])
	if !ok {
		err = ErrInstructionUnknown
		return
	}

	args := words[1:]
	if len(args) != inst.Operands {
		err = &ErrSize{Err: ErrArgumentCount, Expected: inst.Operands, Got: len(args)}
		return
	}

	items = append(items, item{Kind: ITEM_OPCODE, Value: byte(inst.Code), Labels: labels, LineNo: lineno})

	for _, arg := range args {
		var value []item
		value, err = parseValue(arg)
		if err != nil {
			return
		}
		for n := range value {
			value[n].LineNo = lineno
		}
		items = append(items, value...)
	}

	expected := inst.Operands * inst.Width
	got := len(items) - 1
	if got > expected {
		err = &ErrSize{Err: ErrOperandWide, Expected: expected, Got: got}
	} else if got < expected {
		err = &ErrSize{Err: ErrOperandNarrow, Expected: expected, Got: got}
	}

	return
}

// resolve returns the byte value of an item, looking up label addresses.
func resolve(it item, address map[string]uint16) (value byte, err error) {
	switch it.Kind {
	case ITEM_LABEL_REF, ITEM_LABEL_PAD:
		ip, ok := address[it.Label]
		if !ok {
			err = ErrLabelMissing(it.Label)
			return
		}
		if it.Kind == ITEM_LABEL_REF {
			value = byte(ip & 0xff)
		} else {
			value = byte(ip >> 8)
		}
	default:
		value = it.Value
	}

	return
}

// Parse assembles an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var lines []string

	var lineno int
	defer func() {
		if err != nil && lineno > 0 {
			var line string
			if lineno <= len(lines) {
				line = lines[lineno-1]
			}
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	// A single .DATA string may fill all of memory.
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 4096), MEMORY_SIZE*2)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		lineno = len(lines) + 1
		return
	}

	text := make([]string, len(lines))
	for n, line := range lines {
		text[n] = strings.TrimSpace(line)
	}

	// Pass 1: label declarations.
	lineno, err = asm.checkLabels(text)
	if err != nil {
		return
	}

	// Pass 2: encoding.
	var items []item
	var data []pendingData
	var listing []Line
	var labels []string

	for n, line := range text {
		lineno = n + 1

		if isIgnored(line) {
			continue
		}

		if asm.Verbose {
			log.Printf("%v: %v", lineno, line)
		}

		if isLabel(line) {
			labels = append(labels, strings.TrimSpace(line[1:]))
			continue
		}

		words := splitLine(line)

		if strings.EqualFold(words[0], ".DATA") {
			var entry pendingData
			entry, err = asm.parseData(words, lineno)
			if err != nil {
				return
			}
			data = append(data, entry)
			listing = append(listing, Line{LineNo: lineno, Ip: entry.Address, Size: len(entry.Items), Words: words})
			continue
		}

		var encoded []item
		encoded, err = asm.parseInstruction(words, lineno, labels)
		if err != nil {
			return
		}
		labels = nil

		if len(items)+len(encoded) > MEMORY_SIZE {
			err = ErrProgramSize
			return
		}

		listing = append(listing, Line{LineNo: lineno, Ip: uint16(len(items)), Size: len(encoded), Words: words})
		items = append(items, encoded...)
	}

	// Label addresses are the positions of their opcodes.
	address := map[string]uint16{}
	for ip, it := range items {
		for _, label := range it.Labels {
			address[label] = uint16(ip)
		}
	}

	binary := make([]byte, len(items))
	for ip, it := range items {
		lineno = it.LineNo
		binary[ip], err = resolve(it, address)
		if err != nil {
			return
		}
	}

	// Deferred data placement, in source order.
	for _, entry := range data {
		lineno = entry.LineNo
		if int(entry.Address) < len(binary) {
			err = &ErrAddress{Err: ErrDataOverlap, Address: entry.Address}
			return
		}
		if int(entry.Address)+len(entry.Items) > MEMORY_SIZE {
			err = ErrProgramSize
			return
		}
		binary = append(binary, make([]byte, int(entry.Address)-len(binary))...)
		for _, it := range entry.Items {
			var value byte
			value, err = resolve(it, address)
			if err != nil {
				return
			}
			binary = append(binary, value)
		}
	}

	lineno = 0

	if asm.Verbose {
		log.Printf("assembled %d bytes from %d lines", len(binary), len(lines))
	}

	prog = &Program{
		Binary: binary,
		Lines:  listing,
	}

	return
}
