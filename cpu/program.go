package cpu

import (
	"fmt"
	"strings"
)

// Line is the listing entry of a single assembled source line.
type Line struct {
	LineNo int      // Source line number, 1-based.
	Ip     uint16   // Address of the first emitted byte.
	Size   int      // Number of emitted bytes.
	Words  []string // Tokens of the source line.
}

// Contains returns true if the address falls within the bytes of the line.
func (line Line) Contains(ip uint16) bool {
	return int(ip) >= int(line.Ip) && int(ip) < int(line.Ip)+line.Size
}

// Program is an assembled program.
type Program struct {
	Binary []byte // Byte stream, loaded at address 0.
	Lines  []Line // Per-line listing, in source order.
}

// Debug returns the listing line that emitted the byte at ip.
func (prog *Program) Debug(ip uint16) (line Line, ok bool) {
	for _, line = range prog.Lines {
		if line.Contains(ip) {
			ok = true
			return
		}
	}

	line = Line{}
	return
}

// LineNo returns the source line number of ip, or 0 if not found.
func (prog *Program) LineNo(ip uint16) int {
	line, _ := prog.Debug(ip)
	return line.LineNo
}

// String returns the program listing.
func (prog *Program) String() string {
	var text strings.Builder

	for _, line := range prog.Lines {
		end := min(int(line.Ip)+line.Size, len(prog.Binary))
		start := min(int(line.Ip), end)
		var codes []string
		for _, code := range prog.Binary[start:end] {
			codes = append(codes, fmt.Sprintf("%02x", code))
		}
		fmt.Fprintf(&text, "%5d [%04x] %-14s %v\n",
			line.LineNo, line.Ip, strings.Join(codes, " "), strings.Join(line.Words, " "))
	}

	return text.String()
}
