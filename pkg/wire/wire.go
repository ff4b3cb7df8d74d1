// Package wire implements the newline-terminated ASCII protocol spoken between
// the board firmware and the host over UART.
//
// Host to board:
//
//	c,<seq>               run one conversion
//	o,<tier>,<permille>   drive indicator tier and PWM duty (0..1000)
//
// Board to host:
//
//	r,<seq>,<raw>         conversion result
//	e,<seq>               conversion fault
//
// The board echoes the request's sequence number so the host can discard
// answers to requests it has already given up on. Every other line (report
// lines such as "Media: 42") is not a protocol message; ParseConversion
// returns ErrNotMessage for it.
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxPermille is the full-scale duty value in the output command.
	MaxPermille = 1000
)

var (
	// ErrNotMessage marks a line that is not a protocol message.
	ErrNotMessage = errors.New("wire: not a protocol message")

	// ErrFault marks an "e" line: the board's converter faulted.
	ErrFault = errors.New("wire: board reported conversion fault")
)

// Conversion is the decoded form of an "r" or "e" line.
type Conversion struct {
	Seq uint32
	Raw uint32
}

// Output is the decoded form of an "o" command.
type Output struct {
	Tier     int
	Permille int
}

// AppendConvert appends a "c,<seq>\n" request to dst.
func AppendConvert(dst []byte, seq uint32) []byte {
	dst = append(dst, 'c', ',')
	dst = strconv.AppendUint(dst, uint64(seq), 10)
	return append(dst, '\n')
}

// ParseConvert parses a host-to-board conversion request and returns its
// sequence number.
// Format: c,<seq>
func ParseConvert(line string) (uint32, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "c,") {
		return 0, ErrNotMessage
	}

	seq, err := strconv.ParseUint(line[2:], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid sequence number: %w", err)
	}
	return uint32(seq), nil
}

// ParseConversion parses a board-to-host conversion line. A fault line
// returns its sequence number together with ErrFault.
// Format: r,<seq>,<raw> or e,<seq>
func ParseConversion(line string) (Conversion, error) {
	line = strings.TrimSpace(line)

	if rest, ok := strings.CutPrefix(line, "e,"); ok {
		seq, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			return Conversion{}, fmt.Errorf("invalid sequence number: %w", err)
		}
		return Conversion{Seq: uint32(seq)}, ErrFault
	}

	rest, ok := strings.CutPrefix(line, "r,")
	if !ok {
		return Conversion{}, ErrNotMessage
	}

	parts := strings.Split(rest, ",")
	if len(parts) != 2 {
		return Conversion{}, fmt.Errorf("invalid conversion: expected 2 values, got %d", len(parts))
	}

	seq, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Conversion{}, fmt.Errorf("invalid sequence number: %w", err)
	}
	raw, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Conversion{}, fmt.Errorf("invalid conversion value: %w", err)
	}
	return Conversion{Seq: uint32(seq), Raw: uint32(raw)}, nil
}

// AppendConversion appends an "r,<seq>,<raw>\n" line to dst.
func AppendConversion(dst []byte, c Conversion) []byte {
	dst = append(dst, 'r', ',')
	dst = strconv.AppendUint(dst, uint64(c.Seq), 10)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(c.Raw), 10)
	return append(dst, '\n')
}

// AppendFault appends an "e,<seq>\n" line to dst.
func AppendFault(dst []byte, seq uint32) []byte {
	dst = append(dst, 'e', ',')
	dst = strconv.AppendUint(dst, uint64(seq), 10)
	return append(dst, '\n')
}

// AppendOutput appends an "o,<tier>,<permille>\n" command to dst.
// Permille is clamped into 0..MaxPermille.
func AppendOutput(dst []byte, out Output) []byte {
	p := out.Permille
	if p < 0 {
		p = 0
	} else if p > MaxPermille {
		p = MaxPermille
	}
	dst = append(dst, 'o', ',')
	dst = strconv.AppendInt(dst, int64(out.Tier), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(p), 10)
	return append(dst, '\n')
}

// ParseOutput parses a host-to-board output command.
// Format: o,<tier>,<permille>
func ParseOutput(line string) (Output, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "o,") {
		return Output{}, ErrNotMessage
	}

	parts := strings.Split(line[2:], ",")
	if len(parts) != 2 {
		return Output{}, fmt.Errorf("invalid output command: expected 2 values, got %d", len(parts))
	}

	tier, err := strconv.Atoi(parts[0])
	if err != nil {
		return Output{}, fmt.Errorf("invalid tier: %w", err)
	}
	if tier < 0 {
		return Output{}, fmt.Errorf("tier out of range: %d", tier)
	}

	permille, err := strconv.Atoi(parts[1])
	if err != nil {
		return Output{}, fmt.Errorf("invalid permille: %w", err)
	}
	if permille < 0 || permille > MaxPermille {
		return Output{}, fmt.Errorf("permille out of range: %d (max %d)", permille, MaxPermille)
	}

	return Output{Tier: tier, Permille: permille}, nil
}
