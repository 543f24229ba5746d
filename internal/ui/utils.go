package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var (
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	blue   = color.New(color.FgBlue)
)

// PrintWarning displays a warning message with consistent formatting
func (m *Menu) PrintWarning(message string) {
	yellow.Fprintf(m.out, "\nWarning:\n%s\n", message)
}

// PrintError displays an error message with consistent formatting
func (m *Menu) PrintError(message string) {
	red.Fprintf(m.out, "\nError: %s\n", message)
}

// PrintSuccess displays a success message with consistent formatting
func (m *Menu) PrintSuccess(message string) {
	green.Fprintf(m.out, "\n%s\n", message)
}

// PrintInfo displays an info message with consistent formatting
func (m *Menu) PrintInfo(message string) {
	blue.Fprint(m.out, message)
}

// ReadString reads a line with trimming. io.EOF is returned once input is
// exhausted and nothing was read.
func (m *Menu) ReadString(prompt string) (string, error) {
	m.PrintInfo(prompt)
	input, err := m.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ReadInt reads an integer with validation
func (m *Menu) ReadInt(prompt string, min, max int) (int, error) {
	input, err := m.ReadString(prompt)
	if err != nil {
		return 0, err
	}
	return ParseChoice(input, min, max)
}

// ParseChoice converts input to an integer within [min, max].
func ParseChoice(input string, min, max int) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", input)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("value must be between %d and %d", min, max)
	}
	return value, nil
}

// CreateResultDirectory creates dir/name and returns its path.
func CreateResultDirectory(dir, name string) (string, error) {
	resultPath := filepath.Join(dir, name)
	if err := os.MkdirAll(resultPath, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create result folder: %w", err)
	}
	return resultPath, nil
}

func newReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}
