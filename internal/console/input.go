package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
)

// ErrAborted is returned by a LineReader when the user interrupts the prompt.
var ErrAborted = errors.New("prompt aborted")

// LineReader reads one line of input per prompt. It returns io.EOF when input ends.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

type linerReader struct {
	state *liner.State
}

// NewTerminalReader returns a line editor on the controlling terminal. Input
// history lives only as long as the reader.
func NewTerminalReader() LineReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &linerReader{state: state}
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrAborted
	}
	return line, err
}

func (r *linerReader) AppendHistory(line string) { r.state.AppendHistory(line) }

func (r *linerReader) Close() error { return r.state.Close() }

type streamReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewStreamReader reads lines from in and echoes prompts to out. It is used
// when stdin is not a terminal.
func NewStreamReader(in io.Reader, out io.Writer) LineReader {
	return &streamReader{scanner: bufio.NewScanner(in), out: out}
}

func (r *streamReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(r.scanner.Text(), "\r"), nil
}

func (r *streamReader) AppendHistory(string) {}

func (r *streamReader) Close() error { return nil }
