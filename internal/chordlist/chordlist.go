// Package chordlist loads drill lists of chord symbols from files.
package chordlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/verte-zerg/chordquiz/internal/theory"
)

// Load reads chord symbols from the provided file path.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only chord list.
			_ = cerr
		}
	}()
	return Parse(file)
}

// Parse reads whitespace separated chord symbols, several per line allowed.
// Text after '#' is a comment. Every symbol must be a known chord.
func Parse(r io.Reader) ([]string, error) {
	var symbols []string
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, sym := range strings.Fields(line) {
			if _, err := theory.ParseChord(sym, theory.Sharp); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			symbols = append(symbols, sym)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("chord list is empty")
	}
	return symbols, nil
}
