// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner turns typed calculator input into keypad tokens.
//
// Input is read as whitespace-separated words. A word that names a key
// ("00", "AC", "DEL", "SQRT", "Enter", ...) is one token. Any other word is
// split rune by rune, so "12+3=" scans as 1 2 + 3 =. Runes that map to no
// key come back as token.Illegal items carrying the offending text.
package scanner

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"nickandperla.net/keycalc/internal/token"
)

// Scanner tokenizes calculator input word by word.
type Scanner struct {
	reader  *bufio.Reader
	pending []*Item
	line    int // Current line number (1-based)
	col     int // Column of the last rune read (1-based)
}

// Item represents a scanned token with its source text and position.
type Item struct {
	Token token.Token
	Value string
	Line  int
	Col   int
	EOF   bool
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
		line:   1,
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Line returns the current line number (1-based).
func (s *Scanner) Line() int {
	return s.line
}

// Next returns the next item. At end of input it returns an item with EOF set.
func (s *Scanner) Next() (*Item, error) {
	if len(s.pending) > 0 {
		item := s.pending[0]
		s.pending = s.pending[1:]
		return item, nil
	}

	if err := s.skipWhitespace(); err != nil {
		return nil, err
	}

	line, col := s.line, s.col+1
	word, err := s.readWord()
	if err != nil {
		return nil, err
	}
	if word == "" {
		return &Item{Token: token.Illegal, Line: s.line, Col: s.col + 1, EOF: true}, nil
	}

	if t, ok := token.Lookup(word); ok {
		return &Item{Token: t, Value: word, Line: line, Col: col}, nil
	}

	for i, r := range []rune(word) {
		s.pending = append(s.pending, &Item{
			Token: token.FromRune(r),
			Value: string(r),
			Line:  line,
			Col:   col + i,
		})
	}
	return s.Next()
}

// ScanAll scans every item in input, excluding the final EOF item.
func ScanAll(input string) ([]Item, error) {
	s := NewFromString(input)
	var items []Item
	for {
		item, err := s.Next()
		if err != nil {
			return nil, err
		}
		if item.EOF {
			return items, nil
		}
		items = append(items, *item)
	}
}

// readWord reads runes up to the next whitespace or end of input.
func (s *Scanner) readWord() (string, error) {
	var word strings.Builder
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			return word.String(), nil
		}
		if err != nil {
			return "", err
		}
		if unicode.IsSpace(r) {
			s.reader.UnreadRune()
			return word.String(), nil
		}
		s.col++
		word.WriteRune(r)
	}
}

// skipWhitespace consumes and discards whitespace, tracking line breaks.
func (s *Scanner) skipWhitespace() error {
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !unicode.IsSpace(r) {
			s.reader.UnreadRune()
			return nil
		}
		if r == '\n' {
			s.line++
			s.col = 0
		} else {
			s.col++
		}
	}
}
