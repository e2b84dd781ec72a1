package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/peterh/liner"
	"golang.org/x/term"
	"nickandperla.net/keycalc/internal/help"
	"nickandperla.net/keycalc/internal/token"
	"nickandperla.net/keycalc/pkg/keycalc"
)

const (
	historyFile  = ".keycalc_history"
	displayWidth = 20
)

// keyBindings maps raw key bytes to keypad names in single-key mode.
// Everything else printable goes through token.FromRune.
var keyBindings = map[byte]string{
	0x0d: "Enter",
	0x0a: "Enter",
	0x7f: "Backspace",
	0x08: "Backspace",
	0x1b: "Escape",
	'c':  "AC",
	'p':  "PI",
	's':  "SQUARE",
	'r':  "SQRT",
	'z':  "00",
}

func printBanner() {
	fmt.Print("keycalc (q or Ctrl+D to exit)\r\n\r\n")
	fmt.Print("  0-9 . + - * / = %    Enter → =     Backspace → DEL\r\n")
	fmt.Print("  c → AC   p → π   s → x²   r → √   z → 00   Esc → AC\r\n\r\n")
}

// keyToken returns the token for a raw key byte and whether the key quits.
func keyToken(b byte) (tok token.Token, quit bool) {
	switch b {
	case 0x03, 0x04, 'q': // Ctrl+C, Ctrl+D
		return token.Illegal, true
	}
	if name, ok := keyBindings[b]; ok {
		tok, _ = token.Lookup(name)
		return tok, false
	}
	return token.FromRune(rune(b)), false
}

// renderLine formats the display right-aligned with the pending operator.
func renderLine(calc *keycalc.Calculator) string {
	s := calc.State()
	return fmt.Sprintf("%*s %1s", displayWidth, s.Display, s.Pending.String())
}

// decodeKeys turns one read from the terminal into tokens. A read holds a
// single keypress, a whole escape sequence, or a paste. Only a bare ESC is
// the Escape key: CSI and SS3 sequences (arrows, Home/End, F-keys) and
// Alt-prefixed bytes are consumed without a token. An incomplete UTF-8
// sequence at the end is returned in rest for the next read.
func decodeKeys(buf []byte) (toks []token.Token, rest []byte, quit bool) {
	for i := 0; i < len(buf); {
		b := buf[i]

		switch {
		case b == 0x1b:
			i = skipEscape(buf, i)
			if i < 0 {
				tok, _ := keyToken(b)
				toks = append(toks, tok)
				return toks, nil, false
			}
			continue

		case b >= 0x80:
			if !utf8.FullRune(buf[i:]) {
				return toks, buf[i:], false
			}
			r, size := utf8.DecodeRune(buf[i:])
			i += size
			if tok := token.FromRune(r); tok != token.Illegal {
				toks = append(toks, tok)
			}
			continue
		}

		tok, q := keyToken(b)
		if q {
			return toks, nil, true
		}
		if tok != token.Illegal {
			toks = append(toks, tok)
		}
		i++
	}
	return toks, nil, false
}

// skipEscape returns the index just past the escape sequence starting at
// buf[i], or -1 when the ESC is the last byte of the read.
func skipEscape(buf []byte, i int) int {
	i++
	if i >= len(buf) {
		return -1
	}
	switch buf[i] {
	case '[': // CSI: parameters and intermediates up to a final byte
		for i++; i < len(buf); i++ {
			if buf[i] >= 0x40 && buf[i] <= 0x7e {
				return i + 1
			}
		}
		return i
	case 'O': // SS3: one more byte
		return min(i+2, len(buf))
	}
	// Alt+key
	return i + 1
}

// runKeyREPL applies one token per keypress and redraws the display in place.
func runKeyREPL(calc *keycalc.Calculator) {
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set raw mode: %v\n", err)
		runLineREPL(calc)
		return
	}
	defer term.Restore(fd, oldState)

	printBanner()
	redraw := func() {
		fmt.Print("\r\x1b[K" + renderLine(calc))
	}
	redraw()

	buf := make([]byte, 64)
	var pending int
	for {
		n, err := os.Stdin.Read(buf[pending:])
		if err != nil || n == 0 {
			fmt.Print("\r\n")
			return
		}

		toks, rest, quit := decodeKeys(buf[:pending+n])
		for _, tok := range toks {
			if _, err := calc.Press(tok); err != nil {
				fmt.Printf("\r\nError: %v\r\n", err)
			}
		}
		if len(toks) > 0 {
			redraw()
		}
		if quit {
			fmt.Print("\r\n")
			return
		}
		pending = copy(buf, rest)
	}
}

// runLineREPL reads lines of keys with history and prints the display after each.
func runLineREPL(calc *keycalc.Calculator) {
	fmt.Println("keycalc line mode (:quit to exit, :save, :load, :forget, :tape, :help)")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		calc.Close()
		os.Exit(130)
	}()

	for {
		line, err := ln.Prompt(calc.Display() + " > ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		ln.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			if quit := runCommand(calc, input); quit {
				return
			}
			continue
		}

		display, err := calc.Input(input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(display)
	}
}

// runCommand handles a ":" command in line mode. It reports whether to quit.
func runCommand(calc *keycalc.Calculator, cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":save":
		if err := calc.Save(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("saved session %s\n", calc.Session())
	case ":load":
		ok, err := calc.Load()
		switch {
		case err != nil:
			fmt.Printf("Error: %v\n", err)
		case !ok:
			fmt.Printf("nothing saved for session %s\n", calc.Session())
		default:
			fmt.Println(calc.Display())
		}
	case ":forget":
		if err := calc.Forget(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("forgot session %s\n", calc.Session())
	case ":tape":
		if err := printTape(calc, 20); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	case ":help":
		fmt.Print(help.Keys)
	default:
		fmt.Printf("unknown command. Type :help for a list.\n")
	}
	return false
}
