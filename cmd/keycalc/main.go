// Command keycalc is a keypad calculator for the terminal.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"nickandperla.net/keycalc/pkg/keycalc"
)

func main() {
	var (
		evalStr     = flag.String("e", "", "Press the keys in this string and print the display")
		dbPath      = flag.String("db", "keycalc.db", "SQLite database path")
		session     = flag.String("session", keycalc.DefaultSession, "Session name")
		persistMode = flag.String("persist-mode", "on_demand", "Persistence mode: on_demand, always, or never")
		lineMode    = flag.Bool("line", false, "Use the line-editing REPL instead of single keypresses")
		tape        = flag.Int("tape", 0, "Print the last N tape entries of the session and exit")
		verbose     = flag.Bool("v", false, "Trace keypresses on stderr")
	)

	flag.Parse()

	mode, ok := keycalc.ParsePersistMode(*persistMode)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown persist mode: %s (use on_demand, always, or never)\n", *persistMode)
		os.Exit(1)
	}

	// Build options
	opts := []keycalc.Option{
		keycalc.WithSession(*session),
		keycalc.WithPersistMode(mode),
	}
	if mode == keycalc.PersistNever {
		opts = append(opts, keycalc.WithMemoryStore())
	} else {
		opts = append(opts, keycalc.WithSQLiteStore(*dbPath))
	}
	if *verbose {
		opts = append(opts, keycalc.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	calc, err := keycalc.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer calc.Close()

	switch {
	case *tape > 0:
		err = printTape(calc, *tape)

	case *evalStr != "":
		var display string
		display, err = calc.Input(*evalStr)
		if err == nil {
			fmt.Println(display)
		}

	case !isTerminal(os.Stdin):
		// Piped input: one display line per input line
		err = runPiped(calc)

	case *lineMode:
		runLineREPL(calc)
		return

	default:
		runKeyREPL(calc)
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		calc.Close()
		os.Exit(1)
	}
}

func runPiped(calc *keycalc.Calculator) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		display, err := calc.Input(line)
		if err != nil {
			return err
		}
		fmt.Println(display)
	}
	return scanner.Err()
}

func printTape(calc *keycalc.Calculator, n int) error {
	entries, err := calc.Tape(n)
	if err != nil {
		return err
	}
	// Oldest first reads like a paper tape.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Printf("%5d  %s  %-6s %s\n", e.Seq, e.Ts, e.Token, e.Display)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
