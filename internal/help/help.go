// Package help holds the embedded key reference shown by the REPLs.
package help

import _ "embed"

//go:embed KEYS.txt
var Keys string
