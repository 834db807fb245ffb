package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// Column widths for human output.
const (
	TitleMaxLen    = 60
	AbstractMaxLen = 100
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a tab-aligned writer on stdout; call Flush when done.
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

// truncateString shortens s to maxLen runes, ending in "...".
func truncateString(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen-3]) + "..."
}

func printKV(pairs ...any) {
	tw := newTable()
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(tw, "%v:\t%v\n", pairs[i], pairs[i+1])
	}
	_ = tw.Flush()
}
