// Package buildinfo holds version data injected with -ldflags "-X".
package buildinfo

import (
	"fmt"
	"io"
)

var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Version returns a one-line summary for the cobra version template.
func Version() string {
	return fmt.Sprintf("%s (%s, %s)", orNA(BuildVersion), orNA(BuildCommit), orNA(BuildDate))
}

func Print(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", orNA(BuildVersion))
	fmt.Fprintf(w, "Build date: %s\n", orNA(BuildDate))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(BuildCommit))
}
