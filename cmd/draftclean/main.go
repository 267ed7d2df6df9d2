// Command draftclean runs the duplicate cleanup on manuscript files from the
// command line, without the server or its database.
//
// Usage:
//
//	draftclean clean draft.md -o clean.md --report
//	draftclean sections draft.md
//	draftclean score chapter1.txt chapter1-rewrite.txt
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
