// docmask detects and masks PII in extracted document text.
package main

import (
	"os"

	"github.com/codeready-toolchain/docmask/pkg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
