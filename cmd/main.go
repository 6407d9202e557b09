// docsmith gates cost-incurring documentation events behind budget checks and
// records every cost-relevant decision to an append-only audit log.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
