// Command contingency screens networks for critical edges by removing every
// connected k-edge contingency and measuring the change in node centrality.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
