// Command providerctl manages the providers of a running provider-hub server.
package main

import (
	"fmt"
	"os"

	"github.com/nulzo/provider-hub/cmd/providerctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
