// Agent swarm CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/EikiYamashiro/agent-swarm/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
