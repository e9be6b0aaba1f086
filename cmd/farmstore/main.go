// Command farmstore migrates, inspects and serves the farm management
// database.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
