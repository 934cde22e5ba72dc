// Command widgethost binds the widgets of an HTML page headlessly.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/widgethost/cmd/widgethost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
