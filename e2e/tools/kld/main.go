// Command kld is a minimal linker used by the end-to-end tests. It
// concatenates the object files into the output.
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	var output string
	var objects []string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-o" && i+1 < len(args):
			output = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-"):
		default:
			objects = append(objects, args[i])
		}
	}
	if output == "" {
		fmt.Fprintln(os.Stderr, "kld: no output file")
		os.Exit(1)
	}

	var linked []byte
	for _, object := range objects {
		data, err := os.ReadFile(object)
		if err != nil {
			fmt.Fprintln(os.Stderr, "kld:", err)
			os.Exit(1)
		}
		if strings.Contains(string(data), "undefined") {
			fmt.Fprintf(os.Stderr, "kld: undefined reference in %s\n", object)
			os.Exit(1)
		}
		linked = append(linked, data...)
	}
	if err := os.WriteFile(output, linked, 0o755); err != nil { //nolint:gosec // linked binaries are executable
		fmt.Fprintln(os.Stderr, "kld:", err)
		os.Exit(1)
	}
}
