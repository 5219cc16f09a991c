// Spine Editor - structural editing for Spine skeleton JSON exports.
//
// Spine Editor loads skeleton documents into a dependency graph and
// uses it to clean unused slots and attachments, erase animations or
// skins, rescale rigs and list the images a skeleton still needs.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/spine-editor/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
