// Command mtl indexes a directory tree into a content-addressed local
// repository: it hashes files and directories into immutable objects,
// tracks named pointers to them, and can diff, garbage-collect, and pack
// the resulting object store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtlstore/mtl/internal/termcolor"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

type globalFlags struct {
	repoDir   string
	threads   int
	colorMode string
}

func main() {
	os.Exit(run())
}

func run() int {
	gf := &globalFlags{}

	root := &cobra.Command{
		Use:           "mtl",
		Short:         "Content-addressed directory indexer",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
	}
	root.PersistentFlags().StringVarP(&gf.repoDir, "repo-dir", "C", ".", "working directory to index")
	root.PersistentFlags().IntVar(&gf.threads, "threads", 0, "worker thread count (0 = number of CPUs)")
	root.PersistentFlags().StringVar(&gf.colorMode, "color", "auto", "color output: auto, always, never")

	root.AddCommand(
		newLocalCmd(gf),
		newCatObjectCmd(gf),
		newPrintTreeCmd(gf),
		newRevParseCmd(gf),
		newRefCmd(gf),
		newDiffCmd(gf),
		newGCCmd(gf),
		newPackCmd(gf),
		newToolCmd(gf),
	)

	err := root.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintf(os.Stderr, "mtl: %v\n", err)
	return exitCodeFor(err)
}

func colorWriter(gf *globalFlags) (*termcolor.Writer, error) {
	mode, err := termcolor.ParseColorMode(gf.colorMode)
	if err != nil {
		return nil, err
	}
	return termcolor.NewWriter(os.Stdout, mode), nil
}
