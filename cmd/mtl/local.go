package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtlstore/mtl/internal/mtlcore"
)

func newLocalCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Build or inspect the local index without touching refs",
	}
	cmd.AddCommand(newLocalBuildCmd(gf), newLocalUpdateCmd(gf), newLocalListCmd(gf))
	return cmd
}

// walkOptsFromFlags reads the -i/--hidden flags shared by build and list
// into a mtlcore.WalkOptions.
func walkOptsFromFlags(gf *globalFlags, hidden bool, includeFile string) (mtlcore.WalkOptions, error) {
	opts := mtlcore.WalkOptions{Hidden: hidden, Threads: gf.threads}
	if includeFile == "" {
		return opts, nil
	}

	var r io.Reader
	if includeFile == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(includeFile) //nolint:gosec // path is an explicit CLI argument
		if err != nil {
			return opts, fmt.Errorf("%w: opening include list: %v", mtlcore.ErrIO, err)
		}
		defer f.Close() //nolint:errcheck // read-only, nothing to flush
		r = f
	}

	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return opts, fmt.Errorf("%w: reading include list: %v", mtlcore.ErrIO, err)
	}
	opts.IncludeList = paths
	return opts, nil
}

func newLocalBuildCmd(gf *globalFlags) *cobra.Command {
	var hidden bool
	var includeFile string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Walk, hash, write, and set HEAD",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := walkOptsFromFlags(gf, hidden, includeFile)
			if err != nil {
				return err
			}
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			if err := repo.EnsureDir(); err != nil {
				return err
			}
			result, err := repo.Build(opts)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%d files\t%d trees\n", result.RootOID, result.FileCount, result.TreeCount)
			return nil
		},
	}
	cmd.Flags().StringVarP(&includeFile, "include", "i", "", "file of paths to restrict emission to (\"-\" for stdin)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "include dotfiles and dot-directories")
	return cmd
}

func newLocalUpdateCmd(gf *globalFlags) *cobra.Command {
	var hidden bool

	cmd := &cobra.Command{
		Use:   "update <subtree>",
		Short: "Rebuild a subtree, fold ancestors, and update HEAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := mtlcore.WalkOptions{Hidden: hidden, Threads: gf.threads}
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			result, err := repo.Update(args[0], opts)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%d files\t%d trees\n", result.RootOID, result.FileCount, result.TreeCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hidden, "hidden", false, "include dotfiles and dot-directories")
	return cmd
}

func newLocalListCmd(gf *globalFlags) *cobra.Command {
	var hidden bool
	var includeFile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print what build would hash, without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := walkOptsFromFlags(gf, hidden, includeFile)
			if err != nil {
				return err
			}

			abs, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}

			entries, walkErr := mtlcore.Walk(abs.WorkDir, opts)
			for e := range entries {
				fmt.Printf("%s\t%s\n", e.Kind, e.RelativePath)
			}
			return walkErr()
		},
	}
	cmd.Flags().StringVarP(&includeFile, "include", "i", "", "file of paths to restrict emission to (\"-\" for stdin)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "include dotfiles and dot-directories")
	return cmd
}
