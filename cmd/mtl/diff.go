package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtlstore/mtl/internal/mtlcore"
)

func newDiffCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <exprA> <exprB>",
		Short: "Show the structural diff between two objects",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			a, err := repo.Resolver.Resolve(args[0])
			if err != nil {
				return err
			}
			b, err := repo.Resolver.Resolve(args[1])
			if err != nil {
				return err
			}
			lines, err := repo.Differ.Diff(a, b)
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Println(l.String())
			}
			return nil
		},
	}
}
