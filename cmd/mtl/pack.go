package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtlstore/mtl/internal/mtlcore"
)

func newPackCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pack",
		Short: "Migrate loose objects into the packed tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			result, err := repo.Pack()
			if err != nil {
				return err
			}

			cw, err := colorWriter(gf)
			if err != nil {
				return err
			}
			for _, e := range result.Errors {
				fmt.Fprintln(cw, cw.Red(fmt.Sprintf("pack: %v", e)))
			}
			fmt.Fprintln(cw, cw.Green(fmt.Sprintf("packed %d object(s)", result.Packed)))
			return nil
		},
	}
}
