package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtlstore/mtl/internal/mtlcore"
)

func newCatObjectCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cat-object <expr>",
		Short: "Print raw object bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			id, err := repo.Resolver.Resolve(args[0])
			if err != nil {
				return err
			}
			data, err := repo.Store.Get(id)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newRevParseCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rev-parse <expr>",
		Short: "Resolve an object expression to an OID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			id, err := repo.Resolver.Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
}

func newPrintTreeCmd(gf *globalFlags) *cobra.Command {
	var expr string
	var maxDepth int
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "print-tree",
		Short: "Recursively list a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			id, err := repo.Resolver.Resolve(expr)
			if err != nil {
				return err
			}

			filter, err := parseTypeFilter(typeFilter)
			if err != nil {
				return err
			}
			opts := mtlcore.TreeWalkOptions{TypeFilter: filter}
			if cmd.Flags().Changed("max-depth") {
				opts.MaxDepth = &maxDepth
			}

			return repo.Tree.Walk(id, opts, func(e mtlcore.WalkEntry) error {
				fmt.Printf("%s\t%s\t%s\n", e.Kind, e.OID, e.RelativePath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&expr, "root", "r", "HEAD", "object expression to root the listing at")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "limit traversal depth")
	cmd.Flags().StringVarP(&typeFilter, "type", "t", "both", "entry kinds to emit: file, tree, or both")
	return cmd
}

func parseTypeFilter(s string) (mtlcore.TypeFilter, error) {
	switch s {
	case "both", "":
		return mtlcore.FilterBoth, nil
	case "file":
		return mtlcore.FilterFile, nil
	case "tree":
		return mtlcore.FilterTree, nil
	default:
		return 0, fmt.Errorf("%w: --type must be file, tree, or both", mtlcore.ErrInvalidExpression)
	}
}
