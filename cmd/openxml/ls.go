package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/benjaminschreck/go-openxml/pkg/openxml"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/parts"
	"github.com/spf13/cobra"
)

type partEntry struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Stored      int64  `json:"stored"`
	Compression string `json:"compression"`
	ContentType string `json:"contentType,omitempty"`
}

func newLsCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "ls <file>",
		Short: "List the parts of a package",
		Long: `The ls command lists every part of a package in archive order with its
size, its size in the staging store, and its content type.

Example:
  openxml ls book.xlsx
  openxml ls book.xlsx --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(args[0], jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}

func runLs(path string, jsonOut bool) error {
	pkg, err := openPackage(path)
	if err != nil {
		return err
	}
	defer pkg.Close()

	entries, err := listParts(pkg)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(entries)
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tSTORED\tCONTENT TYPE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d %s\t%s\n", e.Name, e.Size, e.Stored, e.Compression, e.ContentType)
	}
	return tw.Flush()
}

func listParts(pkg *openxml.Package) ([]partEntry, error) {
	records, err := pkg.Store().All()
	if err != nil {
		return nil, err
	}

	var entries []partEntry
	err = parts.With(func() (*parts.ContentTypes, error) {
		return parts.OpenContentTypes(pkg.Parts())
	}, func(types *parts.ContentTypes) error {
		for _, rec := range records {
			if rec.IsDir() {
				continue
			}
			contentType, _, err := types.ContentTypeOf(rec.FileName)
			if err != nil {
				return err
			}
			entries = append(entries, partEntry{
				Name:        rec.FileName,
				Size:        rec.UncompressedSize,
				Stored:      rec.CompressedSize,
				Compression: rec.CompressionType.String(),
				ContentType: contentType,
			})
		}
		return nil
	})
	return entries, err
}
