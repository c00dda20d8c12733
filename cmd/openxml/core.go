package main

import (
	"fmt"
	"time"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/parts"
	"github.com/spf13/cobra"
)

func newCoreCmd() *cobra.Command {
	var jsonOut, yamlOut bool
	cmd := &cobra.Command{
		Use:   "core <file>",
		Short: "Print the core properties of a package",
		Long: `The core command prints docProps/core.xml: title, author, dates and the
other Dublin Core properties Office shows under File > Info.

Example:
  openxml core report.docx
  openxml core book.xlsx --yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCore(args[0], jsonOut, yamlOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&yamlOut, "yaml", false, "Output in YAML format")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
	return cmd
}

func runCore(path string, jsonOut, yamlOut bool) error {
	pkg, err := openPackage(path)
	if err != nil {
		return err
	}
	defer pkg.Close()

	ok, err := pkg.Store().Exists(parts.KindCoreProperties.DefaultPath)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s has no %s", path, parts.KindCoreProperties.DefaultPath)
	}

	var props parts.Properties
	err = parts.With(func() (*parts.CoreProperties, error) {
		return parts.OpenCoreProperties(pkg.Parts())
	}, func(cp *parts.CoreProperties) (err error) {
		props, err = cp.Snapshot()
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case jsonOut:
		return printJSON(props)
	case yamlOut:
		return printYAML(props)
	}

	for _, f := range []struct{ label, value string }{
		{"Title", props.Title},
		{"Subject", props.Subject},
		{"Creator", props.Creator},
		{"Keywords", props.Keywords},
		{"Description", props.Description},
		{"Last modified by", props.LastModifiedBy},
		{"Category", props.Category},
		{"Revision", props.Revision},
		{"Created", formatTime(props.Created)},
		{"Modified", formatTime(props.Modified)},
	} {
		if f.value != "" {
			printInfo("%-17s %s\n", f.label+":", f.value)
		}
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
