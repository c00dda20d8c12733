package main

import (
	"fmt"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
	"github.com/spf13/cobra"
)

func newCatCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "cat <file> <part>",
		Short: "Print one part of a package",
		Long: `The cat command prints a part as the library writes it back: parsed and
serialized again. Use --raw for the bytes exactly as stored.

Example:
  openxml cat book.xlsx xl/workbook.xml
  openxml cat book.xlsx xl/media/image1.png --raw > image1.png`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(args[0], args[1], raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print stored bytes without reserializing")
	return cmd
}

func runCat(path, name string, raw bool) error {
	pkg, err := openPackage(path)
	if err != nil {
		return err
	}
	defer pkg.Close()

	data, ok, err := pkg.Store().Get(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("part %s not found in %s", name, path)
	}

	if !raw {
		doc, err := xml.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if data, err = xml.Serialize(doc); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		data = append(data, '\n')
	}
	_, err = stdout.Write(data)
	return err
}
