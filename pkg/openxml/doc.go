// Package openxml reads, edits and writes Office Open XML packages
// (XLSX, DOCX, PPTX).
//
// A package is staged in a SQLite database for the length of a session:
// every ZIP entry becomes a compressed record, and parts are parsed on
// demand into an id-addressed element tree. Typed controllers in the parts
// subpackage edit one part each and write it back when closed.
//
// # Quick Start
//
//	pkg, err := openxml.Open("report.xlsx", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pkg.Close()
//
//	err = parts.With(func() (*parts.CoreProperties, error) {
//	    return parts.OpenCoreProperties(pkg.Parts())
//	}, func(cp *parts.CoreProperties) error {
//	    return cp.SetTitle("Quarterly report")
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := pkg.SaveAs("report.xlsx"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Subpackages
//
//	store    - staging database with per-record compression and change tracking
//	archive  - ZIP load and dump
//	xml      - element tree, parser and serializer
//	parts    - controllers for content types, relationships, core properties,
//	           theme, shared strings, calculation chain and styles
//	query    - named SQL statements embedded in the binary
//
// # Configuration
//
// Config selects where the store lives and how content is compressed.
// A nil *Config passed to New or Open uses the global configuration:
//
//	openxml.SetGlobalConfig(&openxml.Config{
//	    InMemory:    true,
//	    Compression: "lz4",
//	    LogLevel:    "debug",
//	})
//
// LoadConfigFile reads the same fields from YAML. The library reads no
// environment variables; ConfigFromEnvironment exists for tools that want
// OPENXML_* overrides.
//
// # Errors
//
// Package-level failures are *OperationError values wrapping the sentinel
// errors of the subpackages, which are re-exported here:
//
//	if openxml.IsMalformed(err) {
//	    // a part is not well-formed XML
//	}
//
// # Logging
//
// Logging goes through a leveled Logger backed by log/slog. The same sink
// is handed to the subpackages through Logger.Slog.
package openxml
