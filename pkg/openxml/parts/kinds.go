package parts

// Namespaces used by the built-in parts.
const (
	NamespaceContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	NamespaceRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	NamespaceSpreadsheet   = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	NamespaceDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NamespaceCoreProps     = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	NamespaceDublinCore    = "http://purl.org/dc/elements/1.1/"
	NamespaceDCTerms       = "http://purl.org/dc/terms/"
	NamespaceDCMIType      = "http://purl.org/dc/dcmitype/"
	NamespaceXSI           = "http://www.w3.org/2001/XMLSchema-instance"
)

// Kind describes a well-known part: how it is referenced and where it
// lives by default.
type Kind struct {
	Name             string
	RelationshipType string
	ContentType      string
	// DefaultPath is the package path used when no relationship names one.
	DefaultPath string
}

var (
	KindWorkbook = Kind{
		Name:             "workbook",
		RelationshipType: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument",
		ContentType:      "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml",
		DefaultPath:      "xl/workbook.xml",
	}
	KindWorksheet = Kind{
		Name:             "worksheet",
		RelationshipType: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet",
		ContentType:      "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml",
		DefaultPath:      "xl/worksheets/sheet1.xml",
	}
	KindCoreProperties = Kind{
		Name:             "coreProperties",
		RelationshipType: "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties",
		ContentType:      "application/vnd.openxmlformats-package.core-properties+xml",
		DefaultPath:      "docProps/core.xml",
	}
	KindTheme = Kind{
		Name:             "theme",
		RelationshipType: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme",
		ContentType:      "application/vnd.openxmlformats-officedocument.theme+xml",
		DefaultPath:      "xl/theme/theme1.xml",
	}
	KindStyles = Kind{
		Name:             "styles",
		RelationshipType: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles",
		ContentType:      "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml",
		DefaultPath:      "xl/styles.xml",
	}
	KindSharedStrings = Kind{
		Name:             "sharedStrings",
		RelationshipType: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings",
		ContentType:      "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml",
		DefaultPath:      "xl/sharedStrings.xml",
	}
	KindCalcChain = Kind{
		Name:             "calcChain",
		RelationshipType: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/calcChain",
		ContentType:      "application/vnd.openxmlformats-officedocument.spreadsheetml.calcChain+xml",
		DefaultPath:      "xl/calcChain.xml",
	}
	KindHyperlink = Kind{
		Name:             "hyperlink",
		RelationshipType: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink",
	}
)

// Well-known content types registered as extension defaults.
const (
	ContentTypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeXML           = "application/xml"
)

// ContentTypesPath is the fixed name of the content types part.
const ContentTypesPath = "[Content_Types].xml"
