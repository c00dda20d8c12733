package parts

import (
	"embed"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/query"
)

//go:embed templates/*.xml
var templates embed.FS

//go:embed sql/parts.sql
var partsSQL string

var queries = query.MustParse(partsSQL)
