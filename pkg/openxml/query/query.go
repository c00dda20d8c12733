// Package query loads named SQL statements from embedded query files.
//
// A query file is plain SQL split into named sections. Each section starts
// with a marker line of the form
//
//	-- query : insert_archive_record # free-form description
//
// and runs until the next marker or the end of the file. Lines before the
// first marker are ignored, so a file may open with a comment header.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const marker = "-- query : "

// ErrNotFound is returned by Set.Get when no query has the requested name.
var ErrNotFound = errors.New("query: not found")

// Set maps query names to SQL text.
type Set map[string]string

// Parse splits src into named queries. Duplicate names and markers without
// a name are errors.
func Parse(src string) (Set, error) {
	set := make(Set)
	var (
		name string
		body strings.Builder
	)
	flush := func() {
		if name != "" {
			set[name] = strings.TrimSpace(body.String())
		}
		body.Reset()
	}

	for i, line := range strings.Split(src, "\n") {
		header, ok := strings.CutPrefix(strings.TrimRight(line, "\r"), marker)
		if !ok {
			if name != "" {
				body.WriteString(line)
				body.WriteByte('\n')
			}
			continue
		}
		flush()
		header, _, _ = strings.Cut(header, "#")
		name = strings.TrimSpace(header)
		if name == "" {
			return nil, fmt.Errorf("query: line %d: marker without a name", i+1)
		}
		if _, dup := set[name]; dup {
			return nil, fmt.Errorf("query: line %d: duplicate query %q", i+1, name)
		}
	}
	flush()
	return set, nil
}

// MustParse is like Parse but panics on error. It is meant for query files
// embedded at build time.
func MustParse(src string) Set {
	set, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return set
}

// Get returns the SQL for name.
func (s Set) Get(name string) (string, error) {
	q, ok := s[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return q, nil
}

// MustGet returns the SQL for name and panics when it is missing.
func (s Set) MustGet(name string) string {
	q, err := s.Get(name)
	if err != nil {
		panic(err)
	}
	return q
}

// Names returns the query names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
