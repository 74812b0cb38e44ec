package openapi

import (
	"path/filepath"
	"strings"
)

// Source identifies where an OpenAPI document originated.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the supported origins.
type SourceKind string

const (
	SourceKindFile   SourceKind = "file"
	SourceKindFS     SourceKind = "fs"
	SourceKindURL    SourceKind = "url"
	SourceKindInline SourceKind = "inline"
)

type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }
func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string { return s.name }
func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

type urlSource struct {
	url string
}

func (s urlSource) Location() string { return s.url }
func (s urlSource) Kind() SourceKind { return SourceKindURL }

// SourceFromURL returns a Source for an http(s) document.
func SourceFromURL(url string) Source {
	return urlSource{url: url}
}

// ParseSource picks a URL source for http(s) locations and a file source
// otherwise. An empty location yields nil.
func ParseSource(raw string) Source {
	location := strings.TrimSpace(raw)
	switch {
	case location == "":
		return nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return SourceFromURL(location)
	default:
		return SourceFromFile(location)
	}
}

type inlineSource struct {
	label string
}

func (s inlineSource) Location() string { return s.label }
func (s inlineSource) Kind() SourceKind { return SourceKindInline }

// SourceInline labels a document built in memory.
func SourceInline(label string) Source {
	return inlineSource{label: label}
}
