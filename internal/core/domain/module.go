package domain

import (
	"path/filepath"
	"strings"
)

// ModuleID identifies a source module by its canonical absolute path.
type ModuleID string

// String returns the canonical path.
func (id ModuleID) String() string {
	return string(id)
}

// Rel renders the module path relative to root when it lives below it.
func (id ModuleID) Rel(root string) string {
	if root == "" {
		return string(id)
	}
	rel, err := filepath.Rel(root, string(id))
	if err != nil || strings.HasPrefix(rel, "..") {
		return string(id)
	}
	return filepath.ToSlash(rel)
}

// ImportKind classifies an import as reported by the frontend.
type ImportKind string

const (
	// ImportRelative is a path relative to the importing module's directory.
	ImportRelative ImportKind = "relative"
	// ImportDirectory names a directory whose index file is the module.
	ImportDirectory ImportKind = "directory"
	// ImportLibrary is a dotted namespace resolved against the library roots.
	ImportLibrary ImportKind = "library"
)

// ImportRef is a single import declaration of a module.
type ImportRef struct {
	Kind ImportKind `json:"kind"`
	Path string     `json:"path"`
}

// String renders the import the way it appears in diagnostics.
func (r ImportRef) String() string {
	return string(r.Kind) + " '" + r.Path + "'"
}

// VisibilityPrivate marks an item that is not part of the public interface.
const VisibilityPrivate = "private"

// ExportedItem is one declaration of a module's externally visible interface.
type ExportedItem struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Type       string `json:"type"`
	Visibility string `json:"visibility,omitzero"`
	Doc        string `json:"doc,omitzero"`
}

// Signature is the externally visible interface of a module.
type Signature struct {
	Items []ExportedItem `json:"items"`
}

// ModuleNode is a module in the build graph.
type ModuleNode struct {
	ID         ModuleID
	Source     []byte
	SourceHash Hash
	Imports    []ImportRef
	// Deps holds arena indices of the directly imported modules, sorted.
	Deps []int
}
