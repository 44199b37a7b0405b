// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CatalogEntry is one attachment item in the remote Zotero library.
// The reconciler only reads Path; relocation rewrites it.
type CatalogEntry struct {
	// Key is the Zotero item key (the attachment ID).
	Key string `json:"key" yaml:"key"`

	// Version is the item version, required when updating the item.
	Version int `json:"version" yaml:"version"`

	// ItemType is "attachment" for every entry the catalog lists.
	ItemType string `json:"item_type" yaml:"item_type"`

	// ParentItem is the key of the parent item, empty for standalone attachments.
	ParentItem string `json:"parent_item,omitempty" yaml:"parent_item,omitempty"`

	// Title is the attachment title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Path is the server-side file path of a linked attachment. Empty for
	// attachments stored in Zotero's cloud storage.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ContentType is the MIME type of the attachment (e.g. "application/pdf").
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
}

// HasPath reports whether the entry carries a linked file path.
func (e CatalogEntry) HasPath() bool {
	return e.Path != ""
}

// LocalFile is a PDF discovered under the zotfile directory.
type LocalFile struct {
	// Path is the absolute path of the file.
	Path string `json:"path" yaml:"path"`

	// Name is the base name of the file, including the extension.
	Name string `json:"name" yaml:"name"`
}
