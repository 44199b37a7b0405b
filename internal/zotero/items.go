// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import "github.com/pdiddy/zotero-sync/pkg/types"

// Zotero API JSON structures.
type item struct {
	Key     string   `json:"key"`
	Version int      `json:"version"`
	Data    itemData `json:"data"`
}

type itemData struct {
	ItemType    string `json:"itemType"`
	ParentItem  string `json:"parentItem"`
	Title       string `json:"title"`
	LinkMode    string `json:"linkMode"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
}

func (it item) entry() types.CatalogEntry {
	return types.CatalogEntry{
		Key:         it.Key,
		Version:     it.Version,
		ItemType:    it.Data.ItemType,
		ParentItem:  it.Data.ParentItem,
		Title:       it.Data.Title,
		Path:        it.Data.Path,
		ContentType: it.Data.ContentType,
	}
}

type tag struct {
	Tag string `json:"tag"`
}

type newItem struct {
	ItemType    string `json:"itemType"`
	Title       string `json:"title"`
	LinkMode    string `json:"linkMode,omitempty"`
	ParentItem  string `json:"parentItem,omitempty"`
	Path        string `json:"path,omitempty"`
	Tags        []tag  `json:"tags"`
	ContentType string `json:"contentType,omitempty"`
}

type writeResponse struct {
	Successful map[string]writtenObject `json:"successful"`
	Success    map[string]string        `json:"success"`
	Unchanged  map[string]string        `json:"unchanged"`
	Failed     map[string]writeFailure  `json:"failed"`

	// libraryVersion is the Last-Modified-Version header of the response.
	libraryVersion int
}

type writtenObject struct {
	Key     string `json:"key"`
	Version int    `json:"version"`
}

type writeFailure struct {
	Key     string `json:"key"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
