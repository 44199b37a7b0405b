// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero is a minimal client for the Zotero Web API v3: it lists
// attachment items page by page, creates linked-file items for local PDFs,
// and rewrites attachment paths in batches.
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/zotero-sync/internal/httputil"
	"github.com/pdiddy/zotero-sync/pkg/types"
)

// apiBase is the Zotero Web API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.zotero.org"

const (
	apiVersion = "3"

	// maxPageSize is the largest limit the API accepts for item listings.
	maxPageSize = 100

	// writeBatchSize is the largest number of objects per write request.
	writeBatchSize = 50

	// uploadTag marks every item created from a local file.
	uploadTag = "folder_upload"
)

// ErrUnauthorized is returned when the API rejects the key or user ID.
var ErrUnauthorized = errors.New("zotero rejected the API key or user ID")

// Client talks to a single Zotero user library.
type Client struct {
	http *http.Client
	cfg  types.CatalogConfig
}

// NewClient returns a client for the library identified by cfg.UserID,
// authenticated with cfg.APIKey.
func NewClient(httpClient *http.Client, cfg types.CatalogConfig) *Client {
	if cfg.PageSize <= 0 || cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}
	return &Client{http: httpClient, cfg: cfg}
}

// ListAttachments fetches every attachment item in the library, following
// pagination until the API returns an empty page.
func (c *Client) ListAttachments(ctx context.Context) ([]types.CatalogEntry, error) {
	var entries []types.CatalogEntry
	for start := 0; ; start += c.cfg.PageSize {
		page, err := c.listPage(ctx, start)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		for _, it := range page {
			entries = append(entries, it.entry())
		}
		slog.Debug("retrieved catalog page", "start", start, "items", len(page), "total", len(entries))
	}
	return entries, nil
}

func (c *Client) listPage(ctx context.Context, start int) ([]item, error) {
	params := url.Values{
		"limit":    {fmt.Sprintf("%d", c.cfg.PageSize)},
		"start":    {fmt.Sprintf("%d", start)},
		"itemType": {"attachment"},
	}
	req, err := c.newRequest(ctx, http.MethodGet, "items?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Zotero API request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var page []item
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("parsing Zotero item listing: %w", err)
	}
	return page, nil
}

// CreateItem adds a local PDF to the library as a book item with a
// linked-file attachment child pointing at f.Path. It returns the key of
// the new attachment.
func (c *Client) CreateItem(ctx context.Context, f types.LocalFile) (string, error) {
	title := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
	tags := []tag{{Tag: uploadTag}}

	parentKey, parentVersion, err := c.createOne(ctx, newItem{
		ItemType: "book",
		Title:    title,
		Tags:     tags,
	})
	if err != nil {
		return "", fmt.Errorf("creating parent item for %s: %w", f.Name, err)
	}

	key, _, err := c.createOne(ctx, newItem{
		ItemType:    "attachment",
		LinkMode:    "linked_file",
		Title:       title,
		ParentItem:  parentKey,
		Path:        f.Path,
		Tags:        tags,
		ContentType: "application/pdf",
	})
	if err != nil {
		err = fmt.Errorf("creating attachment for %s: %w", f.Name, err)
		// Without its attachment the parent is an orphan that a retry would duplicate.
		if delErr := c.deleteItem(ctx, parentKey, parentVersion); delErr != nil {
			return "", errors.Join(err, fmt.Errorf("removing parent item %s: %w", parentKey, delErr))
		}
		slog.Debug("removed parent item after failed attachment", "key", parentKey)
		return "", err
	}
	return key, nil
}

// createOne writes a single item and returns its key and version.
func (c *Client) createOne(ctx context.Context, it newItem) (string, int, error) {
	res, err := c.write(ctx, []newItem{it})
	if err != nil {
		return "", 0, err
	}
	key, ok := res.Success["0"]
	if !ok || key == "" {
		return "", 0, fmt.Errorf("Zotero API did not report a created item")
	}
	version := res.libraryVersion
	if obj, ok := res.Successful["0"]; ok && obj.Version > 0 {
		version = obj.Version
	}
	return key, version, nil
}

// deleteItem removes an item, guarded by the version it was created with.
func (c *Client) deleteItem(ctx context.Context, key string, version int) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "items/"+url.PathEscape(key), nil)
	if err != nil {
		return err
	}
	if version > 0 {
		req.Header.Set("If-Unmodified-Since-Version", strconv.Itoa(version))
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return fmt.Errorf("Zotero API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return checkStatus(resp)
}

// PathUpdate moves a linked attachment to a new path.
type PathUpdate struct {
	Key     string `json:"key"`
	Version int    `json:"version"`
	Path    string `json:"path"`
}

// UpdatePaths rewrites attachment paths, sending at most 50 updates per
// request. It stops at the first request with a failed object.
func (c *Client) UpdatePaths(ctx context.Context, updates []PathUpdate) (int, error) {
	updated := 0
	for start := 0; start < len(updates); start += writeBatchSize {
		end := min(start+writeBatchSize, len(updates))
		if _, err := c.write(ctx, updates[start:end]); err != nil {
			return updated, fmt.Errorf("updating paths %d-%d: %w", start, end-1, err)
		}
		updated += end - start
	}
	return updated, nil
}

// write POSTs a JSON array of objects to the items endpoint and fails when
// the API reports any object as failed.
func (c *Client) write(ctx context.Context, objects any) (writeResponse, error) {
	body, err := json.Marshal(objects)
	if err != nil {
		return writeResponse{}, fmt.Errorf("marshaling items: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "items", bytes.NewReader(body))
	if err != nil {
		return writeResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return writeResponse{}, fmt.Errorf("Zotero API request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return writeResponse{}, err
	}

	var wr writeResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return writeResponse{}, fmt.Errorf("parsing Zotero write response: %w", err)
	}
	wr.libraryVersion, _ = strconv.Atoi(resp.Header.Get("Last-Modified-Version"))
	if len(wr.Failed) == 0 {
		return wr, nil
	}

	idxs := make([]string, 0, len(wr.Failed))
	for idx := range wr.Failed {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool {
		a, _ := strconv.Atoi(idxs[i])
		b, _ := strconv.Atoi(idxs[j])
		return a < b
	})
	errs := make([]error, 0, len(idxs))
	for _, idx := range idxs {
		f := wr.Failed[idx]
		errs = append(errs, fmt.Errorf("Zotero rejected object %s: %s (code %d)", idx, f.Message, f.Code))
	}
	return wr, errors.Join(errs...)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	reqURL := fmt.Sprintf("%s/users/%s/%s", apiBase, url.PathEscape(c.cfg.UserID), path)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", apiVersion)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	return req, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("HTTP %d: %w", resp.StatusCode, ErrUnauthorized)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if len(msg) > 0 {
			return fmt.Errorf("Zotero API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		return fmt.Errorf("Zotero API returned HTTP %d", resp.StatusCode)
	}
}
