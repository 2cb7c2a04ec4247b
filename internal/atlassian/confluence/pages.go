// Package confluence maps Confluence page and space operations onto the
// shared resilient client. Like the jira package it carries no network
// policy of its own.
package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/atlasmcp/atlasmcp/internal/atlassian"
)

// Service exposes Confluence operations over a shared client.
type Service struct {
	client *atlassian.Client
}

// NewService creates a Confluence service on the given client.
func NewService(client *atlassian.Client) *Service {
	return &Service{client: client}
}

// searchResult is the envelope returned by the CQL search endpoint.
type searchResult struct {
	Results []struct {
		Content struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Title  string `json:"title"`
			Type   string `json:"type"`
		} `json:"content"`
		Excerpt      string `json:"excerpt"`
		LastModified string `json:"lastModified"`
	} `json:"results"`
	Start      int `json:"start"`
	Limit      int `json:"limit"`
	TotalSize  int `json:"totalSize"`
	SearchSize int `json:"size"`
}

// SearchPages runs a CQL search and returns a compact result map.
func (s *Service) SearchPages(ctx context.Context, cql string, start, limit int) (map[string]interface{}, error) {
	if cql == "" {
		return nil, fmt.Errorf("confluence: cql is required")
	}
	if limit <= 0 {
		limit = 25
	}

	query := url.Values{}
	query.Set("cql", cql)
	query.Set("start", strconv.Itoa(start))
	query.Set("limit", strconv.Itoa(limit))

	raw, err := s.client.Execute(ctx, atlassian.Get(atlassian.ServiceConfluence, "/search", query))
	if err != nil {
		return nil, err
	}

	var result searchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("confluence: failed to parse search response: %w", err)
	}

	pages := make([]map[string]interface{}, 0, len(result.Results))
	for _, r := range result.Results {
		pages = append(pages, map[string]interface{}{
			"id":            r.Content.ID,
			"title":         r.Content.Title,
			"type":          r.Content.Type,
			"status":        r.Content.Status,
			"excerpt":       r.Excerpt,
			"last_modified": r.LastModified,
		})
	}

	return map[string]interface{}{
		"total": result.TotalSize,
		"start": result.Start,
		"limit": result.Limit,
		"pages": pages,
	}, nil
}

// GetPage retrieves one page by ID, including its storage-format body.
func (s *Service) GetPage(ctx context.Context, pageID string) (map[string]interface{}, error) {
	if pageID == "" {
		return nil, fmt.Errorf("confluence: page ID is required")
	}

	query := url.Values{}
	query.Set("body-format", "storage")

	raw, err := s.client.Execute(ctx, atlassian.Get(atlassian.ServiceConfluence, "/pages/"+pageID, query))
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("confluence: failed to parse page response: %w", err)
	}

	return summarizePage(&page, true), nil
}

// CreatePageInput describes a new page.
type CreatePageInput struct {
	SpaceID  string
	Title    string
	Body     string
	ParentID string
}

// CreatePage creates a page with a storage-format body.
func (s *Service) CreatePage(ctx context.Context, input CreatePageInput) (map[string]interface{}, error) {
	if input.SpaceID == "" {
		return nil, fmt.Errorf("confluence: space ID is required")
	}
	if input.Title == "" {
		return nil, fmt.Errorf("confluence: title is required")
	}

	payload := map[string]interface{}{
		"spaceId": input.SpaceID,
		"status":  "current",
		"title":   input.Title,
		"body": map[string]interface{}{
			"representation": "storage",
			"value":          input.Body,
		},
	}
	if input.ParentID != "" {
		payload["parentId"] = input.ParentID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: failed to encode page: %w", err)
	}

	raw, err := s.client.Execute(ctx, atlassian.Post(atlassian.ServiceConfluence, "/pages", body))
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("confluence: failed to parse create response: %w", err)
	}

	return summarizePage(&page, false), nil
}

// UpdatePage replaces a page's title and body. The caller passes the version
// number it last read; the update is written as version+1 so a concurrent
// edit surfaces as a conflict instead of a silent overwrite.
func (s *Service) UpdatePage(ctx context.Context, pageID, title, body string, version int) (map[string]interface{}, error) {
	if pageID == "" {
		return nil, fmt.Errorf("confluence: page ID is required")
	}
	if title == "" {
		return nil, fmt.Errorf("confluence: title is required")
	}
	if version <= 0 {
		return nil, fmt.Errorf("confluence: current version number is required")
	}

	payload := map[string]interface{}{
		"id":     pageID,
		"status": "current",
		"title":  title,
		"body": map[string]interface{}{
			"representation": "storage",
			"value":          body,
		},
		"version": map[string]interface{}{
			"number": version + 1,
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: failed to encode page update: %w", err)
	}

	raw, err := s.client.Execute(ctx, atlassian.Put(atlassian.ServiceConfluence, "/pages/"+pageID, encoded))
	if err != nil {
		return nil, err
	}

	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("confluence: failed to parse update response: %w", err)
	}

	return summarizePage(&page, false), nil
}

// AddPageComment adds a footer comment to a page.
func (s *Service) AddPageComment(ctx context.Context, pageID, body string) (map[string]interface{}, error) {
	if pageID == "" {
		return nil, fmt.Errorf("confluence: page ID is required")
	}
	if body == "" {
		return nil, fmt.Errorf("confluence: comment body is required")
	}

	payload := map[string]interface{}{
		"pageId": pageID,
		"body": map[string]interface{}{
			"representation": "storage",
			"value":          body,
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: failed to encode comment: %w", err)
	}

	raw, err := s.client.Execute(ctx, atlassian.Post(atlassian.ServiceConfluence, "/footer-comments", encoded))
	if err != nil {
		return nil, err
	}

	var comment Comment
	if err := json.Unmarshal(raw, &comment); err != nil {
		return nil, fmt.Errorf("confluence: failed to parse comment response: %w", err)
	}

	out := map[string]interface{}{
		"id":     comment.ID,
		"status": comment.Status,
	}
	if comment.Version != nil {
		out["version"] = comment.Version.Number
	}
	return out, nil
}

func summarizePage(page *Page, includeBody bool) map[string]interface{} {
	out := map[string]interface{}{
		"id":     page.ID,
		"title":  page.Title,
		"status": page.Status,
	}
	if page.SpaceID != "" {
		out["space_id"] = page.SpaceID
	}
	if page.ParentID != "" {
		out["parent_id"] = page.ParentID
	}
	if page.Version != nil {
		out["version"] = page.Version.Number
	}
	if includeBody && page.Body != nil && page.Body.Storage != nil {
		out["body"] = page.Body.Storage.Value
	}
	return out
}
