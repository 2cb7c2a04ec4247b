// Copyright 2025 The atlasmcp Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/atlasmcp/atlasmcp/internal/atlassian/confluence"
)

// registerConfluenceTools registers all Confluence tools with the MCP server.
func (s *Server) registerConfluenceTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "confluence_search_pages",
		Description: "Search Confluence content with a CQL query. Returns a compact list of matching pages.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"cql": map[string]interface{}{
					"type":        "string",
					"description": "CQL query, e.g. 'space = DOCS AND title ~ \"runbook\"'",
				},
				"start": map[string]interface{}{
					"type":        "number",
					"description": "Pagination offset (default: 0)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum pages to return (default: 25)",
				},
			},
			Required: []string{"cql"},
		},
	}, s.handleConfluenceSearch)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "confluence_get_page",
		Description: "Get a Confluence page by ID, including its storage-format body.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page_id": map[string]interface{}{
					"type":        "string",
					"description": "Page ID",
				},
			},
			Required: []string{"page_id"},
		},
	}, s.handleConfluenceGetPage)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "confluence_create_page",
		Description: "Create a new Confluence page with a storage-format body.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"space_id": map[string]interface{}{
					"type":        "string",
					"description": "Space ID the page belongs to",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Page title",
				},
				"body": map[string]interface{}{
					"type":        "string",
					"description": "Page body in Confluence storage format",
				},
				"parent_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional parent page ID",
				},
			},
			Required: []string{"space_id", "title"},
		},
	}, s.handleConfluenceCreatePage)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "confluence_update_page",
		Description: "Replace a Confluence page's title and body. Pass the version number you last read; the page is written as version+1.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page_id": map[string]interface{}{
					"type":        "string",
					"description": "Page ID",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "New page title",
				},
				"body": map[string]interface{}{
					"type":        "string",
					"description": "New page body in Confluence storage format",
				},
				"version": map[string]interface{}{
					"type":        "number",
					"description": "Current version number (from confluence_get_page)",
				},
			},
			Required: []string{"page_id", "title", "version"},
		},
	}, s.handleConfluenceUpdatePage)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "confluence_list_spaces",
		Description: "List Confluence spaces visible to the configured account.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum spaces to return (default: 25)",
				},
			},
		},
	}, s.handleConfluenceListSpaces)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "confluence_add_comment",
		Description: "Add a footer comment to a Confluence page.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page_id": map[string]interface{}{
					"type":        "string",
					"description": "Page ID",
				},
				"body": map[string]interface{}{
					"type":        "string",
					"description": "Comment body in Confluence storage format",
				},
			},
			Required: []string{"page_id", "body"},
		},
	}, s.handleConfluenceAddComment)
}

func (s *Server) handleConfluenceSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}

	cql, err := request.RequireString("cql")
	if err != nil {
		return errorResponse("Missing or invalid 'cql' argument"), nil
	}

	start := request.GetInt("start", 0)
	limit := request.GetInt("limit", 25)

	result, err := s.confluence.SearchPages(ctx, cql, start, limit)
	if err != nil {
		return s.toolError("confluence_search_pages", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleConfluenceGetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}

	pageID, err := request.RequireString("page_id")
	if err != nil {
		return errorResponse("Missing or invalid 'page_id' argument"), nil
	}

	result, err := s.confluence.GetPage(ctx, pageID)
	if err != nil {
		return s.toolError("confluence_get_page", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleConfluenceCreatePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}
	if !s.rateLimiter.AllowWrite() {
		return errorResponse("Rate limit exceeded for write operations. Please try again later."), nil
	}

	spaceID, err := request.RequireString("space_id")
	if err != nil {
		return errorResponse("Missing or invalid 'space_id' argument"), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return errorResponse("Missing or invalid 'title' argument"), nil
	}

	input := confluence.CreatePageInput{
		SpaceID:  spaceID,
		Title:    title,
		Body:     request.GetString("body", ""),
		ParentID: request.GetString("parent_id", ""),
	}

	result, err := s.confluence.CreatePage(ctx, input)
	if err != nil {
		return s.toolError("confluence_create_page", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleConfluenceUpdatePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}
	if !s.rateLimiter.AllowWrite() {
		return errorResponse("Rate limit exceeded for write operations. Please try again later."), nil
	}

	pageID, err := request.RequireString("page_id")
	if err != nil {
		return errorResponse("Missing or invalid 'page_id' argument"), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return errorResponse("Missing or invalid 'title' argument"), nil
	}
	version := request.GetInt("version", 0)
	if version <= 0 {
		return errorResponse("Missing or invalid 'version' argument"), nil
	}

	result, err := s.confluence.UpdatePage(ctx, pageID, title, request.GetString("body", ""), version)
	if err != nil {
		return s.toolError("confluence_update_page", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleConfluenceListSpaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}

	limit := request.GetInt("limit", 25)

	result, err := s.confluence.ListSpaces(ctx, limit)
	if err != nil {
		return s.toolError("confluence_list_spaces", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleConfluenceAddComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}
	if !s.rateLimiter.AllowWrite() {
		return errorResponse("Rate limit exceeded for write operations. Please try again later."), nil
	}

	pageID, err := request.RequireString("page_id")
	if err != nil {
		return errorResponse("Missing or invalid 'page_id' argument"), nil
	}
	body, err := request.RequireString("body")
	if err != nil {
		return errorResponse("Missing or invalid 'body' argument"), nil
	}

	result, err := s.confluence.AddPageComment(ctx, pageID, body)
	if err != nil {
		return s.toolError("confluence_add_comment", err), nil
	}
	return jsonResponse(result), nil
}
