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
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/atlasmcp/atlasmcp/internal/atlassian"
	"github.com/atlasmcp/atlasmcp/internal/atlassian/jira"
	"github.com/atlasmcp/atlasmcp/internal/log"
)

// registerJiraTools registers all Jira tools with the MCP server.
func (s *Server) registerJiraTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "jira_search_issues",
		Description: "Search Jira issues with a JQL query. Returns a compact list of matching issues.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"jql": map[string]interface{}{
					"type":        "string",
					"description": "JQL query, e.g. 'project = PROJ AND status = \"In Progress\"'",
				},
				"start_at": map[string]interface{}{
					"type":        "number",
					"description": "Pagination offset (default: 0)",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum issues to return (default: 50)",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Issue fields to include (default: summary, status, assignee, priority)",
				},
			},
			Required: []string{"jql"},
		},
	}, s.handleJiraSearch)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "jira_get_issue",
		Description: "Get a single Jira issue by key, including summary, status, assignee and description.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"issue_key": map[string]interface{}{
					"type":        "string",
					"description": "Issue key, e.g. PROJ-123",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Issue fields to include (default: all)",
				},
			},
			Required: []string{"issue_key"},
		},
	}, s.handleJiraGetIssue)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "jira_create_issue",
		Description: "Create a new Jira issue. Returns the new issue key.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project": map[string]interface{}{
					"type":        "string",
					"description": "Project key, e.g. PROJ",
				},
				"summary": map[string]interface{}{
					"type":        "string",
					"description": "Issue summary line",
				},
				"issue_type": map[string]interface{}{
					"type":        "string",
					"description": "Issue type name (default: Task)",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Issue description as plain text",
				},
				"assignee": map[string]interface{}{
					"type":        "string",
					"description": "Assignee account ID",
				},
				"priority": map[string]interface{}{
					"type":        "string",
					"description": "Priority name, e.g. High",
				},
				"labels": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Labels to apply",
				},
			},
			Required: []string{"project", "summary"},
		},
	}, s.handleJiraCreateIssue)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "jira_update_issue",
		Description: "Update fields on an existing Jira issue. Supported keys: summary, description, assignee, priority, labels.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"issue_key": map[string]interface{}{
					"type":        "string",
					"description": "Issue key, e.g. PROJ-123",
				},
				"fields": map[string]interface{}{
					"type":        "object",
					"description": "Field name to new value map",
				},
			},
			Required: []string{"issue_key", "fields"},
		},
	}, s.handleJiraUpdateIssue)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "jira_add_comment",
		Description: "Add a comment to a Jira issue.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"issue_key": map[string]interface{}{
					"type":        "string",
					"description": "Issue key, e.g. PROJ-123",
				},
				"body": map[string]interface{}{
					"type":        "string",
					"description": "Comment text",
				},
			},
			Required: []string{"issue_key", "body"},
		},
	}, s.handleJiraAddComment)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "jira_get_transitions",
		Description: "List the workflow transitions currently available for a Jira issue.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"issue_key": map[string]interface{}{
					"type":        "string",
					"description": "Issue key, e.g. PROJ-123",
				},
			},
			Required: []string{"issue_key"},
		},
	}, s.handleJiraGetTransitions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "jira_transition_issue",
		Description: "Move a Jira issue through a workflow transition (from jira_get_transitions).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"issue_key": map[string]interface{}{
					"type":        "string",
					"description": "Issue key, e.g. PROJ-123",
				},
				"transition_id": map[string]interface{}{
					"type":        "string",
					"description": "Transition ID from jira_get_transitions",
				},
			},
			Required: []string{"issue_key", "transition_id"},
		},
	}, s.handleJiraTransitionIssue)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "jira_list_projects",
		Description: "List Jira projects visible to the configured account.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"start_at": map[string]interface{}{
					"type":        "number",
					"description": "Pagination offset (default: 0)",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum projects to return (default: 50)",
				},
			},
		},
	}, s.handleJiraListProjects)
}

// toolError renders a client error as a tool result, logging it once.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("tool call failed", slog.String(log.ToolKey, tool), log.Error(err))
	return errorResponse(atlassian.ErrorText(err))
}

func stringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func (s *Server) handleJiraSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}

	jql, err := request.RequireString("jql")
	if err != nil {
		return errorResponse("Missing or invalid 'jql' argument"), nil
	}

	startAt := request.GetInt("start_at", 0)
	maxResults := request.GetInt("max_results", 50)
	fields := stringSlice(request.GetArguments(), "fields")

	result, err := s.jira.SearchIssues(ctx, jql, startAt, maxResults, fields)
	if err != nil {
		return s.toolError("jira_search_issues", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleJiraGetIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}

	issueKey, err := request.RequireString("issue_key")
	if err != nil {
		return errorResponse("Missing or invalid 'issue_key' argument"), nil
	}

	fields := stringSlice(request.GetArguments(), "fields")

	result, err := s.jira.GetIssue(ctx, issueKey, fields)
	if err != nil {
		return s.toolError("jira_get_issue", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleJiraCreateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}
	if !s.rateLimiter.AllowWrite() {
		return errorResponse("Rate limit exceeded for write operations. Please try again later."), nil
	}

	project, err := request.RequireString("project")
	if err != nil {
		return errorResponse("Missing or invalid 'project' argument"), nil
	}
	summary, err := request.RequireString("summary")
	if err != nil {
		return errorResponse("Missing or invalid 'summary' argument"), nil
	}

	input := jira.CreateIssueInput{
		Project:     project,
		Summary:     summary,
		IssueType:   request.GetString("issue_type", "Task"),
		Description: request.GetString("description", ""),
		Assignee:    request.GetString("assignee", ""),
		Priority:    request.GetString("priority", ""),
		Labels:      stringSlice(request.GetArguments(), "labels"),
	}

	result, err := s.jira.CreateIssue(ctx, input)
	if err != nil {
		return s.toolError("jira_create_issue", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleJiraUpdateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}
	if !s.rateLimiter.AllowWrite() {
		return errorResponse("Rate limit exceeded for write operations. Please try again later."), nil
	}

	issueKey, err := request.RequireString("issue_key")
	if err != nil {
		return errorResponse("Missing or invalid 'issue_key' argument"), nil
	}

	fields, ok := request.GetArguments()["fields"].(map[string]interface{})
	if !ok || len(fields) == 0 {
		return errorResponse("Missing or invalid 'fields' argument"), nil
	}

	result, err := s.jira.UpdateIssue(ctx, issueKey, fields)
	if err != nil {
		return s.toolError("jira_update_issue", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleJiraAddComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}
	if !s.rateLimiter.AllowWrite() {
		return errorResponse("Rate limit exceeded for write operations. Please try again later."), nil
	}

	issueKey, err := request.RequireString("issue_key")
	if err != nil {
		return errorResponse("Missing or invalid 'issue_key' argument"), nil
	}
	body, err := request.RequireString("body")
	if err != nil {
		return errorResponse("Missing or invalid 'body' argument"), nil
	}

	result, err := s.jira.AddComment(ctx, issueKey, body)
	if err != nil {
		return s.toolError("jira_add_comment", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleJiraGetTransitions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}

	issueKey, err := request.RequireString("issue_key")
	if err != nil {
		return errorResponse("Missing or invalid 'issue_key' argument"), nil
	}

	transitions, err := s.jira.GetTransitions(ctx, issueKey)
	if err != nil {
		return s.toolError("jira_get_transitions", err), nil
	}
	return jsonResponse(map[string]interface{}{"transitions": transitions}), nil
}

func (s *Server) handleJiraTransitionIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}
	if !s.rateLimiter.AllowWrite() {
		return errorResponse("Rate limit exceeded for write operations. Please try again later."), nil
	}

	issueKey, err := request.RequireString("issue_key")
	if err != nil {
		return errorResponse("Missing or invalid 'issue_key' argument"), nil
	}
	transitionID, err := request.RequireString("transition_id")
	if err != nil {
		return errorResponse("Missing or invalid 'transition_id' argument"), nil
	}

	result, err := s.jira.TransitionIssue(ctx, issueKey, transitionID)
	if err != nil {
		return s.toolError("jira_transition_issue", err), nil
	}
	return jsonResponse(result), nil
}

func (s *Server) handleJiraListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.rateLimiter.AllowCall() {
		return errorResponse("Rate limit exceeded. Please try again later."), nil
	}

	startAt := request.GetInt("start_at", 0)
	maxResults := request.GetInt("max_results", 50)

	result, err := s.jira.ListProjects(ctx, startAt, maxResults)
	if err != nil {
		return s.toolError("jira_list_projects", err), nil
	}
	return jsonResponse(result), nil
}
