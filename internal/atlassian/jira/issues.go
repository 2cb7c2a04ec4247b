// Package jira maps Jira issue operations onto the shared resilient client.
// All network behavior — caching, pacing, retries, version fallback — lives
// in the client; this package only shapes requests and responses.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/atlasmcp/atlasmcp/internal/atlassian"
)

// Service exposes Jira operations over a shared client.
type Service struct {
	client *atlassian.Client
}

// NewService creates a Jira service on the given client.
func NewService(client *atlassian.Client) *Service {
	return &Service{client: client}
}

// CreateIssueInput describes a new issue.
type CreateIssueInput struct {
	Project     string
	Summary     string
	IssueType   string
	Description string
	Assignee    string
	Priority    string
	Labels      []string
	// Extra carries arbitrary additional fields verbatim
	Extra map[string]interface{}
}

// SearchIssues runs a JQL search and returns a compact result map.
func (s *Service) SearchIssues(ctx context.Context, jql string, startAt, maxResults int, fields []string) (map[string]interface{}, error) {
	if jql == "" {
		return nil, fmt.Errorf("jira: jql is required")
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	query := url.Values{}
	query.Set("jql", jql)
	query.Set("startAt", strconv.Itoa(startAt))
	query.Set("maxResults", strconv.Itoa(maxResults))
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}

	raw, err := s.client.Execute(ctx, atlassian.Get(atlassian.ServiceJira, "/search", query))
	if err != nil {
		return nil, err
	}

	var result SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("jira: failed to parse search response: %w", err)
	}

	issues := make([]map[string]interface{}, 0, len(result.Issues))
	for i := range result.Issues {
		issues = append(issues, summarizeIssue(&result.Issues[i]))
	}

	return map[string]interface{}{
		"total":       result.Total,
		"start_at":    result.StartAt,
		"max_results": result.MaxResults,
		"issues":      issues,
	}, nil
}

// GetIssue retrieves one issue by key.
func (s *Service) GetIssue(ctx context.Context, issueKey string, fields []string) (map[string]interface{}, error) {
	if issueKey == "" {
		return nil, fmt.Errorf("jira: issue key is required")
	}

	var query url.Values
	if len(fields) > 0 {
		query = url.Values{}
		query.Set("fields", strings.Join(fields, ","))
	}

	raw, err := s.client.Execute(ctx, atlassian.Get(atlassian.ServiceJira, "/issue/"+url.PathEscape(issueKey), query))
	if err != nil {
		return nil, err
	}

	var issue Issue
	if err := json.Unmarshal(raw, &issue); err != nil {
		return nil, fmt.Errorf("jira: failed to parse issue response: %w", err)
	}

	return summarizeIssue(&issue), nil
}

// CreateIssue creates a new issue and returns its identifiers.
func (s *Service) CreateIssue(ctx context.Context, input CreateIssueInput) (map[string]interface{}, error) {
	if input.Project == "" || input.Summary == "" || input.IssueType == "" {
		return nil, fmt.Errorf("jira: project, summary and issue type are required")
	}

	issueFields := map[string]interface{}{
		"project":   map[string]string{"key": input.Project},
		"summary":   input.Summary,
		"issuetype": map[string]string{"name": input.IssueType},
	}
	if input.Description != "" {
		issueFields["description"] = adfText(input.Description)
	}
	if input.Assignee != "" {
		issueFields["assignee"] = map[string]string{"accountId": input.Assignee}
	}
	if input.Priority != "" {
		issueFields["priority"] = map[string]string{"name": input.Priority}
	}
	if len(input.Labels) > 0 {
		issueFields["labels"] = input.Labels
	}
	for key, value := range input.Extra {
		issueFields[key] = value
	}

	body, err := json.Marshal(map[string]interface{}{"fields": issueFields})
	if err != nil {
		return nil, fmt.Errorf("jira: failed to marshal request: %w", err)
	}

	raw, err := s.client.Execute(ctx, atlassian.Post(atlassian.ServiceJira, "/issue", body))
	if err != nil {
		return nil, err
	}

	var issue Issue
	if err := json.Unmarshal(raw, &issue); err != nil {
		return nil, fmt.Errorf("jira: failed to parse create response: %w", err)
	}

	return map[string]interface{}{
		"id":   issue.ID,
		"key":  issue.Key,
		"self": issue.Self,
	}, nil
}

// UpdateIssue updates selected fields on an existing issue.
// Assignee and priority values get their object wrapping; everything else
// passes through verbatim.
func (s *Service) UpdateIssue(ctx context.Context, issueKey string, fields map[string]interface{}) (map[string]interface{}, error) {
	if issueKey == "" {
		return nil, fmt.Errorf("jira: issue key is required")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("jira: at least one field to update is required")
	}

	updateFields := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		switch key {
		case "assignee":
			updateFields["assignee"] = map[string]string{"accountId": fmt.Sprint(value)}
		case "priority":
			updateFields["priority"] = map[string]string{"name": fmt.Sprint(value)}
		case "description":
			if text, ok := value.(string); ok {
				updateFields["description"] = adfText(text)
			} else {
				updateFields["description"] = value
			}
		default:
			updateFields[key] = value
		}
	}

	body, err := json.Marshal(map[string]interface{}{"fields": updateFields})
	if err != nil {
		return nil, fmt.Errorf("jira: failed to marshal request: %w", err)
	}

	// Jira returns 204 No Content on successful update.
	_, err = s.client.Execute(ctx, atlassian.Put(atlassian.ServiceJira, "/issue/"+url.PathEscape(issueKey), body))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"key":     issueKey,
		"updated": true,
	}, nil
}

// AddComment adds a comment to an issue.
func (s *Service) AddComment(ctx context.Context, issueKey, text string) (map[string]interface{}, error) {
	if issueKey == "" || text == "" {
		return nil, fmt.Errorf("jira: issue key and comment text are required")
	}

	body, err := json.Marshal(map[string]interface{}{"body": adfText(text)})
	if err != nil {
		return nil, fmt.Errorf("jira: failed to marshal request: %w", err)
	}

	raw, err := s.client.Execute(ctx, atlassian.Post(atlassian.ServiceJira, "/issue/"+url.PathEscape(issueKey)+"/comment", body))
	if err != nil {
		return nil, err
	}

	var comment Comment
	if err := json.Unmarshal(raw, &comment); err != nil {
		return nil, fmt.Errorf("jira: failed to parse comment response: %w", err)
	}

	return map[string]interface{}{
		"id":      comment.ID,
		"author":  comment.Author.DisplayName,
		"created": comment.Created,
	}, nil
}

// GetTransitions lists the transitions currently available for an issue.
func (s *Service) GetTransitions(ctx context.Context, issueKey string) ([]map[string]interface{}, error) {
	if issueKey == "" {
		return nil, fmt.Errorf("jira: issue key is required")
	}

	raw, err := s.client.Execute(ctx, atlassian.Get(atlassian.ServiceJira, "/issue/"+url.PathEscape(issueKey)+"/transitions", nil))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("jira: failed to parse transitions response: %w", err)
	}

	transitions := make([]map[string]interface{}, 0, len(parsed.Transitions))
	for _, t := range parsed.Transitions {
		transitions = append(transitions, map[string]interface{}{
			"id":   t.ID,
			"name": t.Name,
			"to":   t.To.Name,
		})
	}
	return transitions, nil
}

// TransitionIssue moves an issue through a workflow transition.
func (s *Service) TransitionIssue(ctx context.Context, issueKey, transitionID string) (map[string]interface{}, error) {
	if issueKey == "" || transitionID == "" {
		return nil, fmt.Errorf("jira: issue key and transition id are required")
	}

	body, err := json.Marshal(map[string]interface{}{
		"transition": map[string]string{"id": transitionID},
	})
	if err != nil {
		return nil, fmt.Errorf("jira: failed to marshal request: %w", err)
	}

	// 204 No Content on success.
	_, err = s.client.Execute(ctx, atlassian.Post(atlassian.ServiceJira, "/issue/"+url.PathEscape(issueKey)+"/transitions", body))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"key":           issueKey,
		"transitioned":  true,
		"transition_id": transitionID,
	}, nil
}

// summarizeIssue flattens an issue into the compact map returned to tools.
func summarizeIssue(issue *Issue) map[string]interface{} {
	result := map[string]interface{}{
		"id":      issue.ID,
		"key":     issue.Key,
		"summary": issue.Fields.Summary,
	}

	if issue.Fields.Description != nil {
		result["description"] = issue.Fields.Description
	}
	if issue.Fields.Status != nil {
		result["status"] = issue.Fields.Status.Name
	}
	if issue.Fields.IssueType != nil {
		result["issuetype"] = issue.Fields.IssueType.Name
	}
	if issue.Fields.Priority != nil {
		result["priority"] = issue.Fields.Priority.Name
	}
	if issue.Fields.Assignee != nil {
		result["assignee"] = map[string]interface{}{
			"accountId":   issue.Fields.Assignee.AccountID,
			"displayName": issue.Fields.Assignee.DisplayName,
		}
	}
	if len(issue.Fields.Labels) > 0 {
		result["labels"] = issue.Fields.Labels
	}
	if issue.Fields.Created != "" {
		result["created"] = issue.Fields.Created
	}
	if issue.Fields.Updated != "" {
		result["updated"] = issue.Fields.Updated
	}

	return result
}
