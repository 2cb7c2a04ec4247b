package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/atlasmcp/atlasmcp/internal/atlassian"
)

// ListProjects lists projects visible to the authenticated user.
func (s *Service) ListProjects(ctx context.Context, startAt, maxResults int) (map[string]interface{}, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	query := url.Values{}
	query.Set("startAt", strconv.Itoa(startAt))
	query.Set("maxResults", strconv.Itoa(maxResults))

	raw, err := s.client.Execute(ctx, atlassian.Get(atlassian.ServiceJira, "/project/search", query))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		StartAt    int       `json:"startAt"`
		MaxResults int       `json:"maxResults"`
		Total      int       `json:"total"`
		Values     []Project `json:"values"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("jira: failed to parse project response: %w", err)
	}

	projects := make([]map[string]interface{}, 0, len(parsed.Values))
	for _, p := range parsed.Values {
		projects = append(projects, map[string]interface{}{
			"id":   p.ID,
			"key":  p.Key,
			"name": p.Name,
		})
	}

	return map[string]interface{}{
		"total":    parsed.Total,
		"start_at": parsed.StartAt,
		"projects": projects,
	}, nil
}
