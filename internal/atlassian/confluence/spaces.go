package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/atlasmcp/atlasmcp/internal/atlassian"
)

type spaceList struct {
	Results []Space `json:"results"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

// ListSpaces returns a compact listing of spaces.
func (s *Service) ListSpaces(ctx context.Context, limit int) (map[string]interface{}, error) {
	if limit <= 0 {
		limit = 25
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	raw, err := s.client.Execute(ctx, atlassian.Get(atlassian.ServiceConfluence, "/spaces", query))
	if err != nil {
		return nil, err
	}

	var list spaceList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("confluence: failed to parse spaces response: %w", err)
	}

	spaces := make([]map[string]interface{}, 0, len(list.Results))
	for _, sp := range list.Results {
		spaces = append(spaces, map[string]interface{}{
			"id":   sp.ID,
			"key":  sp.Key,
			"name": sp.Name,
			"type": sp.Type,
		})
	}

	return map[string]interface{}{
		"spaces":   spaces,
		"has_more": list.Links.Next != "",
	}, nil
}
