package jira

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasmcp/atlasmcp/internal/atlassian"
)

// newTestService wires a Service to a test server.
func newTestService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := atlassian.NewClient(atlassian.Options{
		BaseURL:        server.URL,
		Email:          "bot@example.com",
		APIToken:       "token123",
		InitialBackoff: time.Millisecond,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return NewService(client), server
}

func TestSearchIssues(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/search", r.URL.Path)
		assert.Equal(t, "project = PROJ", r.URL.Query().Get("jql"))
		assert.Equal(t, "0", r.URL.Query().Get("startAt"))
		assert.Equal(t, "10", r.URL.Query().Get("maxResults"))

		_, _ = w.Write([]byte(`{
			"startAt": 0, "maxResults": 10, "total": 1,
			"issues": [{
				"id": "10001", "key": "PROJ-1",
				"fields": {
					"summary": "Fix login",
					"status": {"name": "In Progress"},
					"assignee": {"accountId": "abc", "displayName": "Dana"},
					"labels": ["auth"]
				}
			}]
		}`))
	}))

	result, err := svc.SearchIssues(context.Background(), "project = PROJ", 0, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result["total"])
	issues := result["issues"].([]map[string]interface{})
	require.Len(t, issues, 1)
	assert.Equal(t, "PROJ-1", issues[0]["key"])
	assert.Equal(t, "Fix login", issues[0]["summary"])
	assert.Equal(t, "In Progress", issues[0]["status"])
	assert.Equal(t, []string{"auth"}, issues[0]["labels"])
}

func TestSearchIssues_RequiresJQL(t *testing.T) {
	svc, _ := newTestService(t, http.NotFoundHandler())

	_, err := svc.SearchIssues(context.Background(), "", 0, 10, nil)
	assert.Error(t, err)
}

func TestGetIssue(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/PROJ-7", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "10007", "key": "PROJ-7",
			"fields": {
				"summary": "Broken build",
				"status": {"name": "To Do"},
				"priority": {"name": "High"},
				"created": "2025-06-01T10:00:00.000+0000"
			}
		}`))
	}))

	issue, err := svc.GetIssue(context.Background(), "PROJ-7", nil)
	require.NoError(t, err)

	assert.Equal(t, "PROJ-7", issue["key"])
	assert.Equal(t, "Broken build", issue["summary"])
	assert.Equal(t, "High", issue["priority"])
	assert.Equal(t, "2025-06-01T10:00:00.000+0000", issue["created"])
}

func TestCreateIssue(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/rest/api/3/issue", r.URL.Path)

		var payload struct {
			Fields map[string]interface{} `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		assert.Equal(t, map[string]interface{}{"key": "PROJ"}, payload.Fields["project"])
		assert.Equal(t, "New task", payload.Fields["summary"])
		assert.Equal(t, map[string]interface{}{"name": "Task"}, payload.Fields["issuetype"])

		// Description arrives as an ADF document
		desc := payload.Fields["description"].(map[string]interface{})
		assert.Equal(t, "doc", desc["type"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "10010", "key": "PROJ-10", "self": "https://x/rest/api/3/issue/10010"}`))
	}))

	result, err := svc.CreateIssue(context.Background(), CreateIssueInput{
		Project:     "PROJ",
		Summary:     "New task",
		IssueType:   "Task",
		Description: "Details here",
	})
	require.NoError(t, err)

	assert.Equal(t, "PROJ-10", result["key"])
	assert.Equal(t, "10010", result["id"])
}

func TestCreateIssue_RequiresCoreFields(t *testing.T) {
	svc, _ := newTestService(t, http.NotFoundHandler())

	_, err := svc.CreateIssue(context.Background(), CreateIssueInput{Project: "PROJ"})
	assert.Error(t, err)
}

func TestUpdateIssue_WrapsSpecialFields(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "/rest/api/3/issue/PROJ-3", r.URL.Path)

		var payload struct {
			Fields map[string]interface{} `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		assert.Equal(t, map[string]interface{}{"accountId": "user9"}, payload.Fields["assignee"])
		assert.Equal(t, map[string]interface{}{"name": "Low"}, payload.Fields["priority"])
		assert.Equal(t, "New summary", payload.Fields["summary"])

		w.WriteHeader(http.StatusNoContent)
	}))

	result, err := svc.UpdateIssue(context.Background(), "PROJ-3", map[string]interface{}{
		"assignee": "user9",
		"priority": "Low",
		"summary":  "New summary",
	})
	require.NoError(t, err)
	assert.Equal(t, true, result["updated"])
	assert.Equal(t, "PROJ-3", result["key"])
}

func TestAddComment(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/PROJ-5/comment", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		body := payload["body"].(map[string]interface{})
		assert.Equal(t, "doc", body["type"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "90001", "author": {"displayName": "Bot"}, "created": "2025-06-02T08:00:00.000+0000"}`))
	}))

	result, err := svc.AddComment(context.Background(), "PROJ-5", "Looks good")
	require.NoError(t, err)

	assert.Equal(t, "90001", result["id"])
	assert.Equal(t, "Bot", result["author"])
}

func TestGetTransitions(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/PROJ-2/transitions", r.URL.Path)
		_, _ = w.Write([]byte(`{"transitions": [
			{"id": "11", "name": "Start Progress", "to": {"name": "In Progress"}},
			{"id": "21", "name": "Done", "to": {"name": "Done"}}
		]}`))
	}))

	transitions, err := svc.GetTransitions(context.Background(), "PROJ-2")
	require.NoError(t, err)

	require.Len(t, transitions, 2)
	assert.Equal(t, "11", transitions[0]["id"])
	assert.Equal(t, "In Progress", transitions[0]["to"])
}

func TestTransitionIssue(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)

		var payload map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "21", payload["transition"]["id"])

		w.WriteHeader(http.StatusNoContent)
	}))

	result, err := svc.TransitionIssue(context.Background(), "PROJ-2", "21")
	require.NoError(t, err)
	assert.Equal(t, true, result["transitioned"])
}

func TestListProjects(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/project/search", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"startAt": 0, "maxResults": 50, "total": 2,
			"values": [
				{"id": "1", "key": "PROJ", "name": "Project One"},
				{"id": "2", "key": "OPS", "name": "Operations"}
			]
		}`))
	}))

	result, err := svc.ListProjects(context.Background(), 0, 50)
	require.NoError(t, err)

	assert.Equal(t, 2, result["total"])
	projects := result["projects"].([]map[string]interface{})
	require.Len(t, projects, 2)
	assert.Equal(t, "OPS", projects[1]["key"])
}
