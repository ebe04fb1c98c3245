package julsdk_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"julclient/internal/julfake"
	julsdk "julclient/sdk/go"
)

func TestGetRepoMapsUnderscoreFields(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	srv.StubJSON(http.MethodGet, "/api/v1/repos/alpha", http.StatusOK, map[string]any{
		"name": "alpha", "visibility": "public", "default_branch": "main",
		"created_at": "t1", "updated_at": "t2",
	})

	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})
	repo, err := client.GetRepo(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, julsdk.Repo{
		Name:          "alpha",
		Visibility:    julsdk.VisibilityPublic,
		DefaultBranch: "main",
		CreatedAt:     "t1",
		UpdatedAt:     "t2",
	}, repo)
	assert.Nil(t, repo.Description)
}

func TestListChangesBareArray(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/changes", http.StatusOK, []any{
		map[string]any{"id": 1}, map[string]any{"id": 2},
	})

	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})
	page, err := client.ListChanges(context.Background(), "demo", julsdk.ChangesQuery{Status: julsdk.ChangeDraft, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 0, page.Offset)

	last, _ := srv.LastRequest()
	assert.Equal(t, "status=draft&limit=2", last.RawQuery)
}

func TestGetRepoNotFound(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	srv.StubError(http.MethodGet, "/api/v1/repos/x", http.StatusNotFound, "not_found", "repo missing")

	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})
	_, err := client.GetRepo(context.Background(), "x")
	apiErr, ok := julsdk.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, julsdk.ErrorBody{Error: "not_found", Message: "repo missing"}, apiErr.Body)
}

func TestRepoLifecycle(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	srv.StubJSON(http.MethodPost, "/api/v1/repos", http.StatusCreated, map[string]any{
		"id": "r1", "name": "alpha", "visibility": "private", "defaultBranch": "main",
	})
	srv.StubJSON(http.MethodGet, "/api/v1/repos", http.StatusOK, []any{
		map[string]any{"id": "r1", "name": "alpha"},
	})
	srv.Stub(http.MethodDelete, "/api/v1/repos/alpha", julfake.Response{Status: http.StatusNoContent})

	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})
	ctx := context.Background()

	repo, err := client.CreateRepo(ctx, julsdk.CreateRepoInput{Name: "alpha", Visibility: julsdk.VisibilityPrivate})
	require.NoError(t, err)
	assert.Equal(t, "r1", repo.ID)
	last, _ := srv.LastRequest()
	assert.Equal(t, map[string]any{"name": "alpha", "visibility": "private"}, last.JSON())

	repos, err := client.ListRepos(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "alpha", repos[0].Name)

	require.NoError(t, client.DeleteRepo(ctx, "alpha"))
	last, _ = srv.LastRequest()
	assert.Equal(t, http.MethodDelete, last.Method)
}

func TestWorkspacesAndPromote(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/workspaces", http.StatusOK, []any{
		map[string]any{"id": "ws-1", "user": "ada", "name": "@", "head_commit": "abc", "synced_at": "t"},
	})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/workspaces/ws-1", http.StatusOK, map[string]any{
		"id": "ws-1", "ref": "refs/jul/workspaces/ada/@",
	})
	srv.StubJSON(http.MethodPost, "/demo.jul/api/v1/workspaces/ws-1/promote", http.StatusOK, map[string]any{
		"success": true, "ref": "refs/heads/main", "commit_sha": "abc",
	})

	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})
	ctx := context.Background()

	list, err := client.ListWorkspaces(ctx, "demo")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "abc", list[0].HeadCommit)

	ws, err := client.GetWorkspace(ctx, "demo", "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "refs/jul/workspaces/ada/@", ws.Ref)

	res, err := client.Promote(ctx, "demo", "ws-1", julsdk.PromoteInput{TargetBranch: "main", CommitSha: "abc"})
	require.NoError(t, err)
	assert.Equal(t, julsdk.PromoteResponse{Success: true, Ref: "refs/heads/main", CommitSha: "abc"}, res)
	last, _ := srv.LastRequest()
	assert.Equal(t, map[string]any{"target_branch": "main", "commit_sha": "abc"}, last.JSON())
}

func TestChangeCommitAndInterdiff(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/changes/Iabc", http.StatusOK, map[string]any{
		"change_id": "Iabc", "status": "published",
	})
	srv.Stub(http.MethodGet, "/demo.jul/api/v1/changes/Iabc/interdiff", julfake.Response{
		ContentType: "application/json",
		Body:        "diff --git a/x b/x\n",
	})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/commits/abc", http.StatusOK, map[string]any{
		"sha": "abc", "author_email": "ada@example.com",
	})

	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})
	ctx := context.Background()

	change, err := client.GetChange(ctx, "demo", "Iabc")
	require.NoError(t, err)
	assert.Equal(t, julsdk.ChangePublished, change.Status)

	diff, err := client.GetInterdiff(ctx, "demo", "Iabc", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/x b/x\n", diff)
	last, _ := srv.LastRequest()
	assert.Equal(t, "from_rev=1&to_rev=2", last.RawQuery)

	commit, err := client.GetCommit(ctx, "demo", "abc")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", commit.AuthorEmail)
	assert.Nil(t, commit.ChangeID)
}

func TestAttestationsAndCI(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/commits/abc/attestation", http.StatusOK, map[string]any{
		"attestation_id": "a1", "status": "pass", "signals": map[string]any{"lint": map[string]any{"status": "warn", "warnings": 3}},
	})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/attestations", http.StatusOK, map[string]any{
		"items": []any{map[string]any{"attestation_id": "a1"}}, "total": 12, "limit": 1, "offset": 0,
	})

	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})
	ctx := context.Background()

	att, err := client.GetAttestation(ctx, "demo", "abc")
	require.NoError(t, err)
	require.NotNil(t, att.Signals.Lint)
	assert.Equal(t, 3, att.Signals.Lint.Warnings)

	page, err := client.ListAttestations(ctx, "demo", julsdk.AttestationsQuery{CommitSha: "abc", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	last, _ := srv.LastRequest()
	assert.Equal(t, "commit_sha=abc&limit=1", last.RawQuery)

	job, err := client.TriggerCI(ctx, "demo", julsdk.TriggerCIInput{CommitSha: "abc", Profile: julsdk.CIProfileUnit})
	require.NoError(t, err)
	assert.NotEmpty(t, job.JobID)
	last, _ = srv.LastRequest()
	assert.Equal(t, map[string]any{"commit_sha": "abc", "profile": "unit"}, last.JSON())
}

func TestSuggestionOperations(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	suggestion := map[string]any{"suggestion_id": "s1", "change_id": "Iabc", "status": "open", "confidence": 0.8}
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/suggestions", http.StatusOK, []any{suggestion})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/suggestions/s1", http.StatusOK, suggestion)
	srv.StubJSON(http.MethodPost, "/demo.jul/api/v1/suggestions", http.StatusOK, suggestion)
	srv.StubJSON(http.MethodPost, "/demo.jul/api/v1/suggestions/s1/accept", http.StatusOK, map[string]any{})
	srv.StubJSON(http.MethodPost, "/demo.jul/api/v1/suggestions/s1/reject", http.StatusOK, map[string]any{})

	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})
	ctx := context.Background()

	list, err := client.ListSuggestions(ctx, "demo", julsdk.SuggestionsQuery{ChangeID: "Iabc"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 0.8, list[0].Confidence)

	s, err := client.GetSuggestion(ctx, "demo", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", s.SuggestionID)

	_, err = client.RequestSuggestion(ctx, "demo", julsdk.RequestSuggestionInput{ChangeID: "Iabc", Reason: "lint"})
	require.NoError(t, err)
	last, _ := srv.LastRequest()
	assert.Equal(t, map[string]any{"change_id": "Iabc", "reason": "lint"}, last.JSON())

	require.NoError(t, client.AcceptSuggestion(ctx, "demo", "s1"))
	require.NoError(t, client.RejectSuggestion(ctx, "demo", "s1"))
	last, _ = srv.LastRequest()
	assert.Equal(t, "/demo.jul/api/v1/suggestions/s1/reject", last.Path)
}

func TestFileOperationsAndQuery(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/files", http.StatusOK, []any{
		map[string]any{"name": "src", "path": "src", "type": "directory", "children": []any{
			map[string]any{"name": "main.go", "path": "src/main.go", "type": "file", "size": 10},
		}},
	})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/files/src%2Fmain.go/content", http.StatusOK, map[string]any{
		"path": "src/main.go", "content": "package main\n", "encoding": "utf-8", "size": 13, "language": "go",
	})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/files/src%2Fmain.go/history", http.StatusOK, []any{
		map[string]any{"commit_sha": "abc", "change_type": "add"},
	})
	srv.StubJSON(http.MethodGet, "/demo.jul/api/v1/query", http.StatusOK, []any{
		map[string]any{"sha": "abc", "changeId": "Iabc"},
	})

	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})
	ctx := context.Background()

	tree, err := client.GetFileTree(ctx, "demo", "")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	last, _ := srv.LastRequest()
	assert.Equal(t, "ref=HEAD", last.RawQuery)

	content, err := client.GetFileContent(ctx, "demo", "src/main.go", "main")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content.Content)
	require.NotNil(t, content.Language)
	assert.Equal(t, "go", *content.Language)
	last, _ = srv.LastRequest()
	assert.Equal(t, "src/main.go", last.Params["path"])
	assert.Equal(t, "ref=main", last.RawQuery)

	history, err := client.GetFileHistory(ctx, "demo", "src/main.go", julsdk.FileHistoryOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, julsdk.ChangeTypeAdd, history[0].ChangeType)

	compiles := true
	commits, err := client.Query(ctx, "demo", julsdk.QueryParams{Compiles: &compiles, CoverageMin: 80})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.NotNil(t, commits[0].ChangeID)
	assert.Equal(t, "Iabc", *commits[0].ChangeID)
	last, _ = srv.LastRequest()
	assert.Equal(t, "compiles=true&coverage_min=80", last.RawQuery)
}
