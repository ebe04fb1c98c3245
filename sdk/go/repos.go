package julsdk

import (
	"context"
	"net/http"
	"net/url"
)

// CreateRepoInput is the body of CreateRepo.
type CreateRepoInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Visibility  Visibility `json:"visibility,omitempty"`
}

// PromoteInput is the body of Promote. CommitSha defaults server-side to the
// workspace head.
type PromoteInput struct {
	TargetBranch string `json:"target_branch"`
	CommitSha    string `json:"commit_sha,omitempty"`
}

func (c *Client) getJSON(ctx context.Context, path string) (any, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Expect: ResponseJSON})
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any) (any, error) {
	return c.Do(ctx, Request{Method: method, Path: path, Body: body, Expect: ResponseJSON})
}

// ListRepos returns all repositories visible to the caller.
func (c *Client) ListRepos(ctx context.Context) ([]Repo, error) {
	raw, err := c.getJSON(ctx, "/api/v1/repos")
	if err != nil {
		return nil, err
	}
	return MapArray(raw, MapRepo), nil
}

func (c *Client) GetRepo(ctx context.Context, name string) (Repo, error) {
	raw, err := c.getJSON(ctx, "/api/v1/repos/"+url.PathEscape(name))
	if err != nil {
		return Repo{}, err
	}
	return MapRepo(raw), nil
}

func (c *Client) CreateRepo(ctx context.Context, in CreateRepoInput) (Repo, error) {
	raw, err := c.sendJSON(ctx, http.MethodPost, "/api/v1/repos", in)
	if err != nil {
		return Repo{}, err
	}
	return MapRepo(raw), nil
}

func (c *Client) DeleteRepo(ctx context.Context, name string) error {
	_, err := c.sendJSON(ctx, http.MethodDelete, "/api/v1/repos/"+url.PathEscape(name), nil)
	return err
}

// ListWorkspaces returns the synced workspaces of a repository.
func (c *Client) ListWorkspaces(ctx context.Context, repo string) ([]Workspace, error) {
	raw, err := c.getJSON(ctx, repoPath(repo, "workspaces"))
	if err != nil {
		return nil, err
	}
	return MapArray(raw, MapWorkspace), nil
}

func (c *Client) GetWorkspace(ctx context.Context, repo, workspaceID string) (Workspace, error) {
	raw, err := c.getJSON(ctx, repoPath(repo, "workspaces/"+url.PathEscape(workspaceID)))
	if err != nil {
		return Workspace{}, err
	}
	return MapWorkspace(raw), nil
}

// Promote publishes a workspace commit to a target branch. A promotion
// blocked by policy fails with an *APIError whose Body.Violations lists the
// failing checks.
func (c *Client) Promote(ctx context.Context, repo, workspaceID string, in PromoteInput) (PromoteResponse, error) {
	raw, err := c.sendJSON(ctx, http.MethodPost, repoPath(repo, "workspaces/"+url.PathEscape(workspaceID)+"/promote"), in)
	if err != nil {
		return PromoteResponse{}, err
	}
	return MapPromoteResponse(raw), nil
}
