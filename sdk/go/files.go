package julsdk

import (
	"context"
)

// GetFileTree returns the repository tree at ref ("HEAD" when empty).
func (c *Client) GetFileTree(ctx context.Context, repo, ref string) ([]FileNode, error) {
	raw, err := c.getJSON(ctx, FileTreePath(repo, ref))
	if err != nil {
		return nil, err
	}
	return MapArray(raw, MapFileNode), nil
}

func (c *Client) GetFileContent(ctx context.Context, repo, filePath, ref string) (FileContent, error) {
	raw, err := c.getJSON(ctx, FileContentPath(repo, filePath, ref))
	if err != nil {
		return FileContent{}, err
	}
	return MapFileContent(raw), nil
}

func (c *Client) GetFileHistory(ctx context.Context, repo, filePath string, opts FileHistoryOptions) ([]FileHistoryEntry, error) {
	raw, err := c.getJSON(ctx, FileHistoryPath(repo, filePath, opts))
	if err != nil {
		return nil, err
	}
	return MapArray(raw, MapFileHistoryEntry), nil
}

// Query returns commits matching attestation and metadata filters.
func (c *Client) Query(ctx context.Context, repo string, params QueryParams) ([]Commit, error) {
	raw, err := c.getJSON(ctx, QueryPath(repo, params))
	if err != nil {
		return nil, err
	}
	return MapArray(raw, MapCommit), nil
}
