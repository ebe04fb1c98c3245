package julsdk

import (
	"context"
	"net/http"
	"net/url"
)

// RequestSuggestionInput asks the server's review agent for a suggestion.
type RequestSuggestionInput struct {
	ChangeID string `json:"change_id"`
	Reason   string `json:"reason"`
}

func (c *Client) ListSuggestions(ctx context.Context, repo string, f SuggestionsQuery) ([]Suggestion, error) {
	raw, err := c.getJSON(ctx, SuggestionsPath(repo, f))
	if err != nil {
		return nil, err
	}
	return MapArray(raw, MapSuggestion), nil
}

func (c *Client) GetSuggestion(ctx context.Context, repo, suggestionID string) (Suggestion, error) {
	raw, err := c.getJSON(ctx, repoPath(repo, "suggestions/"+url.PathEscape(suggestionID)))
	if err != nil {
		return Suggestion{}, err
	}
	return MapSuggestion(raw), nil
}

func (c *Client) RequestSuggestion(ctx context.Context, repo string, in RequestSuggestionInput) (Suggestion, error) {
	raw, err := c.sendJSON(ctx, http.MethodPost, repoPath(repo, "suggestions"), in)
	if err != nil {
		return Suggestion{}, err
	}
	return MapSuggestion(raw), nil
}

func (c *Client) AcceptSuggestion(ctx context.Context, repo, suggestionID string) error {
	_, err := c.sendJSON(ctx, http.MethodPost, repoPath(repo, "suggestions/"+url.PathEscape(suggestionID)+"/accept"), nil)
	return err
}

func (c *Client) RejectSuggestion(ctx context.Context, repo, suggestionID string) error {
	_, err := c.sendJSON(ctx, http.MethodPost, repoPath(repo, "suggestions/"+url.PathEscape(suggestionID)+"/reject"), nil)
	return err
}
