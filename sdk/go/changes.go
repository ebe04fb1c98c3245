package julsdk

import (
	"context"
	"net/http"
	"net/url"
)

// TriggerCIInput is the body of TriggerCI.
type TriggerCIInput struct {
	CommitSha string    `json:"commit_sha"`
	Profile   CIProfile `json:"profile,omitempty"`
}

// ListChanges returns one page of changes. The server may answer with a bare
// array or an envelope; both normalize to the same Page.
func (c *Client) ListChanges(ctx context.Context, repo string, f ChangesQuery) (Page[Change], error) {
	raw, err := c.getJSON(ctx, ChangesPath(repo, f))
	if err != nil {
		return Page[Change]{}, err
	}
	return NormalizePaginated(raw, MapChange), nil
}

func (c *Client) GetChange(ctx context.Context, repo, changeID string) (Change, error) {
	raw, err := c.getJSON(ctx, repoPath(repo, "changes/"+url.PathEscape(changeID)))
	if err != nil {
		return Change{}, err
	}
	return MapChange(raw), nil
}

// GetInterdiff returns the textual diff between two revisions of a change.
func (c *Client) GetInterdiff(ctx context.Context, repo, changeID string, fromRev, toRev int) (string, error) {
	raw, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   InterdiffPath(repo, changeID, fromRev, toRev),
		Expect: ResponseText,
	})
	if err != nil {
		return "", err
	}
	text, _ := raw.(string)
	return text, nil
}

func (c *Client) GetCommit(ctx context.Context, repo, sha string) (Commit, error) {
	raw, err := c.getJSON(ctx, repoPath(repo, "commits/"+url.PathEscape(sha)))
	if err != nil {
		return Commit{}, err
	}
	return MapCommit(raw), nil
}

// GetAttestation returns the CI attestation recorded for a commit.
func (c *Client) GetAttestation(ctx context.Context, repo, sha string) (Attestation, error) {
	raw, err := c.getJSON(ctx, repoPath(repo, "commits/"+url.PathEscape(sha)+"/attestation"))
	if err != nil {
		return Attestation{}, err
	}
	return MapAttestation(raw), nil
}

func (c *Client) ListAttestations(ctx context.Context, repo string, f AttestationsQuery) (Page[Attestation], error) {
	raw, err := c.getJSON(ctx, AttestationsPath(repo, f))
	if err != nil {
		return Page[Attestation]{}, err
	}
	return NormalizePaginated(raw, MapAttestation), nil
}

// TriggerCI queues a CI run for a commit.
func (c *Client) TriggerCI(ctx context.Context, repo string, in TriggerCIInput) (CIJob, error) {
	raw, err := c.sendJSON(ctx, http.MethodPost, repoPath(repo, "ci/trigger"), in)
	if err != nil {
		return CIJob{}, err
	}
	return MapCIJob(raw), nil
}
