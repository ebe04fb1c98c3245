package julsdk_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	julsdk "julclient/sdk/go"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestMapRepoUnderscoreAndCompact(t *testing.T) {
	repo := julsdk.MapRepo(decode(t, `{"name":"alpha","visibility":"public","default_branch":"main","created_at":"t1","updated_at":"t2"}`))
	assert.Equal(t, "alpha", repo.Name)
	assert.Equal(t, julsdk.VisibilityPublic, repo.Visibility)
	assert.Equal(t, "main", repo.DefaultBranch)
	assert.Equal(t, "t1", repo.CreatedAt)
	assert.Equal(t, "t2", repo.UpdatedAt)
	assert.Nil(t, repo.Description)

	compact := julsdk.MapRepo(decode(t, `{"name":"beta","defaultBranch":"trunk","description":"d"}`))
	assert.Equal(t, "trunk", compact.DefaultBranch)
	require.NotNil(t, compact.Description)
	assert.Equal(t, "d", *compact.Description)
}

func TestMapperUnderscoreTakesPrecedence(t *testing.T) {
	c := julsdk.MapCommit(decode(t, `{"sha":"s","change_id":"I1","changeId":"I2","tree_sha":"a","treeSha":"b"}`))
	require.NotNil(t, c.ChangeID)
	assert.Equal(t, "I1", *c.ChangeID)
	assert.Equal(t, "a", c.TreeSha)
}

func TestMapperNullFallsBackToCompact(t *testing.T) {
	c := julsdk.MapCommit(decode(t, `{"sha":"s","change_id":null,"changeId":"I2"}`))
	require.NotNil(t, c.ChangeID)
	assert.Equal(t, "I2", *c.ChangeID)

	none := julsdk.MapCommit(decode(t, `{"sha":"s"}`))
	assert.Nil(t, none.ChangeID)
}

func TestMapChangeRevisions(t *testing.T) {
	c := julsdk.MapChange(decode(t, `{
		"change_id":"Iabc","title":"t","status":"ready",
		"latest_revision":{"rev_index":2,"commit_sha":"c2"},
		"revisions":[{"rev_index":1,"commit_sha":"c1"},{"revIndex":2,"commitSha":"c2"}]
	}`))
	assert.Equal(t, "Iabc", c.ChangeID)
	assert.Equal(t, julsdk.ChangeReady, c.Status)
	require.Len(t, c.Revisions, 2)
	assert.Equal(t, 2, c.Revisions[1].RevIndex)
	require.NotNil(t, c.LatestRevision)
	assert.Equal(t, c.Revisions[1], *c.LatestRevision)

	latest, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, "c2", latest.CommitSha)
}

func TestMapChangeWithoutLatestRevision(t *testing.T) {
	c := julsdk.MapChange(decode(t, `{"changeId":"I1","revisions":[{"rev_index":1,"commit_sha":"c1"}]}`))
	assert.Nil(t, c.LatestRevision)
	latest, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, "c1", latest.CommitSha)

	empty := julsdk.MapChange(decode(t, `{}`))
	assert.Empty(t, empty.Revisions)
	_, ok = empty.Latest()
	assert.False(t, ok)
}

func TestMapAttestationSignals(t *testing.T) {
	a := julsdk.MapAttestation(decode(t, `{
		"attestation_id":"att-1","commit_sha":"abc","type":"ci","status":"fail",
		"signals":{
			"compile":{"status":"pass","duration_ms":1200},
			"test":{"status":"fail","passed":10,"failed":1,"skipped":2,
				"failures":[{"name":"TestX","file":"x_test.go","line":12,"message":"boom","stack_trace":"trace"}]}
		},
		"artifacts":[{"name":"log","uri":"s3://bucket/log"}],
		"log_excerpt":"FAIL",
		"started_at":"t0"
	}`))
	assert.Equal(t, "att-1", a.AttestationID)
	assert.Equal(t, julsdk.AttestationFail, a.Status)
	require.NotNil(t, a.Signals.Compile)
	assert.Equal(t, 1200, a.Signals.Compile.DurationMs)
	require.NotNil(t, a.Signals.Test)
	assert.Equal(t, 10, a.Signals.Test.Passed)
	require.Len(t, a.Signals.Test.Failures, 1)
	require.NotNil(t, a.Signals.Test.Failures[0].StackTrace)
	assert.Equal(t, "trace", *a.Signals.Test.Failures[0].StackTrace)
	assert.Nil(t, a.Signals.Format)
	assert.Nil(t, a.Signals.Lint)
	assert.Nil(t, a.Signals.Coverage)
	assert.Nil(t, a.FinishedAt)
	assert.Nil(t, a.ChangeID)
	require.Len(t, a.Artifacts, 1)
	assert.Equal(t, "s3://bucket/log", a.Artifacts[0].URI)
	require.NotNil(t, a.LogExcerpt)
	assert.Equal(t, "FAIL", *a.LogExcerpt)
}

func TestMapAttestationCoverage(t *testing.T) {
	a := julsdk.MapAttestation(decode(t, `{
		"signals":{"coverage":{"status":"complete","linePct":81.5,"branch_pct":60,
			"uncovered_lines":{"main.go":[3,4]}}}
	}`))
	require.NotNil(t, a.Signals.Coverage)
	assert.Equal(t, 81.5, a.Signals.Coverage.LinePct)
	assert.Equal(t, 60.0, a.Signals.Coverage.BranchPct)
	assert.Nil(t, a.Signals.Coverage.DiffLinePct)
	assert.Equal(t, map[string][]int{"main.go": {3, 4}}, a.Signals.Coverage.UncoveredLines)
}

func TestMapAttestationWithoutSignals(t *testing.T) {
	a := julsdk.MapAttestation(decode(t, `{"attestation_id":"a"}`))
	assert.Equal(t, julsdk.Signals{}, a.Signals)
	assert.Empty(t, a.Artifacts)
}

func TestMapSuggestionConfidenceIsPassedThrough(t *testing.T) {
	s := julsdk.MapSuggestion(decode(t, `{"suggestion_id":"s1","confidence":1.7,"status":"open",
		"diffstat":{"files_changed":2,"additions":10,"deletions":3}}`))
	assert.Equal(t, 1.7, s.Confidence)
	assert.Equal(t, julsdk.SuggestionOpen, s.Status)
	assert.Equal(t, julsdk.Diffstat{FilesChanged: 2, Additions: 10, Deletions: 3}, s.Diffstat)

	neg := julsdk.MapSuggestion(decode(t, `{"confidence":-0.5}`))
	assert.Equal(t, -0.5, neg.Confidence)
	assert.Equal(t, julsdk.Diffstat{}, neg.Diffstat)
}

func TestMapFileNodeRecursive(t *testing.T) {
	nodes := julsdk.MapArray(decode(t, `[
		{"name":"src","path":"src","type":"directory","children":[
			{"name":"main.go","path":"src/main.go","type":"file","size":42},
			{"name":"pkg","path":"src/pkg","type":"directory","children":[]}
		]},
		{"name":"README.md","path":"README.md","type":"file"}
	]`), julsdk.MapFileNode)
	require.Len(t, nodes, 2)
	src := nodes[0]
	assert.Equal(t, julsdk.FileTypeDirectory, src.Type)
	require.Len(t, src.Children, 2)
	require.NotNil(t, src.Children[0].Size)
	assert.Equal(t, 42, *src.Children[0].Size)
	assert.NotNil(t, src.Children[1].Children)
	assert.Empty(t, src.Children[1].Children)
	assert.Nil(t, nodes[1].Size)
	assert.Nil(t, nodes[1].Children)
}

func TestMapArrayNonArray(t *testing.T) {
	for _, input := range []any{nil, "x", 12.0, map[string]any{"items": []any{}}} {
		out := julsdk.MapArray(input, julsdk.MapRepo)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	}
}

func TestMapJulEvent(t *testing.T) {
	e := julsdk.MapJulEvent(decode(t, `{"event_id":"e1","type":"ci.finished","repo":"demo","commitSha":"abc","attestation_id":"a1","created_at":"t"}`))
	assert.Equal(t, "e1", e.EventID)
	assert.Equal(t, julsdk.EventCIFinished, e.Type)
	assert.True(t, e.Type.Known())
	require.NotNil(t, e.CommitSha)
	assert.Equal(t, "abc", *e.CommitSha)
	require.NotNil(t, e.AttestationID)
	assert.Nil(t, e.Ref)
	assert.Nil(t, e.Summary)

	assert.False(t, julsdk.EventType("something.else").Known())
}

func TestMapScalarCoercion(t *testing.T) {
	w := julsdk.MapWorkspace(decode(t, `{"id":17,"repo_id":3}`))
	assert.Equal(t, "17", w.ID)
	assert.Equal(t, "3", w.RepoID)

	f := julsdk.MapFileContent(decode(t, `{"path":"a","size":"12","encoding":"base64"}`))
	assert.Equal(t, 12, f.Size)
	assert.Equal(t, julsdk.EncodingBase64, f.Encoding)
	assert.Nil(t, f.Language)
}
