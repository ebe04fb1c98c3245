package julsdk

import (
	"net/url"
	"strconv"
	"strings"
)

// query appends parameters in call order. url.Values is not used because
// its Encode sorts keys.
type query struct {
	parts []string
}

func (q *query) set(key, value string) {
	q.parts = append(q.parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
}

// setEscaped appends a value that is already escaped.
func (q *query) setEscaped(key, escaped string) {
	q.parts = append(q.parts, url.QueryEscape(key)+"="+escaped)
}

func (q *query) addString(key, value string) {
	if value != "" {
		q.set(key, value)
	}
}

func (q *query) addInt(key string, value int) {
	if value != 0 {
		q.set(key, strconv.Itoa(value))
	}
}

func (q *query) addFloat(key string, value float64) {
	if value != 0 {
		q.set(key, strconv.FormatFloat(value, 'f', -1, 64))
	}
}

func (q *query) addBool(key string, value *bool) {
	if value != nil {
		q.set(key, strconv.FormatBool(*value))
	}
}

func (q *query) encode() string {
	return strings.Join(q.parts, "&")
}

// withQuery appends "?"+query to path when any parameter was set.
func withQuery(path string, q query) string {
	if s := q.encode(); s != "" {
		return path + "?" + s
	}
	return path
}

// ChangesQuery filters ListChanges. Zero values are not sent.
type ChangesQuery struct {
	Status ChangeStatus
	Author string
	Limit  int
	Offset int
}

func (f ChangesQuery) encode() query {
	var q query
	q.addString("status", string(f.Status))
	q.addString("author", f.Author)
	q.addInt("limit", f.Limit)
	q.addInt("offset", f.Offset)
	return q
}

// AttestationsQuery filters ListAttestations. Zero values are not sent.
type AttestationsQuery struct {
	CommitSha string
	ChangeID  string
	Status    AttestationStatus
	Limit     int
	Offset    int
}

func (f AttestationsQuery) encode() query {
	var q query
	q.addString("commit_sha", f.CommitSha)
	q.addString("change_id", f.ChangeID)
	q.addString("status", string(f.Status))
	q.addInt("limit", f.Limit)
	q.addInt("offset", f.Offset)
	return q
}

type SuggestionsQuery struct {
	ChangeID string
	Status   SuggestionStatus
}

func (f SuggestionsQuery) encode() query {
	var q query
	q.addString("change_id", f.ChangeID)
	q.addString("status", string(f.Status))
	return q
}

type FileHistoryOptions struct {
	Ref   string
	Limit int
}

func (f FileHistoryOptions) encode() query {
	var q query
	q.addString("ref", f.Ref)
	q.addInt("limit", f.Limit)
	return q
}

// QueryParams filters commits by attestation results. Compiles is a pointer
// so that false can be sent; zero coverage bounds and limits are not sent.
type QueryParams struct {
	Tests       SignalStatus
	Compiles    *bool
	CoverageMin float64
	CoverageMax float64
	ChangeID    string
	Author      string
	Since       string
	Until       string
	Limit       int
}

func (f QueryParams) encode() query {
	var q query
	q.addString("tests", string(f.Tests))
	q.addBool("compiles", f.Compiles)
	q.addFloat("coverage_min", f.CoverageMin)
	q.addFloat("coverage_max", f.CoverageMax)
	q.addString("change_id", f.ChangeID)
	q.addString("author", f.Author)
	q.addString("since", f.Since)
	q.addString("until", f.Until)
	q.addInt("limit", f.Limit)
	return q
}

// SubscribeOptions configures SubscribeEvents.
type SubscribeOptions struct {
	// Since asks the server to replay events created after this RFC 3339
	// timestamp before streaming live ones.
	Since string
}

func (f SubscribeOptions) encode() query {
	var q query
	q.addString("since", f.Since)
	return q
}

// Path helpers are exported so callers comparing request signatures can
// reproduce the exact paths.

func ChangesPath(repo string, f ChangesQuery) string {
	return withQuery(repoPath(repo, "changes"), f.encode())
}

func AttestationsPath(repo string, f AttestationsQuery) string {
	return withQuery(repoPath(repo, "attestations"), f.encode())
}

func SuggestionsPath(repo string, f SuggestionsQuery) string {
	return withQuery(repoPath(repo, "suggestions"), f.encode())
}

func FileHistoryPath(repo, filePath string, f FileHistoryOptions) string {
	return withQuery(repoPath(repo, "files/"+escapeComponent(filePath)+"/history"), f.encode())
}

func QueryPath(repo string, f QueryParams) string {
	return withQuery(repoPath(repo, "query"), f.encode())
}

func InterdiffPath(repo, changeID string, fromRev, toRev int) string {
	var q query
	q.set("from_rev", strconv.Itoa(fromRev))
	q.set("to_rev", strconv.Itoa(toRev))
	return withQuery(repoPath(repo, "changes/"+url.PathEscape(changeID)+"/interdiff"), q)
}

func FileTreePath(repo, ref string) string {
	var q query
	q.setEscaped("ref", escapeComponent(defaultRef(ref)))
	return withQuery(repoPath(repo, "files"), q)
}

func FileContentPath(repo, filePath, ref string) string {
	var q query
	q.setEscaped("ref", escapeComponent(defaultRef(ref)))
	return withQuery(repoPath(repo, "files/"+escapeComponent(filePath)+"/content"), q)
}

func EventStreamPath(repo string, f SubscribeOptions) string {
	return withQuery(repoPath(repo, "events/stream"), f.encode())
}

func defaultRef(ref string) string {
	if ref == "" {
		return "HEAD"
	}
	return ref
}
