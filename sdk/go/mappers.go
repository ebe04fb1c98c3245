package julsdk

// Mapper converts one decoded JSON value into a typed entity. Mappers never
// fail: missing or mistyped fields come back as absent.
type Mapper[T any] func(input any) T

// MapArray applies mapItem to every element of input. Anything that is not
// a JSON array yields an empty slice.
func MapArray[T any](input any, mapItem Mapper[T]) []T {
	items, ok := input.([]any)
	if !ok {
		return []T{}
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, mapItem(item))
	}
	return out
}

// NormalizePaginated accepts either a bare list or an {items,total,limit,offset}
// envelope and returns the canonical page.
func NormalizePaginated[T any](input any, mapItem Mapper[T]) Page[T] {
	if _, ok := input.([]any); ok {
		items := MapArray(input, mapItem)
		return Page[T]{
			Items:  items,
			Total:  len(items),
			Limit:  len(items),
			Offset: 0,
		}
	}

	data := asRecord(input)
	items := MapArray(data["items"], mapItem)
	page := Page[T]{
		Items:  items,
		Total:  len(items),
		Limit:  len(items),
		Offset: 0,
	}
	if n, ok := data.number("total"); ok {
		page.Total = n
	}
	if n, ok := data.number("limit"); ok {
		page.Limit = n
	}
	if n, ok := data.number("offset"); ok {
		page.Offset = n
	}
	return page
}

func MapRepo(input any) Repo {
	r := asRecord(input)
	return Repo{
		ID:            r.str("id"),
		Name:          r.str("name"),
		Description:   r.optStr("description"),
		Visibility:    Visibility(r.str("visibility")),
		DefaultBranch: r.str("default_branch", "defaultBranch"),
		CreatedAt:     r.str("created_at", "createdAt"),
		UpdatedAt:     r.str("updated_at", "updatedAt"),
	}
}

func MapWorkspace(input any) Workspace {
	r := asRecord(input)
	return Workspace{
		ID:         r.str("id"),
		User:       r.str("user"),
		Name:       r.str("name"),
		RepoID:     r.str("repo_id", "repoId"),
		Ref:        r.str("ref"),
		HeadCommit: r.str("head_commit", "headCommit"),
		SyncedAt:   r.str("synced_at", "syncedAt"),
	}
}

func MapRevision(input any) Revision {
	r := asRecord(input)
	return Revision{
		RevIndex:  r.integer("rev_index", "revIndex"),
		CommitSha: r.str("commit_sha", "commitSha"),
		CreatedAt: r.str("created_at", "createdAt"),
	}
}

func MapChange(input any) Change {
	r := asRecord(input)
	c := Change{
		ChangeID:  r.str("change_id", "changeId"),
		Title:     r.str("title"),
		Author:    r.str("author"),
		CreatedAt: r.str("created_at", "createdAt"),
		Revisions: MapArray(r.list("revisions"), MapRevision),
		Status:    ChangeStatus(r.str("status")),
	}
	if latest := r.sub("latest_revision", "latestRevision"); latest != nil {
		rev := MapRevision(latest)
		c.LatestRevision = &rev
	}
	return c
}

func MapCommit(input any) Commit {
	r := asRecord(input)
	return Commit{
		Sha:         r.str("sha"),
		ChangeID:    r.optStr("change_id", "changeId"),
		TreeSha:     r.str("tree_sha", "treeSha"),
		Author:      r.str("author"),
		AuthorEmail: r.str("author_email", "authorEmail"),
		Message:     r.str("message"),
		CreatedAt:   r.str("created_at", "createdAt"),
	}
}

func mapArtifact(input any) Artifact {
	r := asRecord(input)
	return Artifact{
		Name: r.str("name"),
		URI:  r.str("uri"),
	}
}

func mapTestFailure(input any) TestFailure {
	r := asRecord(input)
	return TestFailure{
		Name:       r.str("name"),
		File:       r.str("file"),
		Line:       r.integer("line"),
		Message:    r.str("message"),
		StackTrace: r.optStr("stack_trace", "stackTrace"),
	}
}

func mapSignals(r record) Signals {
	var s Signals
	if f := r.sub("format"); f != nil {
		s.Format = &FormatSignal{
			Status:  SignalStatus(f.str("status")),
			Message: f.optStr("message"),
			Files:   f.strings("files"),
		}
	}
	if l := r.sub("lint"); l != nil {
		s.Lint = &LintSignal{
			Status:   SignalStatus(l.str("status")),
			Message:  l.optStr("message"),
			Warnings: l.integer("warnings"),
			Errors:   l.integer("errors"),
		}
	}
	if c := r.sub("compile"); c != nil {
		s.Compile = &CompileSignal{
			Status:     SignalStatus(c.str("status")),
			Message:    c.optStr("message"),
			DurationMs: c.integer("duration_ms", "durationMs"),
		}
	}
	if t := r.sub("test"); t != nil {
		s.Test = &TestSignal{
			Status:   SignalStatus(t.str("status")),
			Message:  t.optStr("message"),
			Passed:   t.integer("passed"),
			Failed:   t.integer("failed"),
			Skipped:  t.integer("skipped"),
			Failures: MapArray(t.list("failures"), mapTestFailure),
		}
	}
	if c := r.sub("coverage"); c != nil {
		s.Coverage = &CoverageSignal{
			Status:         SignalStatus(c.str("status")),
			Message:        c.optStr("message"),
			LinePct:        c.float("line_pct", "linePct"),
			BranchPct:      c.float("branch_pct", "branchPct"),
			DiffLinePct:    c.optFloat("diff_line_pct", "diffLinePct"),
			UncoveredLines: c.lineMap("uncovered_lines", "uncoveredLines"),
		}
	}
	return s
}

func MapAttestation(input any) Attestation {
	r := asRecord(input)
	signals := r.sub("signals")
	if signals == nil {
		signals = record{}
	}
	return Attestation{
		AttestationID: r.str("attestation_id", "attestationId"),
		CommitSha:     r.str("commit_sha", "commitSha"),
		ChangeID:      r.optStr("change_id", "changeId"),
		Type:          r.str("type"),
		Status:        AttestationStatus(r.str("status")),
		Signals:       mapSignals(signals),
		Artifacts:     MapArray(r.list("artifacts"), mapArtifact),
		LogExcerpt:    r.optStr("log_excerpt", "logExcerpt"),
		StartedAt:     r.str("started_at", "startedAt"),
		FinishedAt:    r.optStr("finished_at", "finishedAt"),
		CreatedAt:     r.str("created_at", "createdAt"),
	}
}

func MapSuggestion(input any) Suggestion {
	r := asRecord(input)
	diffstat := r.sub("diffstat")
	if diffstat == nil {
		diffstat = record{}
	}
	return Suggestion{
		SuggestionID:       r.str("suggestion_id", "suggestionId"),
		ChangeID:           r.str("change_id", "changeId"),
		BaseCommitSha:      r.str("base_commit_sha", "baseCommitSha"),
		SuggestedCommitSha: r.str("suggested_commit_sha", "suggestedCommitSha"),
		CreatedBy:          r.str("created_by", "createdBy"),
		CreatedAt:          r.str("created_at", "createdAt"),
		Reason:             r.str("reason"),
		Description:        r.str("description"),
		Confidence:         r.float("confidence"),
		Status:             SuggestionStatus(r.str("status")),
		Diffstat: Diffstat{
			FilesChanged: diffstat.integer("files_changed", "filesChanged"),
			Additions:    diffstat.integer("additions"),
			Deletions:    diffstat.integer("deletions"),
		},
	}
}

// MapFileNode maps a tree entry; directories are mapped recursively.
func MapFileNode(input any) FileNode {
	r := asRecord(input)
	n := FileNode{
		Name: r.str("name"),
		Path: r.str("path"),
		Type: FileType(r.str("type")),
		Size: r.optInt("size"),
	}
	if children, ok := r.lookup("children"); ok {
		n.Children = MapArray(children, MapFileNode)
	}
	return n
}

func MapFileContent(input any) FileContent {
	r := asRecord(input)
	return FileContent{
		Path:     r.str("path"),
		Content:  r.str("content"),
		Encoding: Encoding(r.str("encoding")),
		Size:     r.integer("size"),
		Language: r.optStr("language"),
	}
}

func MapFileHistoryEntry(input any) FileHistoryEntry {
	r := asRecord(input)
	return FileHistoryEntry{
		CommitSha:  r.str("commit_sha", "commitSha"),
		ChangeID:   r.optStr("change_id", "changeId"),
		Author:     r.str("author"),
		Message:    r.str("message"),
		CreatedAt:  r.str("created_at", "createdAt"),
		ChangeType: ChangeType(r.str("change_type", "changeType")),
	}
}

func MapJulEvent(input any) JulEvent {
	r := asRecord(input)
	return JulEvent{
		EventID:       r.str("event_id", "eventId"),
		Type:          EventType(r.str("type")),
		Repo:          r.str("repo"),
		Ref:           r.optStr("ref"),
		CommitSha:     r.optStr("commit_sha", "commitSha"),
		ChangeID:      r.optStr("change_id", "changeId"),
		Summary:       r.optStr("summary"),
		AttestationID: r.optStr("attestation_id", "attestationId"),
		CreatedAt:     r.str("created_at", "createdAt"),
	}
}

func MapPromoteResponse(input any) PromoteResponse {
	r := asRecord(input)
	return PromoteResponse{
		Success:   r.boolean("success"),
		Ref:       r.str("ref"),
		CommitSha: r.str("commit_sha", "commitSha"),
	}
}

func MapCIJob(input any) CIJob {
	r := asRecord(input)
	return CIJob{
		JobID: r.str("job_id", "jobId"),
	}
}

func mapPolicyViolation(input any) PolicyViolation {
	r := asRecord(input)
	return PolicyViolation{
		Check:   r.str("check"),
		Status:  SignalStatus(r.str("status")),
		Message: r.str("message"),
	}
}
