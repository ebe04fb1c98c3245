package julsdk

// Visibility of a repository.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ChangeStatus is the lifecycle state of a change.
type ChangeStatus string

const (
	ChangeDraft     ChangeStatus = "draft"
	ChangeReady     ChangeStatus = "ready"
	ChangePublished ChangeStatus = "published"
	ChangeAbandoned ChangeStatus = "abandoned"
)

// AttestationStatus is the overall state of a CI attestation.
type AttestationStatus string

const (
	AttestationRunning AttestationStatus = "running"
	AttestationPass    AttestationStatus = "pass"
	AttestationFail    AttestationStatus = "fail"
	AttestationError   AttestationStatus = "error"
)

// SignalStatus is the state of one attestation signal.
type SignalStatus string

const (
	SignalPass     SignalStatus = "pass"
	SignalFail     SignalStatus = "fail"
	SignalWarn     SignalStatus = "warn"
	SignalComplete SignalStatus = "complete"
)

type SuggestionStatus string

const (
	SuggestionOpen       SuggestionStatus = "open"
	SuggestionAccepted   SuggestionStatus = "accepted"
	SuggestionRejected   SuggestionStatus = "rejected"
	SuggestionSuperseded SuggestionStatus = "superseded"
)

type FileType string

const (
	FileTypeFile      FileType = "file"
	FileTypeDirectory FileType = "directory"
)

type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingBase64 Encoding = "base64"
)

type ChangeType string

const (
	ChangeTypeAdd    ChangeType = "add"
	ChangeTypeModify ChangeType = "modify"
	ChangeTypeDelete ChangeType = "delete"
	ChangeTypeRename ChangeType = "rename"
)

// CIProfile selects which checks a triggered CI run executes.
type CIProfile string

const (
	CIProfileUnit CIProfile = "unit"
	CIProfileFull CIProfile = "full"
	CIProfileLint CIProfile = "lint"
)

// EventType is the kind of a streamed JulEvent.
type EventType string

const (
	EventRefUpdated        EventType = "ref.updated"
	EventCIStarted         EventType = "ci.started"
	EventCIFinished        EventType = "ci.finished"
	EventAttestationAdded  EventType = "attestation.added"
	EventSuggestionCreated EventType = "suggestion.created"
	EventPolicyViolation   EventType = "policy.violation"
	EventCheckpointCreated EventType = "checkpoint.created"
	EventPromoteApplied    EventType = "promote.applied"
)

// Known reports whether t is one of the event kinds the server emits.
func (t EventType) Known() bool {
	switch t {
	case EventRefUpdated, EventCIStarted, EventCIFinished, EventAttestationAdded,
		EventSuggestionCreated, EventPolicyViolation, EventCheckpointCreated, EventPromoteApplied:
		return true
	}
	return false
}

// Repo is a hosted repository.
type Repo struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description,omitempty"`
	Visibility    Visibility `json:"visibility"`
	DefaultBranch string     `json:"defaultBranch"`
	CreatedAt     string     `json:"createdAt"`
	UpdatedAt     string     `json:"updatedAt"`
}

// Workspace is one synced working copy of a repository.
type Workspace struct {
	ID         string `json:"id"`
	User       string `json:"user"`
	Name       string `json:"name"`
	RepoID     string `json:"repoId"`
	Ref        string `json:"ref"`
	HeadCommit string `json:"headCommit"`
	SyncedAt   string `json:"syncedAt"`
}

// Revision is one snapshot of a change.
type Revision struct {
	RevIndex  int    `json:"revIndex"`
	CommitSha string `json:"commitSha"`
	CreatedAt string `json:"createdAt"`
}

// Change is a logical unit of work identified by a Change-Id that survives
// amend and rebase.
type Change struct {
	ChangeID       string       `json:"changeId"`
	Title          string       `json:"title"`
	Author         string       `json:"author"`
	CreatedAt      string       `json:"createdAt"`
	LatestRevision *Revision    `json:"latestRevision,omitempty"`
	Revisions      []Revision   `json:"revisions"`
	Status         ChangeStatus `json:"status"`
}

// Latest returns the latest revision, falling back to the last entry of
// Revisions when the server did not send one.
func (c Change) Latest() (Revision, bool) {
	if c.LatestRevision != nil {
		return *c.LatestRevision, true
	}
	if n := len(c.Revisions); n > 0 {
		return c.Revisions[n-1], true
	}
	return Revision{}, false
}

type Commit struct {
	Sha         string  `json:"sha"`
	ChangeID    *string `json:"changeId,omitempty"`
	TreeSha     string  `json:"treeSha"`
	Author      string  `json:"author"`
	AuthorEmail string  `json:"authorEmail"`
	Message     string  `json:"message"`
	CreatedAt   string  `json:"createdAt"`
}

type FormatSignal struct {
	Status  SignalStatus `json:"status"`
	Message *string      `json:"message,omitempty"`
	Files   []string     `json:"files,omitempty"`
}

type LintSignal struct {
	Status   SignalStatus `json:"status"`
	Message  *string      `json:"message,omitempty"`
	Warnings int          `json:"warnings"`
	Errors   int          `json:"errors"`
}

type CompileSignal struct {
	Status     SignalStatus `json:"status"`
	Message    *string      `json:"message,omitempty"`
	DurationMs int          `json:"durationMs"`
}

type TestFailure struct {
	Name       string  `json:"name"`
	File       string  `json:"file"`
	Line       int     `json:"line"`
	Message    string  `json:"message"`
	StackTrace *string `json:"stackTrace,omitempty"`
}

type TestSignal struct {
	Status   SignalStatus  `json:"status"`
	Message  *string       `json:"message,omitempty"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Failures []TestFailure `json:"failures"`
}

type CoverageSignal struct {
	Status         SignalStatus     `json:"status"`
	Message        *string          `json:"message,omitempty"`
	LinePct        float64          `json:"linePct"`
	BranchPct      float64          `json:"branchPct"`
	DiffLinePct    *float64         `json:"diffLinePct,omitempty"`
	UncoveredLines map[string][]int `json:"uncoveredLines,omitempty"`
}

// Signals holds the independent sub-results of an attestation. A nil field
// means the server did not report that signal.
type Signals struct {
	Format   *FormatSignal   `json:"format,omitempty"`
	Lint     *LintSignal     `json:"lint,omitempty"`
	Compile  *CompileSignal  `json:"compile,omitempty"`
	Test     *TestSignal     `json:"test,omitempty"`
	Coverage *CoverageSignal `json:"coverage,omitempty"`
}

type Artifact struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Attestation is a CI result attached to a commit.
type Attestation struct {
	AttestationID string            `json:"attestationId"`
	CommitSha     string            `json:"commitSha"`
	ChangeID      *string           `json:"changeId,omitempty"`
	Type          string            `json:"type"`
	Status        AttestationStatus `json:"status"`
	Signals       Signals           `json:"signals"`
	Artifacts     []Artifact        `json:"artifacts"`
	LogExcerpt    *string           `json:"logExcerpt,omitempty"`
	StartedAt     string            `json:"startedAt"`
	FinishedAt    *string           `json:"finishedAt,omitempty"`
	CreatedAt     string            `json:"createdAt"`
}

type Diffstat struct {
	FilesChanged int `json:"filesChanged"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
}

// Suggestion is an agent-proposed alternative commit for a change.
// Confidence is reported by the server and is not range-checked.
type Suggestion struct {
	SuggestionID       string           `json:"suggestionId"`
	ChangeID           string           `json:"changeId"`
	BaseCommitSha      string           `json:"baseCommitSha"`
	SuggestedCommitSha string           `json:"suggestedCommitSha"`
	CreatedBy          string           `json:"createdBy"`
	CreatedAt          string           `json:"createdAt"`
	Reason             string           `json:"reason"`
	Description        string           `json:"description"`
	Confidence         float64          `json:"confidence"`
	Status             SuggestionStatus `json:"status"`
	Diffstat           Diffstat         `json:"diffstat"`
}

type FileNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     FileType   `json:"type"`
	Size     *int       `json:"size,omitempty"`
	Children []FileNode `json:"children,omitempty"`
}

type FileContent struct {
	Path     string   `json:"path"`
	Content  string   `json:"content"`
	Encoding Encoding `json:"encoding"`
	Size     int      `json:"size"`
	Language *string  `json:"language,omitempty"`
}

type FileHistoryEntry struct {
	CommitSha  string     `json:"commitSha"`
	ChangeID   *string    `json:"changeId,omitempty"`
	Author     string     `json:"author"`
	Message    string     `json:"message"`
	CreatedAt  string     `json:"createdAt"`
	ChangeType ChangeType `json:"changeType"`
}

// JulEvent is one message of the repository event stream.
type JulEvent struct {
	EventID       string    `json:"eventId"`
	Type          EventType `json:"type"`
	Repo          string    `json:"repo"`
	Ref           *string   `json:"ref,omitempty"`
	CommitSha     *string   `json:"commitSha,omitempty"`
	ChangeID      *string   `json:"changeId,omitempty"`
	Summary       *string   `json:"summary,omitempty"`
	AttestationID *string   `json:"attestationId,omitempty"`
	CreatedAt     string    `json:"createdAt"`
}

// Page is the canonical paginated list envelope.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type PromoteResponse struct {
	Success   bool   `json:"success"`
	Ref       string `json:"ref"`
	CommitSha string `json:"commitSha"`
}

// CIJob identifies a triggered CI run.
type CIJob struct {
	JobID string `json:"jobId"`
}

// PolicyViolation is one failed check reported when a promotion is blocked.
type PolicyViolation struct {
	Check   string       `json:"check"`
	Status  SignalStatus `json:"status"`
	Message string       `json:"message"`
}
