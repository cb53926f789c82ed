package bugreport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"

	svcErr "github.com/oggyb/roomate/internal/errors"
)

// ErrNotConfigured is returned when no tracker token or repository is set.
var ErrNotConfigured = errors.New("bug reporting is not configured")

const (
	titlePrefix  = "[Bug] "
	bugLabel     = "bug"
	emptyDetails = "_No additional details provided._"
)

// Issue is the tracker entry created for a report.
type Issue struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Reporter files user bug reports as GitHub issues.
type Reporter struct {
	client *github.Client
	owner  string
	repo   string
}

// New creates a Reporter authenticated with a personal access token.
// An empty token, owner or repo yields a Reporter that refuses every report.
func New(token, owner, repo string) *Reporter {
	if token == "" || owner == "" || repo == "" {
		return &Reporter{}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return NewWithClient(github.NewClient(httpClient), owner, repo)
}

// NewWithClient uses an already configured client.
func NewWithClient(client *github.Client, owner, repo string) *Reporter {
	return &Reporter{client: client, owner: owner, repo: repo}
}

// Configured reports whether Report can reach a tracker.
func (r *Reporter) Configured() bool {
	return r != nil && r.client != nil
}

// Report opens an issue titled "[Bug] <title>" labelled "bug".
//
// Behavior:
//   - title is trimmed and required.
//   - The body credits reporterEmail and carries the trimmed description,
//     or a placeholder when it is empty.
//
// Example:
//
//	issue, err := r.Report(ctx, "a@uw.edu", "Swipe button broken", "Nothing happens on tap")
func (r *Reporter) Report(ctx context.Context, reporterEmail, title, description string) (*Issue, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, svcErr.InvalidArgument("title is required")
	}
	if !r.Configured() {
		return nil, ErrNotConfigured
	}

	if reporterEmail == "" {
		reporterEmail = "unknown"
	}
	details := strings.TrimSpace(description)
	if details == "" {
		details = emptyDetails
	}
	body := fmt.Sprintf("**Reported by:** %s\n\n%s", reporterEmail, details)

	created, _, err := r.client.Issues.Create(ctx, r.owner, r.repo, &github.IssueRequest{
		Title:  github.String(titlePrefix + title),
		Body:   github.String(body),
		Labels: &[]string{bugLabel},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	return &Issue{Number: created.GetNumber(), URL: created.GetHTMLURL()}, nil
}
