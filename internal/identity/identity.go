// Package identity parses the URL forms a user may paste in (canonical
// GitHub URLs, git+ prefixed URLs, owner/repo shorthand, tree/subdir URLs)
// into a normalized, immutable Repo Identity.
//
// The parsing rules are adapted from the teacher's provider-detection
// pattern (internal/core/providers in the reference repo): a small set of
// regexes tried in order of specificity, falling back to a generic form.
package identity

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Identity is the normalized, immutable description of a source repository
// plus the ref/subdir the caller asked for. See spec §3 "Repo Identity".
type Identity struct {
	Owner      string
	Repo       string
	Ref        string
	Subdir     string
	SourceURL  string
	ArchiveURL string
}

// InvalidURLError is returned when Parse cannot make sense of the input.
type InvalidURLError struct {
	Input  string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("Error: Invalid repository URL %q\n  Context: %s\n  Fix: Use a github.com URL, \"owner/repo\", or \"owner/repo#ref\"", e.Input, e.Reason)
}

var (
	treeRe     = regexp.MustCompile(`^github\.com/([^/]+)/([^/]+?)(?:\.git)?/(tree|blob)/([^/]+)(?:/(.*))?$`)
	shorthandRe = regexp.MustCompile(`^([^/#\s]+)/([^/#\s]+?)(?:\.git)?(?:#(.+))?$`)
)

// MutableRef reports whether ref is anything other than a full or
// abbreviated (7-40 char) hex commit SHA.
func MutableRef(ref string) bool {
	matched, _ := regexp.MatchString(`^[0-9a-fA-F]{7,40}$`, ref)
	return !matched
}

// Parse converts user input into a Repo Identity, or InvalidURLError.
func Parse(input string) (Identity, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Identity{}, &InvalidURLError{Input: input, Reason: "empty input"}
	}

	trimmed = strings.TrimPrefix(trimmed, "git+")

	switch {
	case strings.HasPrefix(trimmed, "github:"):
		return parseShorthand(strings.TrimPrefix(trimmed, "github:"), input)
	case strings.Contains(trimmed, "github.com"):
		return parseGitHubURL(trimmed, input)
	case strings.Contains(trimmed, "://"):
		return Identity{}, &InvalidURLError{Input: input, Reason: "host is not github.com"}
	default:
		// No recognizable scheme and no github.com host: treat as the
		// "owner/repo[.git][#ref]" shorthand form.
		return parseShorthand(trimmed, input)
	}
}

func parseGitHubURL(trimmed, original string) (Identity, error) {
	stripped := trimmed
	for _, prefix := range []string{"https://", "http://"} {
		stripped = strings.TrimPrefix(stripped, prefix)
	}

	if m := treeRe.FindStringSubmatch(stripped); m != nil {
		owner, repo, ref := m[1], strings.TrimSuffix(m[2], ".git"), m[4]
		subdir := ""
		if len(m) > 5 && m[5] != "" {
			segs := strings.Split(m[5], "/")
			decoded := make([]string, 0, len(segs))
			for _, s := range segs {
				d, err := url.PathUnescape(s)
				if err != nil {
					d = s
				}
				decoded = append(decoded, d)
			}
			subdir = strings.Join(decoded, "/")
		}
		return build(owner, repo, ref, subdir, original)
	}

	// Plain repository URL: github.com/owner/repo[.git][/][#ref]
	rest := strings.TrimPrefix(stripped, "github.com/")
	rest = strings.TrimSuffix(rest, "/")
	ref := "HEAD"
	if idx := strings.Index(rest, "#"); idx >= 0 {
		ref = rest[idx+1:]
		rest = rest[:idx]
	}
	segs := strings.SplitN(rest, "/", 2)
	if len(segs) < 2 || segs[0] == "" || segs[1] == "" {
		return Identity{}, &InvalidURLError{Input: original, Reason: "fewer than two path segments"}
	}
	owner := segs[0]
	repo := strings.TrimSuffix(segs[1], ".git")
	// A plain URL may still have trailing segments we don't understand as
	// tree/blob (e.g. "/issues") — only owner/repo is meaningful here.
	repo = strings.SplitN(repo, "/", 2)[0]
	return build(owner, repo, ref, "", original)
}

func parseShorthand(rest, original string) (Identity, error) {
	m := shorthandRe.FindStringSubmatch(rest)
	if m == nil {
		return Identity{}, &InvalidURLError{Input: original, Reason: "expected owner/repo[#ref]"}
	}
	owner, repo, ref := m[1], m[2], m[3]
	if ref == "" {
		ref = "HEAD"
	}
	return build(owner, repo, ref, "", original)
}

func build(owner, repo, ref, subdir, original string) (Identity, error) {
	if owner == "" || repo == "" {
		return Identity{}, &InvalidURLError{Input: original, Reason: "owner or repo segment is empty"}
	}
	if ref == "" {
		ref = "HEAD"
	}
	return Identity{
		Owner:      owner,
		Repo:       repo,
		Ref:        ref,
		Subdir:     strings.Trim(subdir, "/"),
		SourceURL:  fmt.Sprintf("https://github.com/%s/%s", owner, repo),
		ArchiveURL: fmt.Sprintf("https://codeload.github.com/%s/%s/tar.gz/%s", owner, repo, url.PathEscape(ref)),
	}, nil
}
