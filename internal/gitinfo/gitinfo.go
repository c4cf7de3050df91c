// Package gitinfo reads repository facts that end up in page metadata: the
// browsable remote URL, the HEAD commit and the current branch.
package gitinfo

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Info describes the repository a build runs in.
type Info struct {
	URL    string `json:"repo_url,omitempty" yaml:"repo_url,omitempty"`
	Commit string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// IsZero reports whether nothing was detected.
func (i Info) IsZero() bool { return i == Info{} }

// Fields returns the non-empty values keyed like the JSON form, for sidecars.
func (i Info) Fields() map[string]any {
	out := make(map[string]any, 3)
	if i.URL != "" {
		out["repo_url"] = i.URL
	}
	if i.Commit != "" {
		out["commit"] = i.Commit
	}
	if i.Branch != "" {
		out["branch"] = i.Branch
	}
	return out
}

// Detect opens the repository containing path, searching parent directories
// for .git. remote selects the remote whose first URL is reported; "" means
// origin. A repository without commits or remotes yields a partial Info.
func Detect(path, remote string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Info{}, fmt.Errorf("open repository: %w", err)
	}
	if remote == "" {
		remote = git.DefaultRemoteName
	}

	var info Info
	if r, err := repo.Remote(remote); err == nil && len(r.Config().URLs) > 0 {
		info.URL = BrowseURL(r.Config().URLs[0])
	} else if err != nil && !errors.Is(err, git.ErrRemoteNotFound) {
		return Info{}, fmt.Errorf("read remote %s: %w", remote, err)
	}

	head, err := repo.Head()
	switch {
	case err == nil:
		info.Commit = head.Hash().String()
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		}
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// unborn HEAD
	default:
		return Info{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	return info, nil
}

// BrowseURL turns a clone URL into the https form a reader can open:
// scp-style and ssh URLs are rewritten, credentials and ".git" dropped.
func BrowseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// git@host:owner/repo.git
	if !strings.Contains(raw, "://") {
		if at := strings.Index(raw, "@"); at >= 0 {
			raw = raw[at+1:]
		}
		if host, rest, ok := strings.Cut(raw, ":"); ok {
			return "https://" + host + "/" + strings.TrimSuffix(strings.Trim(rest, "/"), ".git")
		}
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	switch u.Scheme {
	case "ssh", "git", "git+ssh":
		u.Scheme = "https"
		u.Host = u.Hostname()
	}
	u.User = nil
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), ".git")
	return u.String()
}
