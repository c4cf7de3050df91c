package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"git@github.com:acme/docs.git", "https://github.com/acme/docs"},
		{"https://github.com/acme/docs.git", "https://github.com/acme/docs"},
		{"https://token:x@git.example.com/acme/docs/", "https://git.example.com/acme/docs"},
		{"ssh://git@git.example.com:2222/acme/docs.git", "https://git.example.com/acme/docs"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, BrowseURL(tc.in))
		})
	}
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:acme/docs.git"}})
	require.NoError(t, err)

	info, err := Detect(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/docs", info.URL)
	assert.Empty(t, info.Commit)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "Docs", Email: "docs@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)

	sub := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(sub, 0o750))
	info, err = Detect(sub, "origin")
	require.NoError(t, err)
	assert.Equal(t, hash.String(), info.Commit)
	assert.Equal(t, "main", info.Branch)
	assert.Equal(t, map[string]any{
		"repo_url": "https://github.com/acme/docs",
		"commit":   hash.String(),
		"branch":   "main",
	}, info.Fields())
}

func TestDetectOutsideRepository(t *testing.T) {
	_, err := Detect(t.TempDir(), "")
	require.Error(t, err)
}
