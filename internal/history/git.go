package history

import (
	"bytes"
	"os/exec"
	"strings"
	"time"
)

// ResolveGitMetadata reads the origin remote URL, short commit hash, and
// commit time of HEAD. Outside a repository, or without git installed,
// everything degrades to zero values; a scan never fails on missing git.
func ResolveGitMetadata(projectRoot string) (remote, commitHash string, commitTime time.Time) {
	remote = runGit(projectRoot, "remote", "get-url", "origin")
	commitHash = runGit(projectRoot, "rev-parse", "--short=12", "HEAD")
	commitTimeRaw := runGit(projectRoot, "show", "-s", "--format=%cI", "HEAD")
	if commitHash == "" || commitTimeRaw == "" {
		return remote, commitHash, time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, commitTimeRaw)
	if err != nil {
		return remote, commitHash, time.Time{}
	}
	return remote, commitHash, parsed.UTC()
}

func runGit(projectRoot string, args ...string) string {
	cmd := exec.Command("git", append([]string{"-C", projectRoot}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(stdout.String())
}
