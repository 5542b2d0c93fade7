package history

import (
	"testing"
)

func TestResolveGitMetadataOutsideRepo(t *testing.T) {
	remote, commitHash, commitTime := ResolveGitMetadata(t.TempDir())
	if remote != "" || commitHash != "" {
		t.Errorf("expected empty metadata outside a repository, got remote=%q commit=%q", remote, commitHash)
	}
	if !commitTime.IsZero() {
		t.Errorf("expected zero commit time outside a repository, got %v", commitTime)
	}
}
