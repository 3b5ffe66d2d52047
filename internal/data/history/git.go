package history

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// ResolveGitMetadata returns the short HEAD hash and commit time of the
// repository at projectRoot, or zero values outside a git checkout.
func ResolveGitMetadata(ctx context.Context, projectRoot string) (string, time.Time) {
	commitHash := runGit(ctx, projectRoot, "rev-parse", "--short=12", "HEAD")
	commitTimeRaw := runGit(ctx, projectRoot, "show", "-s", "--format=%cI", "HEAD")
	if commitHash == "" || commitTimeRaw == "" {
		return "", time.Time{}
	}

	commitTime, err := time.Parse(time.RFC3339, commitTimeRaw)
	if err != nil {
		return commitHash, time.Time{}
	}
	return commitHash, commitTime.UTC()
}

func runGit(ctx context.Context, projectRoot string, args ...string) string {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", projectRoot}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(stdout.String())
}
