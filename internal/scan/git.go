package scan

import (
	"context"
	"strings"

	shipexec "github.com/shipkey/shipkey/pkg/exec"
)

// GitHubRepo returns "owner/repo" for the origin remote of the repository at
// root, or "" when there is none or it is not hosted on GitHub.
func GitHubRepo(ctx context.Context, executor shipexec.CommandExecutor, root string) string {
	stdout, _, err := executor.Execute(ctx, "git", "-C", root, "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return ParseGitHubRemote(strings.TrimSpace(string(stdout)))
}

// ParseGitHubRemote extracts owner/repo from SSH or HTTPS remote URLs.
func ParseGitHubRemote(remote string) string {
	var path string
	switch {
	case strings.HasPrefix(remote, "git@github.com:"):
		path = strings.TrimPrefix(remote, "git@github.com:")
	case strings.HasPrefix(remote, "ssh://git@github.com/"):
		path = strings.TrimPrefix(remote, "ssh://git@github.com/")
	case strings.HasPrefix(remote, "https://github.com/"):
		path = strings.TrimPrefix(remote, "https://github.com/")
	default:
		return ""
	}
	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "/" + parts[1]
}
