package targets

// NameGitHub is the registry name of the GitHub repository secrets target.
const NameGitHub = "github"

// NewGitHub sets repository secrets with 'gh secret set'. Destinations are
// "owner/repo".
func NewGitHub(deps Deps) Target {
	deps = deps.withDefaults()
	return &cliTarget{
		name:     NameGitHub,
		binary:   "gh",
		authArgs: []string{"auth", "status"},
		hint:     "Install the GitHub CLI: https://cli.github.com/ then run: gh auth login",
		setArgs: func(name, destination string) []string {
			return []string{"secret", "set", name, "--repo", destination}
		},
		logger:   deps.Logger,
		executor: deps.Executor,
	}
}
