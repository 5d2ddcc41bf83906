package targets

// NameCloudflare is the registry name of the Cloudflare Workers secrets target.
const NameCloudflare = "cloudflare"

// NewCloudflare sets worker secrets with 'wrangler secret put'. Destinations
// are worker names.
func NewCloudflare(deps Deps) Target {
	deps = deps.withDefaults()
	return &cliTarget{
		name:     NameCloudflare,
		binary:   "wrangler",
		authArgs: []string{"whoami"},
		hint:     "Install wrangler: npm install -g wrangler then run: wrangler login",
		setArgs: func(name, destination string) []string {
			return []string{"secret", "put", name, "--name", destination}
		},
		logger:   deps.Logger,
		executor: deps.Executor,
	}
}
