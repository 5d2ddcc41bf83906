package inference

import (
	"regexp"

	"github.com/shipkey/shipkey/internal/config"
)

// SignalKind selects which Signals list a PermissionRule is matched against.
type SignalKind string

const (
	KindDependency SignalKind = "dependency"
	KindBinding    SignalKind = "binding"
	KindCommand    SignalKind = "ci"
)

// Signals are the project facts permission hints are derived from.
type Signals struct {
	Dependencies []string
	Bindings     []string
	CICommands   []string
}

// PermissionRule attaches Permission to Provider when Match hits a signal.
type PermissionRule struct {
	Provider   string
	Kind       SignalKind
	Match      *regexp.Regexp
	Permission string
}

func perm(provider string, kind SignalKind, pattern, permission string) PermissionRule {
	return PermissionRule{
		Provider:   provider,
		Kind:       kind,
		Match:      regexp.MustCompile(pattern),
		Permission: permission,
	}
}

// DefaultPermissionRules returns the built-in hint table.
func DefaultPermissionRules() []PermissionRule {
	return []PermissionRule{
		perm("OpenAI", KindDependency, `^(openai|@ai-sdk/openai|langchain-openai|github\.com/sashabaranov/go-openai)$`,
			"Model capabilities: write (chat, embeddings)"),
		perm("Anthropic", KindDependency, `^(@anthropic-ai/sdk|anthropic|@ai-sdk/anthropic|github\.com/anthropics/anthropic-sdk-go)$`,
			"Workspace API key with Messages access"),
		perm("Google AI", KindDependency, `^(@google/generative-ai|@google/genai|google-generativeai|@ai-sdk/google)$`,
			"Generative Language API enabled on the key's project"),
		perm("Stripe", KindDependency, `^(stripe|@stripe/stripe-js|github\.com/stripe/stripe-go.*)$`,
			"Restricted key: Charges, Customers and Checkout Sessions write"),
		perm("Stripe", KindCommand, `stripe (listen|trigger)`,
			"Webhook endpoints: write"),
		perm("GitHub", KindDependency, `^(@octokit/.+|octokit|github\.com/google/go-github.*)$`,
			"Repository contents: read"),
		perm("GitHub", KindCommand, `gh release`,
			"Repository contents: write"),
		perm("GitHub", KindCommand, `gh pr`,
			"Pull requests: write"),
		perm("Cloudflare", KindBinding, `^kv_namespaces$`, "Workers KV Storage: Edit"),
		perm("Cloudflare", KindBinding, `^r2_buckets$`, "Workers R2 Storage: Edit"),
		perm("Cloudflare", KindBinding, `^d1_databases$`, "D1: Edit"),
		perm("Cloudflare", KindBinding, `^queues$`, "Queues: Edit"),
		perm("Cloudflare", KindBinding, `^ai$`, "Workers AI: Read"),
		perm("Cloudflare", KindBinding, `^vectorize$`, "Vectorize: Edit"),
		perm("Cloudflare", KindBinding, `^durable_objects$`, "Workers Scripts: Edit"),
		perm("Cloudflare", KindBinding, `^hyperdrive$`, "Hyperdrive: Edit"),
		perm("Cloudflare", KindBinding, `^browser$`, "Browser Rendering: Edit"),
		perm("Cloudflare", KindCommand, `wrangler (deploy|publish)`, "Workers Scripts: Edit"),
		perm("Cloudflare", KindCommand, `wrangler pages`, "Cloudflare Pages: Edit"),
		perm("Cloudflare", KindDependency, `^wrangler$`, "Workers Scripts: Edit"),
		perm("AWS", KindDependency, `^(@aws-sdk/client-s3|github\.com/aws/aws-sdk-go-v2/service/s3)$`,
			"IAM policy: s3:GetObject, s3:PutObject on the app bucket"),
		perm("AWS", KindDependency, `^(boto3|aws-sdk|github\.com/aws/aws-sdk-go-v2)$`,
			"IAM user scoped to the services the app calls"),
		perm("AWS", KindCommand, `aws s3 (sync|cp)`,
			"IAM policy: s3:PutObject on the deploy bucket"),
		perm("Supabase", KindDependency, `^(@supabase/.+|supabase)$`,
			"Service role key only on the server; anon key in clients"),
		perm("Resend", KindDependency, `^(resend|@react-email/.+)$`, "Sending access"),
		perm("Sentry", KindDependency, `^(@sentry/.+|sentry-sdk|github\.com/getsentry/sentry-go)$`,
			"Auth token scope: project:releases"),
		perm("Sentry", KindCommand, `sentry-cli`, "Auth token scope: project:releases, org:read"),
		perm("Vercel", KindCommand, `\bvercel\b`, "Token scoped to the deploying team"),
		perm("Twilio", KindDependency, `^twilio$`, "Standard API key"),
		perm("SendGrid", KindDependency, `^(@sendgrid/mail|sendgrid)$`, "Restricted key: Mail Send"),
		perm("Clerk", KindDependency, `^@clerk/.+$`, "Secret key for the instance"),
		perm("Upstash", KindDependency, `^@upstash/.+$`, "Database REST token (read-only if the app only reads)"),
		perm("Database", KindDependency,
			`^(pg|postgres|mysql2?|mongodb|mongoose|redis|ioredis|prisma|@prisma/client|drizzle-orm|psycopg2(-binary)?|sqlalchemy|github\.com/lib/pq|github\.com/jackc/pgx/v5|github\.com/go-sql-driver/mysql)$`,
			"Application role without superuser or DDL rights"),
	}
}

// Inferencer attaches permission hints using a fixed rule table.
type Inferencer struct {
	rules []PermissionRule
}

// NewInferencer copies rules.
func NewInferencer(rules []PermissionRule) *Inferencer {
	return &Inferencer{rules: append([]PermissionRule(nil), rules...)}
}

// InferPermissions annotates providers using DefaultPermissionRules.
func InferPermissions(providers map[string]config.ProviderConfig, signals Signals) {
	NewInferencer(DefaultPermissionRules()).Infer(providers, signals)
}

// Infer attaches hints in place. Only providers already present in the map
// are touched and fields are never changed. A permission is attached once
// per provider; the first matching signal becomes its source.
func (in *Inferencer) Infer(providers map[string]config.ProviderConfig, signals Signals) {
	for _, r := range in.rules {
		pc, ok := providers[r.Provider]
		if !ok {
			continue
		}
		source, matched := r.firstMatch(signals)
		if !matched || hasPermission(pc.Permissions, r.Permission) {
			continue
		}
		pc.Permissions = append(pc.Permissions, config.Permission{
			Permission: r.Permission,
			Source:     source,
		})
		providers[r.Provider] = pc
	}
}

func (r PermissionRule) firstMatch(signals Signals) (string, bool) {
	switch r.Kind {
	case KindDependency:
		for _, dep := range signals.Dependencies {
			if r.Match.MatchString(dep) {
				return "dependency:" + dep, true
			}
		}
	case KindBinding:
		for _, b := range signals.Bindings {
			if r.Match.MatchString(b) {
				return "binding:" + b, true
			}
		}
	case KindCommand:
		for _, cmd := range signals.CICommands {
			if m := r.Match.FindString(cmd); m != "" {
				return "ci:" + m, true
			}
		}
	}
	return "", false
}

func hasPermission(perms []config.Permission, permission string) bool {
	for _, p := range perms {
		if p.Permission == permission {
			return true
		}
	}
	return false
}
