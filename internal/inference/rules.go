package inference

// DefaultRules returns the built-in provider table in match order.
func DefaultRules() []Rule {
	return []Rule{
		rule("OpenAI", "https://platform.openai.com/api-keys",
			"Create a project API key under API keys.", `OPENAI`),
		rule("Anthropic", "https://console.anthropic.com/settings/keys",
			"Create a key under Settings > API Keys.", `ANTHROPIC`, `CLAUDE`),
		rule("OpenRouter", "https://openrouter.ai/keys", "", `OPENROUTER`),
		rule("Google AI", "https://aistudio.google.com/app/apikey",
			"Create an API key in Google AI Studio.", `GEMINI`, `GOOGLE_AI`, `GOOGLE_GENERATIVE`),
		rule("Stripe", "https://dashboard.stripe.com/apikeys",
			"Use a restricted key where possible.", `STRIPE`),
		rule("GitHub", "https://github.com/settings/tokens",
			"Prefer a fine-grained personal access token.", `GITHUB`, `^GH_`),
		rule("Cloudflare", "https://dash.cloudflare.com/profile/api-tokens",
			"Create a custom API token scoped to the account.", `CLOUDFLARE`, `^CF_`),
		rule("AWS", "https://console.aws.amazon.com/iam/home#/security_credentials", "", `^AWS_`),
		rule("Supabase", "https://supabase.com/dashboard/project/_/settings/api", "", `SUPABASE`),
		rule("Resend", "https://resend.com/api-keys", "", `RESEND`),
		rule("Sentry", "https://sentry.io/settings/account/api/auth-tokens/", "", `SENTRY`),
		rule("Vercel", "https://vercel.com/account/tokens", "", `VERCEL`),
		rule("Twilio", "https://console.twilio.com", "", `TWILIO`),
		rule("SendGrid", "https://app.sendgrid.com/settings/api_keys", "", `SENDGRID`),
		rule("Clerk", "https://dashboard.clerk.com", "", `CLERK`),
		rule("Upstash", "https://console.upstash.com", "", `UPSTASH`),
		rule("Database", "", "", `DATABASE`, `POSTGRES`, `MYSQL`, `MONGO`, `REDIS`, `^DB_`),
	}
}
