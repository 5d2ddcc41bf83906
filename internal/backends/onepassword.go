package backends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	dserrors "github.com/shipkey/shipkey/internal/errors"
	"github.com/shipkey/shipkey/internal/logging"
	"github.com/shipkey/shipkey/pkg/backend"
	pkgexec "github.com/shipkey/shipkey/pkg/exec"
)

// NameOnePassword is the registry name of the 1Password backend.
const NameOnePassword = "onepassword"

// opCategory is the template spelling of the "API Credential" category.
const opCategory = "API_CREDENTIAL"

// OnePassword stores each provider as an item, each project-env as a
// section and each variable as a concealed field.
type OnePassword struct {
	logger   *logging.Logger
	executor pkgexec.CommandExecutor
}

// NewOnePassword creates a 1Password backend driving the op CLI.
func NewOnePassword(deps Deps) *OnePassword {
	deps = deps.withDefaults()
	return &OnePassword{logger: deps.Logger, executor: deps.Executor}
}

func (op *OnePassword) Name() string {
	return NameOnePassword
}

func (op *OnePassword) InstallHint() string {
	return "Install the 1Password CLI: https://developer.1password.com/docs/cli/get-started/"
}

// CheckStatus reports not_installed when op is missing from PATH and
// not_logged_in when 'op whoami' fails.
func (op *OnePassword) CheckStatus(ctx context.Context) backend.Status {
	if _, err := op.executor.LookPath("op"); err != nil {
		return backend.StatusNotInstalled
	}
	if _, _, err := op.run(ctx, "whoami"); err != nil {
		return backend.StatusNotLoggedIn
	}
	return backend.StatusReady
}

// BuildInlineRef returns the op:// URI for ref.
func (op *OnePassword) BuildInlineRef(ref backend.SecretRef) (string, bool) {
	return backend.OnePasswordScheme + ref.String(), true
}

// Read resolves ref with 'op read'.
func (op *OnePassword) Read(ctx context.Context, ref backend.SecretRef) (string, error) {
	uri, _ := op.BuildInlineRef(ref)
	stdout, stderr, err := op.run(ctx, "read", uri)
	if err != nil {
		if isOpNotFound(stderr) {
			return "", backend.NotFoundError{Backend: op.Name(), Ref: ref}
		}
		return "", op.cliError("read", stderr, err)
	}
	return strings.TrimSuffix(string(stdout), "\n"), nil
}

// Write upserts the field, creating the provider item on first use.
func (op *OnePassword) Write(ctx context.Context, entry backend.SecretEntry) error {
	ref := entry.Ref
	if err := ref.Validate(); err != nil {
		return err
	}

	item, err := op.getItem(ctx, ref.Provider, ref.Vault)
	if err != nil {
		if !errors.Is(err, backend.ErrNotFound) {
			return err
		}
		op.logger.Debug("Creating 1Password item %s in vault %s", ref.Provider, ref.Vault)
		template, err := json.Marshal(newItemTemplate(ref, entry.Value))
		if err != nil {
			return fmt.Errorf("failed to encode 1Password item template: %w", err)
		}
		_, stderr, err := op.runWithInput(ctx, template, "item", "create", "--vault", ref.Vault)
		if err != nil {
			return op.cliError("item create", stderr, err)
		}
		return nil
	}

	if current, ok := item.field(ref.Section(), ref.Field); ok && current == entry.Value {
		op.logger.Debug("1Password field %s unchanged", ref.String())
		return nil
	}

	// op item edit only takes assignment arguments, so the new value is
	// visible in the process list for the duration of the call.
	assignment := fmt.Sprintf("%s.%s[password]=%s", ref.Section(), ref.Field, entry.Value)
	_, stderr, err := op.run(ctx, "item", "edit", ref.Provider, "--vault", ref.Vault, assignment)
	if err != nil {
		return op.cliError("item edit", stderr, err)
	}
	return nil
}

// List enumerates every decodable field of every item in vault.
func (op *OnePassword) List(ctx context.Context, vault string, filter backend.ListFilter) ([]backend.SecretRef, error) {
	stdout, stderr, err := op.run(ctx, "item", "list", "--vault", vault, "--format", "json")
	if err != nil {
		return nil, op.cliError("item list", stderr, err)
	}

	var summaries []opItemSummary
	if err := json.Unmarshal(stdout, &summaries); err != nil {
		return nil, fmt.Errorf("failed to parse 1Password item list: %w", err)
	}

	refs := []backend.SecretRef{}
	for _, s := range summaries {
		item, err := op.getItem(ctx, s.ID, vault)
		if err != nil {
			return nil, err
		}
		for _, f := range item.Fields {
			if f.Section == nil {
				continue
			}
			project, env, ok := backend.DecodeSection(f.Section.Label)
			if !ok {
				continue
			}
			ref := backend.SecretRef{
				Vault:    vault,
				Provider: item.Title,
				Project:  project,
				Env:      env,
				Field:    f.Label,
			}
			if filter.Matches(ref) {
				refs = append(refs, ref)
			}
		}
	}
	return refs, nil
}

func (op *OnePassword) getItem(ctx context.Context, item, vault string) (*opItem, error) {
	stdout, stderr, err := op.run(ctx, "item", "get", item, "--vault", vault, "--format", "json")
	if err != nil {
		if isOpNotFound(stderr) {
			return nil, backend.NotFoundError{
				Backend: op.Name(),
				Ref:     backend.SecretRef{Vault: vault, Provider: item},
				Reason:  "item",
			}
		}
		return nil, op.cliError("item get", stderr, err)
	}
	var parsed opItem
	if err := json.Unmarshal(stdout, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse 1Password item: %w", err)
	}
	return &parsed, nil
}

func (op *OnePassword) run(ctx context.Context, args ...string) ([]byte, []byte, error) {
	op.logger.Debug("Running op %s", subcommand(args))
	return op.executor.Execute(ctx, "op", args...)
}

// runWithInput pipes input to op, which reads item templates from stdin.
func (op *OnePassword) runWithInput(ctx context.Context, input []byte, args ...string) ([]byte, []byte, error) {
	op.logger.Debug("Running op %s", subcommand(args))
	return op.executor.ExecuteWithInput(ctx, input, "op", args...)
}

func (op *OnePassword) cliError(action string, stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	if strings.Contains(msg, "not currently signed in") || strings.Contains(msg, "signin") {
		return backend.AuthError{Backend: op.Name(), Message: "not signed in. Run: op signin"}
	}
	return dserrors.NewCommandError("op "+action, stderr, err)
}

func isOpNotFound(stderr []byte) bool {
	msg := strings.ToLower(string(stderr))
	return strings.Contains(msg, "isn't a") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not be found") ||
		strings.Contains(msg, "no item")
}

// opItemTemplate is the JSON item template 'op item create' reads on stdin.
type opItemTemplate struct {
	Title    string      `json:"title"`
	Category string      `json:"category"`
	Sections []opSection `json:"sections"`
	Fields   []opField   `json:"fields"`
}

func newItemTemplate(ref backend.SecretRef, value string) opItemTemplate {
	section := opSection{ID: ref.Section(), Label: ref.Section()}
	return opItemTemplate{
		Title:    ref.Provider,
		Category: opCategory,
		Sections: []opSection{section},
		Fields: []opField{{
			ID:      section.ID + "." + ref.Field,
			Type:    "CONCEALED",
			Label:   ref.Field,
			Value:   value,
			Section: &section,
		}},
	}
}

type opItemSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type opItem struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Fields   []opField `json:"fields"`
}

type opField struct {
	ID      string     `json:"id"`
	Type    string     `json:"type"`
	Label   string     `json:"label"`
	Value   string     `json:"value"`
	Section *opSection `json:"section,omitempty"`
}

type opSection struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (i *opItem) field(section, label string) (string, bool) {
	for _, f := range i.Fields {
		if f.Section != nil && f.Section.Label == section && f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

var _ backend.Backend = (*OnePassword)(nil)
