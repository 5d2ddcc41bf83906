package backends

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	dserrors "github.com/shipkey/shipkey/internal/errors"
	"github.com/shipkey/shipkey/internal/logging"
	"github.com/shipkey/shipkey/pkg/backend"
	pkgexec "github.com/shipkey/shipkey/pkg/exec"
)

// NameBitwarden is the registry name of the Bitwarden backend.
const NameBitwarden = "bitwarden"

// Bitwarden item and field type codes.
const (
	bwTypeSecureNote = 2
	bwFieldHidden    = 1
)

// Bitwarden maps vaults to folders, providers to secure notes and each
// project-env variable to a hidden custom field named "{project}-{env}.{field}".
type Bitwarden struct {
	logger   *logging.Logger
	executor pkgexec.CommandExecutor
	session  SessionFunc

	// folders collapses concurrent find-or-create calls for one vault so a
	// fresh vault gets exactly one folder.
	folders singleflight.Group
}

// NewBitwarden creates a Bitwarden backend driving the bw CLI.
func NewBitwarden(deps Deps) *Bitwarden {
	deps = deps.withDefaults()
	return &Bitwarden{logger: deps.Logger, executor: deps.Executor, session: deps.Session}
}

func (bw *Bitwarden) Name() string {
	return NameBitwarden
}

func (bw *Bitwarden) InstallHint() string {
	return "Install the Bitwarden CLI: https://bitwarden.com/help/cli/ (npm install -g @bitwarden/cli)"
}

// BuildInlineRef always reports false; bw has no reference syntax.
func (bw *Bitwarden) BuildInlineRef(backend.SecretRef) (string, bool) {
	return "", false
}

// FieldName encodes the custom field name for ref.
func FieldName(ref backend.SecretRef) string {
	return ref.Section() + "." + ref.Field
}

// DecodeFieldName reverses FieldName. ok is false when either separator is
// missing or any part is empty.
func DecodeFieldName(name string) (project, env, field string, ok bool) {
	i := strings.Index(name, ".")
	if i <= 0 || i == len(name)-1 {
		return "", "", "", false
	}
	project, env, ok = backend.DecodeSection(name[:i])
	if !ok {
		return "", "", "", false
	}
	return project, env, name[i+1:], true
}

// CheckStatus reports not_installed when bw is missing and not_logged_in for
// any 'bw status' other than "unlocked".
func (bw *Bitwarden) CheckStatus(ctx context.Context) backend.Status {
	if _, err := bw.executor.LookPath("bw"); err != nil {
		return backend.StatusNotInstalled
	}
	stdout, _, err := bw.run(ctx, "status")
	if err != nil {
		return backend.StatusNotLoggedIn
	}
	var status bwStatus
	if err := json.Unmarshal(stdout, &status); err != nil {
		bw.logger.Debug("Cannot parse bw status output: %v", err)
		return backend.StatusNotLoggedIn
	}
	if status.Status != "unlocked" {
		return backend.StatusNotLoggedIn
	}
	return backend.StatusReady
}

// Read returns the hidden field value for ref.
func (bw *Bitwarden) Read(ctx context.Context, ref backend.SecretRef) (string, error) {
	folder, err := bw.findFolder(ctx, ref.Vault)
	if err != nil {
		return "", err
	}
	if folder == nil {
		return "", backend.NotFoundError{Backend: bw.Name(), Ref: ref, Reason: "folder"}
	}
	item, err := bw.findNote(ctx, folder.ID, ref.Provider)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", backend.NotFoundError{Backend: bw.Name(), Ref: ref, Reason: "item"}
	}
	value, ok := item.field(FieldName(ref))
	if !ok {
		return "", backend.NotFoundError{Backend: bw.Name(), Ref: ref, Reason: "field"}
	}
	return value, nil
}

// Write upserts the field, creating the folder and note when absent.
func (bw *Bitwarden) Write(ctx context.Context, entry backend.SecretEntry) error {
	ref := entry.Ref
	if err := ref.Validate(); err != nil {
		return err
	}
	name := FieldName(ref)

	folder, err := bw.ensureFolder(ctx, ref.Vault)
	if err != nil {
		return err
	}

	item, err := bw.findNote(ctx, folder.ID, ref.Provider)
	if err != nil {
		return err
	}
	if item == nil {
		bw.logger.Debug("Creating Bitwarden note %s in folder %s", ref.Provider, ref.Vault)
		return bw.createNote(ctx, folder.ID, ref.Provider, bwField{Name: name, Value: entry.Value, Type: bwFieldHidden})
	}

	if current, ok := item.field(name); ok && current == entry.Value {
		bw.logger.Debug("Bitwarden field %s unchanged", ref.String())
		return nil
	}
	item.setField(name, entry.Value)
	return bw.editItem(ctx, item)
}

// List enumerates decodable fields on the secure notes in the vault folder.
func (bw *Bitwarden) List(ctx context.Context, vault string, filter backend.ListFilter) ([]backend.SecretRef, error) {
	refs := []backend.SecretRef{}
	folder, err := bw.findFolder(ctx, vault)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return refs, nil
	}

	items, err := bw.listItems(ctx, "--folderid", folder.ID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Type != bwTypeSecureNote {
			continue
		}
		for _, f := range item.Fields {
			project, env, field, ok := DecodeFieldName(f.Name)
			if !ok {
				continue
			}
			ref := backend.SecretRef{
				Vault:    vault,
				Provider: item.Name,
				Project:  project,
				Env:      env,
				Field:    field,
			}
			if filter.Matches(ref) {
				refs = append(refs, ref)
			}
		}
	}
	return refs, nil
}

func (bw *Bitwarden) findFolder(ctx context.Context, name string) (*bwFolder, error) {
	stdout, stderr, err := bw.run(ctx, "list", "folders", "--search", name)
	if err != nil {
		return nil, bw.cliError("list folders", stderr, err)
	}
	var folders []bwFolder
	if err := json.Unmarshal(stdout, &folders); err != nil {
		return nil, fmt.Errorf("failed to parse bitwarden folders: %w", err)
	}
	for i := range folders {
		if folders[i].Name == name {
			return &folders[i], nil
		}
	}
	return nil, nil
}

// ensureFolder returns the folder for vault, creating it when absent.
// Callers racing on the same vault share one lookup and at most one create.
func (bw *Bitwarden) ensureFolder(ctx context.Context, vault string) (*bwFolder, error) {
	v, err, _ := bw.folders.Do(vault, func() (any, error) {
		folder, err := bw.findFolder(ctx, vault)
		if err != nil || folder != nil {
			return folder, err
		}
		bw.logger.Debug("Creating Bitwarden folder %s", vault)
		return bw.createFolder(ctx, vault)
	})
	if err != nil {
		return nil, err
	}
	return v.(*bwFolder), nil
}

func (bw *Bitwarden) createFolder(ctx context.Context, name string) (*bwFolder, error) {
	payload, err := encodePayload(bwFolder{Name: name})
	if err != nil {
		return nil, err
	}
	stdout, stderr, err := bw.run(ctx, "create", "folder", payload)
	if err != nil {
		return nil, bw.cliError("create folder", stderr, err)
	}
	var folder bwFolder
	if err := json.Unmarshal(stdout, &folder); err != nil {
		return nil, fmt.Errorf("failed to parse created bitwarden folder: %w", err)
	}
	return &folder, nil
}

func (bw *Bitwarden) findNote(ctx context.Context, folderID, provider string) (*bwItem, error) {
	items, err := bw.listItems(ctx, "--folderid", folderID, "--search", provider)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Name == provider && items[i].Type == bwTypeSecureNote {
			return &items[i], nil
		}
	}
	return nil, nil
}

func (bw *Bitwarden) listItems(ctx context.Context, args ...string) ([]bwItem, error) {
	stdout, stderr, err := bw.run(ctx, append([]string{"list", "items"}, args...)...)
	if err != nil {
		return nil, bw.cliError("list items", stderr, err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse bitwarden items: %w", err)
	}
	items := make([]bwItem, 0, len(raw))
	for _, r := range raw {
		item, err := decodeItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (bw *Bitwarden) createNote(ctx context.Context, folderID, provider string, field bwField) error {
	payload, err := encodePayload(map[string]any{
		"type":       bwTypeSecureNote,
		"name":       provider,
		"folderId":   folderID,
		"notes":      "",
		"secureNote": map[string]int{"type": 0},
		"fields":     []bwField{field},
	})
	if err != nil {
		return err
	}
	if _, stderr, err := bw.run(ctx, "create", "item", payload); err != nil {
		return bw.cliError("create item", stderr, err)
	}
	return nil
}

func (bw *Bitwarden) editItem(ctx context.Context, item *bwItem) error {
	data, err := item.encode()
	if err != nil {
		return err
	}
	payload := base64.StdEncoding.EncodeToString(data)
	if _, stderr, err := bw.run(ctx, "edit", "item", item.ID, payload); err != nil {
		return bw.cliError("edit item", stderr, err)
	}
	return nil
}

func (bw *Bitwarden) run(ctx context.Context, args ...string) ([]byte, []byte, error) {
	bw.logger.Debug("Running bw %s", subcommand(args))
	if s := bw.session(); s != "" {
		args = append(args, "--session", s)
	}
	return bw.executor.Execute(ctx, "bw", args...)
}

func (bw *Bitwarden) cliError(action string, stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "vault is locked") || strings.Contains(lower, "not logged in") {
		return backend.AuthError{Backend: bw.Name(), Message: msg + ". Run: bw unlock"}
	}
	return dserrors.NewCommandError("bw "+action, stderr, err)
}

func encodePayload(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode bitwarden payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

type bwStatus struct {
	Status    string `json:"status"`
	UserEmail string `json:"userEmail"`
}

type bwFolder struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type bwField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  int    `json:"type"`
}

// bwItem keeps the raw document so edits round-trip attributes shipkey does
// not model.
type bwItem struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Type   int       `json:"type"`
	Fields []bwField `json:"fields"`

	raw map[string]json.RawMessage
}

func decodeItem(data []byte) (bwItem, error) {
	var item bwItem
	if err := json.Unmarshal(data, &item); err != nil {
		return bwItem{}, fmt.Errorf("failed to parse bitwarden item: %w", err)
	}
	if err := json.Unmarshal(data, &item.raw); err != nil {
		return bwItem{}, fmt.Errorf("failed to parse bitwarden item: %w", err)
	}
	return item, nil
}

func (i *bwItem) field(name string) (string, bool) {
	for _, f := range i.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (i *bwItem) setField(name, value string) {
	for idx := range i.Fields {
		if i.Fields[idx].Name == name {
			i.Fields[idx].Value = value
			return
		}
	}
	i.Fields = append(i.Fields, bwField{Name: name, Value: value, Type: bwFieldHidden})
}

func (i *bwItem) encode() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(i.raw)+1)
	for k, v := range i.raw {
		doc[k] = v
	}
	fields, err := json.Marshal(i.Fields)
	if err != nil {
		return nil, err
	}
	doc["fields"] = fields
	return json.Marshal(doc)
}

var _ backend.Backend = (*Bitwarden)(nil)
