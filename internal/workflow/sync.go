package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shipkey/shipkey/internal/config"
	"github.com/shipkey/shipkey/internal/secure"
	"github.com/shipkey/shipkey/internal/targets"
	"github.com/shipkey/shipkey/pkg/backend"
)

// Binding is one secret a destination should receive and where it lives.
type Binding struct {
	Name string
	Ref  backend.SecretRef
	Err  error
}

// Destination is a resolved platform destination.
type Destination struct {
	Platform string
	Name     string
	Bindings []Binding
}

// SyncOptions selects what Sync publishes.
type SyncOptions struct {
	Scope Scope
	// Platform limits the run to one platform. Empty means all.
	Platform string
	// DryRun resolves and reads values without publishing them.
	DryRun bool
}

// DestinationResult is the outcome for one destination.
type DestinationResult struct {
	Platform    string
	Destination string
	Result      targets.Result
}

// SyncReport collects destination outcomes.
type SyncReport struct {
	RunID        string
	Destinations []DestinationResult
}

// FailedCount totals failed secrets across destinations.
func (r SyncReport) FailedCount() int {
	n := 0
	for _, d := range r.Destinations {
		n += len(d.Result.Failed)
	}
	return n
}

// ResolveTargets turns cfg.Targets into refs. List entries name fields
// declared under a provider; map entries carry a reference that is a field
// name, "provider/field" or a full inline ref
// ("op://vault/provider/project-env/field" or the same without scheme).
// Unresolvable entries carry an error instead of a ref.
func ResolveTargets(cfg *config.ShipkeyConfig, scope Scope, platform string) []Destination {
	if cfg == nil {
		return nil
	}
	var out []Destination
	for _, p := range sortedNames(cfg.Targets) {
		if platform != "" && p != platform {
			continue
		}
		dests := cfg.Targets[p]
		for _, name := range sortedNames(dests) {
			d := dests[name]
			dest := Destination{Platform: p, Name: name}
			if d.IsMap() {
				keys := make([]string, 0, len(d.Refs))
				for k := range d.Refs {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					ref, err := resolveReference(cfg, scope, d.Refs[k])
					dest.Bindings = append(dest.Bindings, Binding{Name: k, Ref: ref, Err: err})
				}
			} else {
				for _, field := range d.Fields {
					ref, err := resolveReference(cfg, scope, field)
					dest.Bindings = append(dest.Bindings, Binding{Name: field, Ref: ref, Err: err})
				}
			}
			out = append(out, dest)
		}
	}
	return out
}

func resolveReference(cfg *config.ShipkeyConfig, scope Scope, reference string) (backend.SecretRef, error) {
	if ref, ok := backend.ParseRefURI(reference); ok {
		return ref, nil
	}
	if strings.HasPrefix(reference, backend.OnePasswordScheme) {
		return backend.SecretRef{}, fmt.Errorf("malformed inline reference %q", reference)
	}
	if provider, field, ok := strings.Cut(reference, "/"); ok {
		if provider == "" || field == "" || strings.Contains(field, "/") {
			return backend.SecretRef{}, fmt.Errorf("malformed reference %q", reference)
		}
		return scope.Ref(provider, field), nil
	}
	provider, ok := cfg.FindField(reference)
	if !ok {
		return backend.SecretRef{}, fmt.Errorf("field %s is not declared by any provider", reference)
	}
	return scope.Ref(provider, reference), nil
}

// Sync reads every bound secret and hands each destination its
// name/value pairs.
func (r *Runner) Sync(ctx context.Context, cfg *config.ShipkeyConfig, opts SyncOptions) (SyncReport, error) {
	runID, log := r.newRun()
	report := SyncReport{RunID: runID}

	if r.Backend == nil {
		return report, fmt.Errorf("no backend configured")
	}
	if r.Targets == nil {
		return report, fmt.Errorf("no sync targets configured")
	}

	dests := ResolveTargets(cfg, opts.Scope, opts.Platform)
	values := secure.NewValues()
	defer values.Destroy()

	ready := map[string]error{}
	for _, dest := range dests {
		if _, seen := ready[dest.Platform]; seen {
			continue
		}
		ready[dest.Platform] = r.targetReady(ctx, dest.Platform)
	}

	for _, dest := range dests {
		res := DestinationResult{Platform: dest.Platform, Destination: dest.Name}
		target, err := r.Targets(dest.Platform)
		if err == nil {
			err = ready[dest.Platform]
		}
		if err != nil {
			res.Result = failAll(dest.Bindings, err)
			report.Destinations = append(report.Destinations, res)
			log.Warn("Skipping %s %s: %v", dest.Platform, dest.Name, err)
			continue
		}

		var secrets []targets.Secret
		var failed []targets.Failure
		for _, b := range dest.Bindings {
			if b.Err != nil {
				failed = append(failed, targets.Failure{Name: b.Name, Err: b.Err})
				continue
			}
			value, err := r.readProtected(ctx, values, b.Ref)
			if err != nil {
				failed = append(failed, targets.Failure{Name: b.Name, Err: err})
				continue
			}
			secrets = append(secrets, targets.Secret{Name: b.Name, Value: value})
		}

		if opts.DryRun {
			res.Result = targets.Result{Success: secretNames(secrets), Failed: failed}
		} else {
			res.Result = target.Sync(ctx, dest.Name, secrets)
			res.Result.Failed = append(failed, res.Result.Failed...)
			r.Metrics.RecordTargetSecrets(dest.Platform, len(res.Result.Success), len(res.Result.Failed))
		}
		log.Debug("Synced %d secrets to %s %s (%d failed)",
			len(res.Result.Success), dest.Platform, dest.Name, len(res.Result.Failed))
		report.Destinations = append(report.Destinations, res)
	}
	return report, nil
}

func (r *Runner) targetReady(ctx context.Context, platform string) error {
	target, err := r.Targets(platform)
	if err != nil {
		return err
	}
	status := target.CheckStatus(ctx)
	if status == backend.StatusReady {
		return nil
	}
	return fmt.Errorf("%s target is %s. %s", target.Name(), status, target.InstallHint())
}

// readProtected reads ref once per run and keeps the value sealed between
// destinations.
func (r *Runner) readProtected(ctx context.Context, values *secure.Values, ref backend.SecretRef) (string, error) {
	key := ref.String()
	if values.Has(key) {
		return values.Get(key)
	}
	v, err := r.Backend.Read(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := values.Put(key, v); err != nil {
		return "", err
	}
	return v, nil
}

func failAll(bindings []Binding, err error) targets.Result {
	res := targets.Result{Success: []string{}}
	for _, b := range bindings {
		res.Failed = append(res.Failed, targets.Failure{Name: b.Name, Err: err})
	}
	return res
}

func secretNames(secrets []targets.Secret) []string {
	names := make([]string, 0, len(secrets))
	for _, s := range secrets {
		names = append(names, s.Name)
	}
	return names
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
