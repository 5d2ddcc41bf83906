package config

import (
	"sort"

	"github.com/samber/lo"
)

// Merge reconciles a freshly scanned configuration into the persisted one.
// Identity (project, vault, backend) always comes from existing. Merge is
// idempotent and never mutates its inputs.
func Merge(existing, scanned *ShipkeyConfig) *ShipkeyConfig {
	if existing == nil {
		return Clone(scanned)
	}
	merged := Clone(existing)
	if scanned == nil {
		return merged
	}

	for name, sp := range scanned.Providers {
		ep, ok := merged.Providers[name]
		if !ok {
			if merged.Providers == nil {
				merged.Providers = map[string]ProviderConfig{}
			}
			merged.Providers[name] = cloneProvider(sp)
			continue
		}
		merged.Providers[name] = mergeProvider(ep, sp)
	}

	for platform, dests := range scanned.Targets {
		if merged.Targets == nil {
			merged.Targets = Targets{}
		}
		if merged.Targets[platform] == nil {
			merged.Targets[platform] = map[string]TargetDestination{}
		}
		for dest, sd := range dests {
			ed, ok := merged.Targets[platform][dest]
			if !ok {
				merged.Targets[platform][dest] = cloneDestination(sd)
				continue
			}
			merged.Targets[platform][dest] = mergeDestination(ed, sd)
		}
	}

	return merged
}

func mergeProvider(existing, scanned ProviderConfig) ProviderConfig {
	out := ProviderConfig{
		Fields:      unionFields(existing.Fields, scanned.Fields),
		GuideURL:    existing.GuideURL,
		Guide:       existing.Guide,
		Permissions: append([]Permission(nil), existing.Permissions...),
	}
	if out.GuideURL == "" {
		out.GuideURL = scanned.GuideURL
	}
	if out.Guide == "" {
		out.Guide = scanned.Guide
	}
	if len(scanned.Permissions) > 0 {
		out.Permissions = append([]Permission(nil), scanned.Permissions...)
	}
	if len(out.Permissions) == 0 {
		out.Permissions = nil
	}
	return out
}

// An explicit map on the existing side wins. Map vs list keeps existing.
func mergeDestination(existing, scanned TargetDestination) TargetDestination {
	if existing.IsMap() || scanned.IsMap() {
		return cloneDestination(existing)
	}
	return TargetDestination{Fields: unionFields(existing.Fields, scanned.Fields)}
}

// Clone returns a deep copy of c.
func Clone(c *ShipkeyConfig) *ShipkeyConfig {
	if c == nil {
		return nil
	}
	out := &ShipkeyConfig{
		Project: c.Project,
		Vault:   c.Vault,
		Backend: c.Backend,
	}
	if c.Providers != nil {
		out.Providers = make(map[string]ProviderConfig, len(c.Providers))
		for name, p := range c.Providers {
			out.Providers[name] = cloneProvider(p)
		}
	}
	if c.Targets != nil {
		out.Targets = make(Targets, len(c.Targets))
		for platform, dests := range c.Targets {
			if dests == nil {
				out.Targets[platform] = nil
				continue
			}
			cp := make(map[string]TargetDestination, len(dests))
			for dest, d := range dests {
				cp[dest] = cloneDestination(d)
			}
			out.Targets[platform] = cp
		}
	}
	return out
}

func cloneProvider(p ProviderConfig) ProviderConfig {
	out := p
	if p.Fields != nil {
		out.Fields = append([]string{}, p.Fields...)
	}
	if p.Permissions != nil {
		out.Permissions = append([]Permission{}, p.Permissions...)
	}
	return out
}

func cloneDestination(d TargetDestination) TargetDestination {
	if d.Refs != nil {
		return TargetDestination{Refs: lo.Assign(d.Refs)}
	}
	if d.Fields != nil {
		return TargetDestination{Fields: append([]string{}, d.Fields...)}
	}
	return TargetDestination{}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unionFields(a, b []string) []string {
	if a == nil && b == nil {
		return nil
	}
	return lo.Union(a, b)
}
