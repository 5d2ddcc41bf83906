package backend

import "strings"

// OnePasswordScheme prefixes inline refs understood by the op CLI.
const OnePasswordScheme = "op://"

// DecodeSection splits a "{project}-{env}" section on its last '-'.
// Environment names are assumed to be '-'-free; project names may contain '-'.
func DecodeSection(section string) (project, env string, ok bool) {
	i := strings.LastIndex(section, "-")
	if i <= 0 || i == len(section)-1 {
		return "", "", false
	}
	return section[:i], section[i+1:], true
}

// ParseRefURI decodes "vault/provider/project-env/field", with or without the
// op:// scheme. ok is false for anything that is not exactly four non-empty
// segments with a decodable section.
func ParseRefURI(s string) (SecretRef, bool) {
	s = strings.TrimPrefix(s, OnePasswordScheme)
	parts := strings.Split(s, "/")
	if len(parts) != 4 {
		return SecretRef{}, false
	}
	for _, p := range parts {
		if p == "" {
			return SecretRef{}, false
		}
	}
	project, env, ok := DecodeSection(parts[2])
	if !ok {
		return SecretRef{}, false
	}
	return SecretRef{
		Vault:    parts[0],
		Provider: parts[1],
		Project:  project,
		Env:      env,
		Field:    parts[3],
	}, true
}
