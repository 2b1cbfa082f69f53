package scopes

import (
	"maps"
	"slices"
	"strings"
)

var (
	scopeCategories   = merged(CommonScopeCategories, DomainScopeCategories)
	scopeDescriptions = merged(CommonScopeDescriptions, DomainScopeDescriptions)
)

func merged[V any](parts ...map[string]V) map[string]V {
	out := make(map[string]V)
	for _, p := range parts {
		maps.Copy(out, p)
	}
	return out
}

// GetScopesByGroup returns a copy of the role template named group
func GetScopesByGroup(group string) []string {
	if granted, ok := RoleScopeGroups[group]; ok {
		return slices.Clone(granted)
	}
	return []string{}
}

func GetScopeDescription(scope string) string {
	if desc, ok := scopeDescriptions[scope]; ok {
		return desc
	}
	return "No description available"
}

// GetScopeCategory returns "Unknown" for scopes in no category
func GetScopeCategory(scope string) string {
	for _, category := range slices.Sorted(maps.Keys(scopeCategories)) {
		if slices.Contains(scopeCategories[category], scope) {
			return category
		}
	}
	return "Unknown"
}

// AllScopes lists every concrete scope, sorted, wildcards excluded
func AllScopes() []string {
	var all []string
	for _, list := range scopeCategories {
		for _, s := range list {
			if !isWildcard(s) {
				all = append(all, s)
			}
		}
	}
	slices.Sort(all)
	return slices.Compact(all)
}

func ValidateScope(scope string) bool {
	if scope == ScopeAll {
		return true
	}
	for _, list := range scopeCategories {
		if slices.Contains(list, scope) {
			return true
		}
	}
	return false
}

// ExpandWildcardScope expands "payroll:*" into every payroll scope, itself included.
// Non-wildcard scopes come back unchanged.
func ExpandWildcardScope(wildcardScope string) []string {
	if wildcardScope == ScopeAll {
		return AllScopes()
	}
	if !strings.HasSuffix(wildcardScope, ":*") {
		return []string{wildcardScope}
	}

	prefix := strings.TrimSuffix(wildcardScope, "*")
	var expanded []string
	for _, list := range scopeCategories {
		for _, s := range list {
			if strings.HasPrefix(s, prefix) {
				expanded = append(expanded, s)
			}
		}
	}
	return expanded
}

// Effective resolves a grant list into the concrete scopes it allows
func Effective(granted []string) []string {
	var out []string
	for _, g := range granted {
		for _, s := range ExpandWildcardScope(g) {
			if !isWildcard(s) {
				out = append(out, s)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func isWildcard(scope string) bool {
	return scope == ScopeAll || strings.HasSuffix(scope, ":*")
}
