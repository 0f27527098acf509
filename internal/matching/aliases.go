package matching

import "strings"

// AliasTable maps a places-provider display name to the name the vaccine provider
// records for the same facility. Keys are matched exactly.
type AliasTable map[string]string

// Resolve returns the aliased name, or name itself when there is no entry.
func (a AliasTable) Resolve(name string) string {
	if alias, ok := a[name]; ok && strings.TrimSpace(alias) != "" {
		return alias
	}
	return name
}
