package highlight

import "strings"

// shellExtensions are tab-name suffixes highlighted as shell.
var shellExtensions = []string{".env", ".sh", ".bash"}

// LanguageFor infers the highlight language from a tab name: shell-style
// config files map to bash, everything else is treated as YAML.
func LanguageFor(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range shellExtensions {
		if strings.HasSuffix(lower, ext) {
			return "bash"
		}
	}
	return "yaml"
}
