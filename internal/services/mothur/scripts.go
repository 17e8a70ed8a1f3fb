package mothur

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"seqmart/internal/services"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Script template names.
const (
	ScriptFilter     = "filter"
	ScriptMerge      = "merge"
	ScriptPreprocess = "preprocess"
)

var scripts = template.Must(
	template.New("mothur").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl"),
)

// Render fills the named script template with the provided mapping. It is a
// deterministic pure substitution: an unknown template name or an unresolved
// key is fatal to the calling stage and tagged with ErrTemplate, never
// retried. Optional template branches expect their keys present (possibly
// empty), so callers pass a fully populated mapping.
func Render(name string, data map[string]any) (string, error) {
	tmpl := scripts.Lookup(name + ".tmpl")
	if tmpl == nil {
		return "", services.Wrap(services.ErrTemplate, "", "render",
			fmt.Sprintf("unknown script template %q", name), nil)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", services.Wrap(services.ErrTemplate, "", "render", name, err)
	}
	return buf.String(), nil
}

// JoinInputs renders a file list in the tool's multi-input syntax.
func JoinInputs(paths []string) string {
	return strings.Join(paths, "-")
}
