package template

// TemplateRenderer is the engine contract the views depend on. Exists lets
// callers walk a list of candidate template names and render the first one
// that is available.
type TemplateRenderer interface {
	RenderTemplate(name string, data map[string]any) (string, error)
	Exists(name string) bool
}

// FirstExisting returns the first candidate the renderer can load.
func FirstExisting(r TemplateRenderer, candidates ...string) (string, bool) {
	for _, name := range candidates {
		if r.Exists(name) {
			return name, true
		}
	}
	return "", false
}
