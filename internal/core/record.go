package core

// TemplateSource is regenerated template code plus the directory its own
// imports resolve against.
type TemplateSource struct {
	Code    string
	Context string
}

// Dependency is a specifier captured while extracting a markup template,
// with the file the bundler resolved it to (empty when unresolved).
type Dependency struct {
	Specifier string
	Path      string
}

// TemplateValue holds exactly one of Text (placeholder template) or Source
// (component template).
type TemplateValue struct {
	Text   string
	Source *TemplateSource
}

func TextTemplate(text string) TemplateValue {
	return TemplateValue{Text: text}
}

func SourceTemplate(code, context string) TemplateValue {
	return TemplateValue{Source: &TemplateSource{Code: code, Context: context}}
}

func (v TemplateValue) IsSource() bool {
	return v.Source != nil
}

type TemplateRecord struct {
	Name         string
	Template     TemplateValue
	ExtraProps   map[string]any
	Dependencies []Dependency
}

// Props builds the render props for a record: scripts and styles first,
// then ExtraProps on top.
func (r TemplateRecord) Props(assets EntryAssets) map[string]any {
	props := make(map[string]any, len(r.ExtraProps)+2)
	props["scripts"] = nonNil(assets.Scripts)
	props["styles"] = nonNil(assets.Styles)
	for k, v := range r.ExtraProps {
		props[k] = v
	}
	return props
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
