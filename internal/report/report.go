// Package report renders the metadata attached to the assets of a repository
// as a markdown and HTML page.
package report

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"path"
	"slices"
	"strings"
	"text/template"

	"github.com/dnswlt/yamlasset/internal/asset"
	"github.com/dnswlt/yamlasset/internal/repo"
	"github.com/dnswlt/yamlasset/internal/store"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

const (
	// Assets with this annotation set to "false" are left out of the report.
	AnnotReport = "yamlasset.io/report"

	DefaultTitle = "Asset metadata"
)

// Config is the report section of the application config.
type Config struct {
	// Page title. Defaults to DefaultTitle.
	Title string `yaml:"title"`
	// Persistent names of the metadata to include. Empty means all.
	Keys []string `yaml:"keys"`
	// If true, assets without any reported metadata are omitted.
	SkipEmpty bool `yaml:"skipEmpty"`
}

// Generator builds the report for a repository.
type Generator struct {
	repo   *repo.Repository
	config Config
}

type row struct {
	Property string
	Path     string
	Value    string
}

type assetSection struct {
	Ref    string
	Title  string
	Source string
	Rows   []row
}

func NewGenerator(r *repo.Repository, config Config) (*Generator, error) {
	for _, k := range config.Keys {
		if _, ok := r.Registry().Lookup(k); !ok {
			return nil, fmt.Errorf("report: unknown metadata name %q", k)
		}
	}
	if config.Title == "" {
		config.Title = DefaultTitle
	}
	return &Generator{repo: r, config: config}, nil
}

// shouldReport returns true unless the asset has the AnnotReport annotation set to "false".
func (g *Generator) shouldReport(a *asset.Asset) bool {
	val, ok := a.Metadata.Annotations[AnnotReport]
	return !ok || strings.ToLower(val) != "false"
}

// includeKey reports whether metadata stored under name is reported.
func (g *Generator) includeKey(name string, persistent bool) bool {
	if len(g.config.Keys) == 0 {
		return true
	}
	return persistent && slices.Contains(g.config.Keys, name)
}

func (g *Generator) sections() ([]assetSection, error) {
	reg := g.repo.Registry()
	var result []assetSection
	for _, a := range g.repo.Assets() {
		if !g.shouldReport(a) {
			continue
		}
		sec := assetSection{
			Ref:   a.GetRef().String(),
			Title: a.Metadata.Title,
		}
		if si := a.GetSourceInfo(); si != nil {
			sec.Source = si.Path
		}
		att := a.Attached()
		for _, k := range att.Keys() {
			name, persistent := reg.NameOf(k)
			if !persistent {
				name = k.Name() + " (transient)"
			}
			if !g.includeKey(name, persistent) {
				continue
			}
			rec, _ := att.Record(k)
			for _, p := range rec.Paths() {
				v, _ := rec.ValueAt(p)
				s, err := formatValue(v)
				if err != nil {
					return nil, fmt.Errorf("failed to format %s at %s for %s: %v", name, p, sec.Ref, err)
				}
				sec.Rows = append(sec.Rows, row{Property: name, Path: p.String(), Value: s})
			}
		}
		if len(sec.Rows) == 0 && g.config.SkipEmpty {
			continue
		}
		result = append(result, sec)
	}
	return result, nil
}

// formatValue renders v as single-line YAML.
func formatValue(v any) (string, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return "", err
	}
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = yaml.FlowStyle
	}
	bs, err := yaml.Marshal(&n)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(bs))
	s = strings.ReplaceAll(s, "\n", " ")
	return s, nil
}

// escapeCell escapes s for use in a markdown table cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Markdown writes the report in markdown format to w.
func (g *Generator) Markdown(w io.Writer) error {
	secs, err := g.sections()
	if err != nil {
		return err
	}
	data := struct {
		Title  string
		Assets []assetSection
	}{
		Title:  g.config.Title,
		Assets: secs,
	}
	if err := markdownTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template report: %w", err)
	}
	return nil
}

// HTML writes the report as a standalone HTML page to w.
func (g *Generator) HTML(w io.Writer) error {
	var md bytes.Buffer
	if err := g.Markdown(&md); err != nil {
		return err
	}
	var body bytes.Buffer
	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := conv.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("failed to process markdown: %v", err)
	}
	data := struct {
		Title string
		Body  htmltemplate.HTML
	}{
		Title: g.config.Title,
		Body:  htmltemplate.HTML(body.String()),
	}
	return pageTemplate.Execute(w, data)
}

// Generate writes report.md and report.html to dir in st.
func (g *Generator) Generate(st store.Store, dir string) error {
	var md, html bytes.Buffer
	if err := g.Markdown(&md); err != nil {
		return err
	}
	if err := g.HTML(&html); err != nil {
		return err
	}
	if err := st.WriteFile(path.Join(dir, "report.md"), md.Bytes()); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	if err := st.WriteFile(path.Join(dir, "report.html"), html.Bytes()); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}
	return nil
}

// Templates

var markdownTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"cell": escapeCell,
}).Parse(`<!-- Auto-generated by yamlasset report. DO NOT EDIT. -->
# {{ .Title }}
{{ range .Assets }}
## {{ .Ref }}
{{ if .Title }}
*{{ .Title }}*
{{ end -}}
{{ if .Source }}
Source: ` + "`{{ .Source }}`" + `
{{ end }}
{{ if .Rows -}}
| Property | Path | Value |
| --- | --- | --- |
{{ range .Rows -}}
| {{ cell .Property }} | ` + "`{{ cell .Path }}`" + ` | {{ cell .Value }} |
{{ end -}}
{{ else -}}
No attached metadata.
{{ end -}}
{{ end -}}
`))

var pageTemplate = htmltemplate.Must(htmltemplate.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
</head>
<body>
{{ .Body }}
</body>
</html>
`))
