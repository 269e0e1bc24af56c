package render

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var funcs = template.FuncMap{
	"join":  strings.Join,
	"quote": Quote,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// Engine executes the report template. Templates can print the prepared
// report with {{.Report}} or build their own from .Sections; the "report"
// and "item" templates are always defined.
type Engine struct {
	main *template.Template
}

// NewEngine parses the template file at path, or the built-in template when path is empty
func NewEngine(path string) (*Engine, error) {
	base, err := template.New("report.md.tmpl").Funcs(funcs).ParseFS(templatesFS, "templates/report.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}

	var text []byte
	if path == "" {
		text, err = templatesFS.ReadFile("templates/default.md.tmpl")
	} else {
		text, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	return newEngine(base, string(text))
}

// NewEngineFromString parses text as the main template
func NewEngineFromString(text string) (*Engine, error) {
	base, err := template.New("report.md.tmpl").Funcs(funcs).ParseFS(templatesFS, "templates/report.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return newEngine(base, text)
}

func newEngine(base *template.Template, text string) (*Engine, error) {
	main, err := base.New("main").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Engine{main: main}, nil
}

// Execute renders ctx into the Markdown document
func (e *Engine) Execute(ctx Context) (string, error) {
	var report bytes.Buffer
	if err := e.main.ExecuteTemplate(&report, "report", ctx); err != nil {
		return "", fmt.Errorf("execute report: %w", err)
	}
	ctx.Report = strings.TrimSpace(report.String())

	var doc bytes.Buffer
	if err := e.main.ExecuteTemplate(&doc, "main", ctx); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return doc.String(), nil
}
