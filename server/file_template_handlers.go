package server

import (
	"embed"
	"html/template"
	"io/fs"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a single template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Funcs(templateFuncs).Parse(string(content))
}

// ParseAdminTemplate parses the admin layout together with a page's content template.
// The content file defines the "content" block the layout renders.
func ParseAdminTemplate(contentTemplate string) (*template.Template, error) {
	return template.New(adminLayoutTemplate).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), adminLayoutTemplate, contentTemplate)
}

const adminLayoutTemplate = "admin_layout.html"

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}
