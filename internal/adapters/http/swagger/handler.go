// Package swagger serves the OpenAPI description of the HTTP surface.
package swagger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"gopkg.in/yaml.v3"
)

// Error constants.
var (
	ErrParse = errors.New("openapi document invalid")
)

type document struct {
	Info struct {
		Title       string `yaml:"title"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"info"`
	Paths map[string]map[string]operation `yaml:"paths"`
}

type operation struct {
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
}

// Endpoint is one documented method and path.
type Endpoint struct {
	Method      string
	Path        string
	Summary     string
	Description string
}

// Endpoints parses the embedded document into endpoints sorted by path.
func Endpoints() (title, version string, endpoints []Endpoint, err error) {
	var doc document
	if err := yaml.Unmarshal(OpenAPI, &doc); err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	for path, ops := range doc.Paths {
		for method, op := range ops {
			endpoints = append(endpoints, Endpoint{
				Method:      method,
				Path:        path,
				Summary:     op.Summary,
				Description: op.Description,
			})
		}
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Path != endpoints[j].Path {
			return endpoints[i].Path < endpoints[j].Path
		}
		return endpoints[i].Method < endpoints[j].Method
	})
	return doc.Info.Title, doc.Info.Version, endpoints, nil
}

// Register attaches the OpenAPI routes to mux.
// Routes:
//
//	GET /api-docs      -> HTML endpoint list
//	GET /openapi.yaml  -> Embedded OpenAPI document
func Register(_ context.Context, mux *http.ServeMux) error {
	if mux == nil {
		panic("mux is nil")
	}

	page, err := renderIndex()
	if err != nil {
		return err
	}

	mux.HandleFunc("/api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
	return nil
}

func renderIndex() ([]byte, error) {
	title, version, endpoints, err := Endpoints()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = indexTemplate.Execute(&buf, map[string]any{
		"Title":     title,
		"Version":   version,
		"Endpoints": endpoints,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return buf.Bytes(), nil
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Title}} API {{.Version}}</title>
    <style>body{font-family:system-ui,sans-serif;margin:2rem}code{font-weight:bold}</style>
  </head>
  <body>
    <h1>{{.Title}} API {{.Version}}</h1>
    <p><a href="/openapi.yaml">openapi.yaml</a></p>
    {{range .Endpoints}}
    <section>
      <h2><code>{{.Method}} {{.Path}}</code></h2>
      <p>{{.Summary}}</p>
      {{with .Description}}<pre>{{.}}</pre>{{end}}
    </section>
    {{end}}
  </body>
</html>`))
