// Package dashboard renders Grafana dashboards for the GreptimeDB tables the
// recorder writes to.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"regard/internal/tracking"
)

//go:embed templates/*.tmpl
var templates embed.FS

var templateFiles = []string{
	"templates/regard-dashboard.json.tmpl",
}

// Render parses dashboard templates and writes rendered dashboards to outDir.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	data := struct {
		PositionTable       string
		InterpretationTable string
		AlertThreshold      float64
	}{
		PositionTable:       tracking.PositionTableName,
		InterpretationTable: tracking.InterpretationTableName,
		AlertThreshold:      tracking.AlertThreshold,
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, tplName := range templateFiles {
		t, err := template.New(filepath.Base(tplName)).Funcs(funcMap).ParseFS(templates, tplName)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(tplName), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, data); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", tplName, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
