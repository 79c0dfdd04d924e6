package web

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/justestif/go-sparkify/internal/dashboard"
	"github.com/justestif/go-sparkify/internal/model"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	return tmpl.ExecuteTemplate(w, "base", data)
}

// load parses every page together with all layouts and partials. Pages are
// keyed by file name without extension.
func (t *Templates) load(templatesFS fs.FS) error {
	var common []string
	for _, pattern := range []string{"layouts/*.html", "partials/*.html"} {
		matches, err := fs.Glob(templatesFS, pattern)
		if err != nil {
			return fmt.Errorf("finding %s: %w", pattern, err)
		}
		common = append(common, matches...)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}
	if len(pages) == 0 {
		return errors.New("no page templates found")
	}

	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		files := append([]string{page}, common...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return nil
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// add adds two integers (for 1-based indexing in loops)
		"add": func(a, b int) int {
			return a + b
		},

		// percent renders a bar width as a CSS percentage
		"percent": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f)
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	CurrentPath string
}

// HomePageData contains data for the dashboard page template.
type HomePageData struct {
	PageData
	Counts   []TableCount
	Previews []dashboard.Preview
	Charts   []ChartData
	Total    int
}

// TableCount is the row count of one table.
type TableCount struct {
	Name string
	Rows int
}

// ChartData contains data for one bar chart partial.
type ChartData struct {
	Title string
	Bars  []BarData
}

// BarData is one bar; Width is relative to the largest bar of the chart.
type BarData struct {
	Label string
	Plays int
	Width float64
}

func newChart(title string, counts []model.PlayCount) ChartData {
	c := ChartData{Title: title}
	largest := 0
	for _, pc := range counts {
		largest = max(largest, pc.Plays)
	}
	for _, pc := range counts {
		b := BarData{Label: pc.Label, Plays: pc.Plays}
		if largest > 0 {
			b.Width = 100 * float64(pc.Plays) / float64(largest)
		}
		c.Bars = append(c.Bars, b)
	}
	return c
}

func tableCounts(t *dashboard.Tables) []TableCount {
	counts := t.Counts()
	out := make([]TableCount, 0, len(counts))
	for _, name := range []string{"songplays", "users", "songs", "artists", "time"} {
		out = append(out, TableCount{Name: name, Rows: counts[name]})
	}
	return out
}
