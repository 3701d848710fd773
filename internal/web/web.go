// Package web holds the server-rendered prediction form: the embedded HTML
// template and the view model it renders.
package web

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/fleveque/mercado-futuro/internal/collector"
	"github.com/fleveque/mercado-futuro/internal/model"
)

// IndexTemplate is the name handlers pass to c.HTML.
const IndexTemplate = "index.html"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded templates once at startup.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}

// TimeframeOption is one <option> of the timeframe selector.
type TimeframeOption struct {
	Value    string
	Label    string
	Selected bool
}

// Page is the view model for the form. Input echoes what the user typed so a
// failed submission keeps its values.
type Page struct {
	Input      collector.RawInput
	Timeframes []TimeframeOption
	FieldError *collector.FieldError
	// Error is the banner text for a failed prediction call.
	Error   string
	Request *model.PredictionRequest
	Result  *model.PredictionResult
}

// NewPage builds the form for the given input, selecting its timeframe or
// the default one.
func NewPage(in collector.RawInput) *Page {
	selected := in.Timeframe
	if !model.ValidTimeframe(selected) {
		selected = string(model.DefaultTimeframe)
	}

	opts := make([]TimeframeOption, 0, len(model.AllTimeframes))
	for _, tf := range model.AllTimeframes {
		opts = append(opts, TimeframeOption{
			Value:    string(tf),
			Label:    tf.Label(),
			Selected: string(tf) == selected,
		})
	}

	return &Page{Input: in, Timeframes: opts}
}

// FieldMessage returns the inline error for a field, if any.
func (p *Page) FieldMessage(field string) string {
	if p.FieldError != nil && p.FieldError.Field == field {
		return p.FieldError.Message
	}
	return ""
}
