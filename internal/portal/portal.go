// Package portal implements the configuration portal: a small HTTP server
// for viewing and editing the device settings, and a captive DNS redirector
// used while the device hosts its own access point.
package portal

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"libdb.so/ringlight/internal/settings"
)

// FieldKind selects how a settings field is rendered and parsed.
type FieldKind int

const (
	// Text is a free-form string field.
	Text FieldKind = iota
	// Password is a string field with masked input.
	Password
	// Number is an integer field, optionally bounded.
	Number
)

// Field describes one settings field on the form. For Number fields, values
// below Min are clamped up and, when Max is non-zero, values above Max are
// clamped down.
type Field struct {
	Key   string
	Label string
	Kind  FieldKind
	Value string
	Min   int
	Max   int
}

// InputType returns the HTML input type for the field.
func (f Field) InputType() string {
	switch f.Kind {
	case Password:
		return "password"
	case Number:
		return "number"
	default:
		return "text"
	}
}

// Bounded reports whether the field has an upper bound.
func (f Field) Bounded() bool { return f.Kind == Number && f.Max > 0 }

// Status is the device state shown on top of the settings page.
type Status struct {
	AccessPoint bool
	Connected   bool
	ClockSynced bool
}

// Portal is the configuration HTTP server. On a successful save it persists
// the settings store and invokes the restart callback; the daemon then shuts
// down and is restarted with the new configuration.
type Portal struct {
	store   *settings.Store
	fields  []Field
	status  func() Status
	restart func()
	logger  *slog.Logger
}

// New creates a portal over the given settings store.
func New(store *settings.Store, fields []Field, status func() Status, restart func(), logger *slog.Logger) *Portal {
	return &Portal{
		store:   store,
		fields:  fields,
		status:  status,
		restart: restart,
		logger:  logger,
	}
}

// Handler returns the portal's HTTP handler.
func (p *Portal) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", p.handleIndex)
	r.Post("/save", p.handleSave)
	// Captive portal probes request arbitrary paths; send them all to the
	// form.
	r.NotFound(http.RedirectHandler("/", http.StatusFound).ServeHTTP)
	return r
}

func (p *Portal) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Status Status
		Fields []Field
	}{
		Status: p.status(),
		Fields: p.fields,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		p.logger.Warn("failed to render settings page", "error", err)
	}
}

func (p *Portal) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form submission", http.StatusBadRequest)
		return
	}

	// Validate the whole submission before touching the store so a bad
	// field leaves the settings unmodified.
	type pending struct {
		field Field
		str   string
		num   int
	}
	parsed := make([]pending, 0, len(p.fields))

	for _, f := range p.fields {
		raw := strings.TrimSpace(r.PostFormValue(f.Key))

		if f.Kind != Number {
			parsed = append(parsed, pending{field: f, str: raw})
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid value for %s", f.Label), http.StatusUnprocessableEntity)
			return
		}
		if n < f.Min {
			n = f.Min
		}
		if f.Max > 0 && n > f.Max {
			n = f.Max
		}
		parsed = append(parsed, pending{field: f, num: n})
	}

	for _, pv := range parsed {
		if pv.field.Kind == Number {
			p.store.SetInt(pv.field.Key, pv.num)
		} else {
			p.store.SetString(pv.field.Key, pv.str)
		}
	}

	if err := p.store.Save(); err != nil {
		p.logger.Error("failed to save settings", "error", err)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := savedTmpl.Execute(w, nil); err != nil {
		p.logger.Warn("failed to render saved page", "error", err)
	}

	p.logger.Info("settings saved, restarting")
	p.restart()
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><meta name="viewport" content="width=device-width, initial-scale=1"><title>ringlight</title></head>
<body>
<h1>ringlight</h1>
<p>
{{- if .Status.AccessPoint}}Setup mode: connect this device to your network below.
{{- else if .Status.Connected}}Connected.{{if not .Status.ClockSynced}} Waiting for time sync.{{end}}
{{- else}}Not connected, retrying.
{{- end}}
</p>
<form method="post" action="/save">
{{range .Fields}}<label>{{.Label}}
<input type="{{.InputType}}" name="{{.Key}}" value="{{.Value}}"{{if .Bounded}} min="{{.Min}}" max="{{.Max}}"{{end}}>
</label><br>
{{end}}<button type="submit">Save and restart</button>
</form>
</body>
</html>
`))

var savedTmpl = template.Must(template.New("saved").Parse(`<!doctype html>
<html>
<head><title>ringlight</title></head>
<body><p>Settings saved. The device is restarting.</p></body>
</html>
`))
