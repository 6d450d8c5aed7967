package detail

import (
	"html/template"
	"io"

	"github.com/rotisserie/eris"
)

const modalHTML = `<div class="modal-backdrop" data-dismiss="backdrop">
<div class="modal-panel modal-{{.Type}}" data-dismiss="panel" data-key="{{.Key}}" role="dialog" aria-modal="true">
<button type="button" class="modal-close" data-dismiss="close" aria-label="Tutup">&times;</button>
<header><h2>{{.Title}}</h2>{{with .Subtitle}}<p class="subtitle">{{.}}</p>{{end}}</header>
<section class="description">{{template "field" .Description}}</section>
{{- if .Identity}}
<dl class="identity">{{range .Identity}}{{template "field" .}}{{end}}</dl>
{{- end}}
{{- if .Technical}}
<dl class="technical">{{range .Technical}}{{template "field" .}}{{end}}</dl>
{{- end}}
<section class="items"><h3>{{.ListTitle}}</h3>
{{- if .HasItems}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{else}}<p class="missing">` + NotAvailable + `</p>{{end}}</section>
{{- with .Summary}}
<dl class="summary">{{template "field" .}}</dl>
{{- end}}
{{- if .Production}}
<table class="production">
<thead><tr><th>Bulan</th><th>Minyak (BOPD)</th><th>Gas (MMSCFD)</th></tr></thead>
<tbody>{{range .Production}}<tr><td>{{.Name}}</td><td>{{.OilText}}</td><td>{{.GasText}}</td></tr>{{end}}</tbody>
{{- with .Totals}}
<tfoot><tr><th>Total</th><td>{{.OilText}}</td><td>{{.GasText}}</td></tr></tfoot>
{{- end}}
</table>
{{- end}}
</div>
</div>
{{define "field"}}<dt>{{.Label}}</dt><dd{{if .Missing}} class="missing"{{end}}>{{.Value}}</dd>{{end}}`

var modalTmpl = template.Must(template.New("modal").Parse(modalHTML))

// Render writes the modal fragment for v.
func Render(w io.Writer, v View) error {
	if err := modalTmpl.Execute(w, v); err != nil {
		return eris.Wrap(err, "detail: render modal")
	}
	return nil
}
