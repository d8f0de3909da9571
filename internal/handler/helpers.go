package handler

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"time"
)

//go:embed templates/*.html
var tplFS embed.FS

var tpl = template.Must(template.New("").Funcs(template.FuncMap{
	"submitted":  displayTime,
	"pathEscape": url.PathEscape,
}).ParseFS(tplFS, "templates/*.html"))

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

type flash struct {
	Type    string
	Message string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
}

func render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = tpl.ExecuteTemplate(w, name, data)
}

// maxBody caps request bodies and uploaded import files.
const maxBody = 10 << 20

// displayTime shows a stored timestamp in local time, or verbatim when it
// does not parse.
func displayTime(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
