package server

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/widget.html
var templateFS embed.FS

var widgetPage = template.Must(template.ParseFS(templateFS, "templates/widget.html"))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := widgetPage.Execute(w, s.toResponse(s.widget.Snapshot())); err != nil {
		s.logger.Warn("failed to render widget page", "error", err)
	}
}
