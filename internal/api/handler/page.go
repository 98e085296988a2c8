package handler

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/kiranshivaraju/playbook/internal/api/response"
	"github.com/kiranshivaraju/playbook/internal/page"
)

// InitAlert is shown once on page load when no generator is configured.
const InitAlert = "Could not initialize the AI service. Please ensure the API key is set up correctly in .env.local file."

// StreamPath is where the page opens its event stream.
const StreamPath = "/api/v1/analyze/stream"

//go:embed templates/index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type indexData struct {
	WebsiteURL string
	Services   string
	AutoStart  bool
	InitAlert  string
	StreamPath string
	CTAPath    string
}

// NewPageHandler returns an http.HandlerFunc for GET /.
func NewPageHandler(deps PageDeps) http.HandlerFunc {
	logger := deps.logger()
	return func(w http.ResponseWriter, r *http.Request) {
		in := page.InputFromQuery(r.URL.Query())
		captureSession(r, deps.Cache, in, logger)

		data := indexData{
			WebsiteURL: in.WebsiteURL,
			Services:   in.Services,
			AutoStart:  in.WebsiteURL != "" && in.Services != "",
			StreamPath: StreamPath,
			CTAPath:    page.CTAPath,
		}
		if !deps.available() {
			data.InitAlert = InitAlert
		}

		var buf bytes.Buffer
		if err := indexTmpl.Execute(&buf, data); err != nil {
			logger.Error("render page failed", "error", err)
			response.Error(w, http.StatusInternalServerError, response.CodeInternal, "An unexpected error occurred", nil)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}
