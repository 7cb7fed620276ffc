package report

import (
	"net/http"
	"time"
)

type Options struct {
	Provider string // gemini / openai / none
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New builds the configured generator, bounded and instrumented. A
// missing API key yields an Unavailable generator rather than an error
// so the workflow still runs without reports.
func New(o Options) Generator {
	var g Generator
	switch {
	case o.Provider == "none":
		g = Unavailable{Reason: "report generation disabled"}
	case o.APIKey == "":
		g = Unavailable{Reason: o.Provider + " api key not configured"}
	case o.Provider == "openai":
		g = NewOpenAIGenerator(o.APIKey, o.Model, o.BaseURL)
	default:
		g = NewGeminiGenerator(o.APIKey, o.Model, o.BaseURL, &http.Client{Timeout: o.Timeout})
	}
	return Instrument(Bounded(g, o.Timeout), o.Provider)
}
