package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/udaytamma/AiEmailAssistant/internal/digeststore"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func converter() goldmark.Markdown {
	markdownOnce.Do(func() {
		// no linkify: sender addresses stay plain text
		markdown = goldmark.New(
			goldmark.WithExtensions(extension.Strikethrough, extension.Table),
			goldmark.WithParserOptions(parser.WithAttribute()),
		)
	})
	return markdown
}

var page = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Email Digest</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h2 { border-bottom: 1px solid #ddd; padding-bottom: .25rem; }
code { background: #f3f3f3; padding: 0 .25rem; border-radius: 3px; }
#status { color: #666; }
</style>
</head>
<body>
<p><button id="refresh">Get latest view</button> <span id="status">Last updated {{.Updated}}</span></p>
{{.Body}}
<script>
document.getElementById("refresh").onclick = async () => {
  const status = document.getElementById("status");
  const res = await fetch("/api/refresh", {method: "POST"});
  status.textContent = res.status === 409 ? "A run is already in progress." : "Run started, reload in a minute.";
};
</script>
</body>
</html>
`))

// HTML renders doc as a standalone dashboard page.
func HTML(doc digeststore.Document) ([]byte, error) {
	var body bytes.Buffer
	if err := converter().Convert([]byte(Markdown(doc)), &body); err != nil {
		return nil, fmt.Errorf("convert digest markdown: %w", err)
	}

	return executePage(formatUpdated(doc.Metadata.LastUpdated), template.HTML(body.String()))
}

// EmptyHTML is the dashboard page shown before the first run.
func EmptyHTML() ([]byte, error) {
	return executePage(formatUpdated(time.Time{}), "<p>No digest yet. Press the button to run the assistant.</p>")
}

func executePage(updated string, body template.HTML) ([]byte, error) {
	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Updated string
		Body    template.HTML
	}{
		Updated: updated,
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("render dashboard: %w", err)
	}
	return out.Bytes(), nil
}
