// internal/report/render.go
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/xkilldash9x/reticle/api/schemas"
)

// recentSampleLimit caps the per-sample table so huge runs still render a
// readable page.
const recentSampleLimit = 20

// RenderMarkdown builds the report body. The layout is plain GFM: a
// summary list, one stats table per score column, and the most recent
// samples.
func RenderMarkdown(runLabel string, stats RunStats, records []schemas.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tracking Run Report\n\n")
	fmt.Fprintf(&b, "- **Run**: `%s`\n", runLabel)
	fmt.Fprintf(&b, "- **Samples**: %d\n", stats.Samples)
	if stats.Samples > 0 {
		fmt.Fprintf(&b, "- **Time span**: %s to %s\n",
			stats.First.Format(schemas.TimestampLayout),
			stats.Last.Format(schemas.TimestampLayout))
	}
	fmt.Fprintf(&b, "- **Annotated screenshots**: %d\n", stats.Annotated)
	fmt.Fprintf(&b, "- **Evaluation failures**: %d\n\n", stats.EvaluationFailures)

	writeScoreSection(&b, "Low-level action scores", stats.LowLevel)
	writeScoreSection(&b, "High-level action scores", stats.HighLevel)
	writeScoreSection(&b, "Format reward scores", stats.Format)
	writeRecentSamples(&b, records)

	return b.String()
}

func writeScoreSection(b *strings.Builder, title string, s ScoreStats) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if s.Scored == 0 {
		fmt.Fprintf(b, "No scored samples.\n\n")
		return
	}

	fmt.Fprintf(b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Scored samples | %d |\n", s.Scored)
	fmt.Fprintf(b, "| Mean | %s |\n", formatFloat(s.Mean))
	fmt.Fprintf(b, "| Min | %s |\n", formatFloat(s.Min))
	fmt.Fprintf(b, "| Max | %s |\n\n", formatFloat(s.Max))

	fmt.Fprintf(b, "| Bucket | Count |\n|---|---|\n")
	for i, label := range scoreBucketLabels {
		fmt.Fprintf(b, "| %s | %d |\n", label, s.Histogram[i])
	}
	fmt.Fprintf(b, "\n")
}

func writeRecentSamples(b *strings.Builder, records []schemas.Record) {
	if len(records) == 0 {
		return
	}

	recent := records
	if len(recent) > recentSampleLimit {
		recent = recent[len(recent)-recentSampleLimit:]
		fmt.Fprintf(b, "## Recent samples (last %d of %d)\n\n", recentSampleLimit, len(records))
	} else {
		fmt.Fprintf(b, "## Recent samples\n\n")
	}

	fmt.Fprintf(b, "| Sample | Timestamp | Low | High | Format |\n|---|---|---|---|---|\n")
	for _, rec := range recent {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			rec.SampleID,
			rec.Timestamp.Format(schemas.TimestampLayout),
			formatScoreCell(rec.LowLevelScore),
			formatScoreCell(rec.HighLevelScore),
			formatScoreCell(rec.FormatScore),
		)
	}
	fmt.Fprintf(b, "\n")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatScoreCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// htmlShell wraps the converted body in a minimal self-contained page.
const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Tracking Run Report</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.7rem; text-align: left; }
th { background: #f2f2f2; }
code { background: #f2f2f2; padding: 0.1rem 0.3rem; }
</style>
</head>
<body>
%s</body>
</html>
`

// RenderHTML converts the markdown body to a full HTML page. GFM tables
// need the extension; the goldmark defaults ignore pipes.
func RenderHTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}
	return []byte(fmt.Sprintf(htmlShell, body.String())), nil
}
