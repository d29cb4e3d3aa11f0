package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/docmirror/docmirror/internal/crawler"
	"github.com/docmirror/docmirror/internal/storage"
)

// CrawlReport is everything the markdown summary needs about one run.
type CrawlReport struct {
	// BaseURL is the crawl's seed.
	BaseURL string

	// OutputDir is where the mirror was written.
	OutputDir string

	// StartedAt and Duration frame the run.
	StartedAt time.Time
	Duration  time.Duration

	// Stats are the scheduler's per-run counters.
	Stats crawler.Stats

	// Visited and Pending are the frontier's final counts. Pending > 0
	// means the run was interrupted and can resume.
	Visited int
	Pending int

	// Err is a non-empty description when the run aborted.
	Err string
}

// MarkdownWriter renders crawl reports as markdown.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders the full run summary.
func (w *MarkdownWriter) Write(report *CrawlReport) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base URL", "`" + report.BaseURL + "`"},
			{"Output Directory", "`" + report.OutputDir + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.Round(time.Second).String()},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")

	md.H2("Results")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages written", strconv.Itoa(report.Stats.PagesWritten)},
			{"Pages failed", strconv.Itoa(report.Stats.PagesFailed)},
			{"Pages skipped", strconv.Itoa(report.Stats.PagesSkipped)},
			{"Links discovered", strconv.Itoa(report.Stats.LinksDiscovered)},
			{"URLs visited (total)", strconv.Itoa(report.Visited)},
			{"URLs still pending", strconv.Itoa(report.Pending)},
		},
	})
	md.PlainText("")

	switch {
	case report.Err != "":
		md.Cautionf("The crawl aborted: %s. Re-run with resume enabled to continue from the saved state.", report.Err)
	case report.Pending > 0:
		md.Warning("The crawl was interrupted with URLs still pending. Re-run with resume enabled to finish.")
	case report.Stats.PagesFailed > 0:
		md.Note("Some pages failed permanently; the rest of the mirror is complete.")
	default:
		md.Tip("The mirror is complete.")
	}

	return md.Build()
}

// statusText classifies the run for the header table.
func (w *MarkdownWriter) statusText(report *CrawlReport) string {
	switch {
	case report.Err != "":
		return "❌ Aborted - " + report.Err
	case report.Pending > 0:
		return "⚠️ Interrupted (resumable)"
	default:
		return "✅ Complete"
	}
}

// WriteCatalog renders the document index for the status subcommand.
func (w *MarkdownWriter) WriteCatalog(summary *storage.Summary, records []storage.IndexRecord) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Mirror Status")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Documents", strconv.Itoa(summary.Documents)},
			{"Total words", strconv.Itoa(summary.TotalWords)},
			{"Last fetched", w.lastFetchedText(summary)},
		},
	})
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No documents mirrored yet.")
		return md.Build()
	}

	md.H2("Documents")
	md.PlainText("")
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			"`" + record.Path + "`",
			record.Title,
			strconv.Itoa(record.WordCount),
			record.FetchedAt.Format("2006-01-02 15:04"),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Path", "Title", "Words", "Fetched"},
		Rows:   rows,
	})

	return md.Build()
}

// lastFetchedText formats the catalog's most recent write.
func (w *MarkdownWriter) lastFetchedText(summary *storage.Summary) string {
	if summary.LastFetched.IsZero() {
		return "never"
	}
	return summary.LastFetched.Format("2006-01-02 15:04:05 MST")
}
