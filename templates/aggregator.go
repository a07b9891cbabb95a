package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/giygas/bpmn-tools/interfaces"
	"github.com/giygas/bpmn-tools/logging"
	"github.com/giygas/bpmn-tools/metrics"
	"github.com/giygas/bpmn-tools/templates/entities"
)

// Compile-time check to ensure Aggregator implements Aggregator interface
var _ interfaces.Aggregator = (*Aggregator)(nil)

// Aggregator fetches sources one after the other and merges them into a single collection.
// Progress lines are printed to out.
type Aggregator struct {
	fetcher interfaces.Fetcher
	sources []string
	out     io.Writer
}

// NewAggregator creates an aggregator over sources, in order
func NewAggregator(fetcher interfaces.Fetcher, sources []string, out io.Writer) *Aggregator {
	if out == nil {
		out = io.Discard
	}
	return &Aggregator{
		fetcher: fetcher,
		sources: sources,
		out:     out,
	}
}

// Run fetches every source. A source that fails is reported and skipped; the
// returned error is only set when ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) (*entities.Result, error) {
	result := &entities.Result{
		Templates: make([]entities.Template, 0),
		Sources:   len(a.sources),
		Started:   time.Now(),
	}

	for _, url := range a.sources {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(result.Started)
			return result, err
		}

		fmt.Fprintf(a.out, "Downloading %s...\n", url)

		start := time.Now()
		items, err := a.fetchOne(ctx, url)
		metrics.TemplateFetchDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.TemplateFetchTotal.WithLabelValues("error").Inc()
			fmt.Fprintf(a.out, "Failed to download %s: %v\n", url, err)
			logging.Warn("Template source skipped", "url", url, "error", err)
			result.Failures = append(result.Failures, entities.Failure{URL: url, Error: err.Error()})
			continue
		}

		metrics.TemplateFetchTotal.WithLabelValues("ok").Inc()
		logging.Debug("Template source merged", "url", url, "elements", len(items))
		result.Templates = append(result.Templates, items...)
	}

	result.Duration = time.Since(result.Started)
	return result, nil
}

// Save runs the aggregation and writes the merged collection to path, replacing any existing file
func (a *Aggregator) Save(ctx context.Context, path string) (*entities.Result, error) {
	result, err := a.Run(ctx)
	if err != nil {
		return result, err
	}

	if err := WriteCollection(path, result.Templates); err != nil {
		return result, err
	}

	metrics.TemplateElementsWritten.Set(float64(len(result.Templates)))
	metrics.LastSaveTimestamp.SetToCurrentTime()

	fmt.Fprintf(a.out, "Saved %d templates to %s\n", len(result.Templates), path)
	logging.Info("Templates saved",
		"path", path,
		"templates", len(result.Templates),
		"sources", result.Sources,
		"failed_sources", len(result.Failures),
		"duration", result.Duration.String())

	return result, nil
}

func (a *Aggregator) fetchOne(ctx context.Context, url string) ([]entities.Template, error) {
	doc, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return Flatten(doc)
}

// Flatten returns the elements of doc when it is a JSON array, or doc itself otherwise.
// Only the top level is unwrapped.
func Flatten(doc entities.Template) ([]entities.Template, error) {
	trimmed := bytes.TrimLeft(doc, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []entities.Template{doc}, nil
	}

	var items []entities.Template
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if items == nil {
		items = []entities.Template{}
	}
	return items, nil
}
