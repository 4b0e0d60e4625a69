package processor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xhad/intentprep/internal/models"
)

type ProcessorConfig struct {
	// Threads is the size of the normalisation worker pool.
	Threads int
	// Steps defaults to DefaultSteps().
	Steps      []Step
	OnProgress func(done int)
}

type Processor struct {
	config ProcessorConfig
}

// DefaultSteps returns the standard pipeline. Order matters: structural noise
// (quotes, markup, links, tags, images, brackets, emojis) goes before lexical
// noise (hashtags, case, acronyms, digits, repeats), and the coarse character
// filter runs last.
func DefaultSteps() []Step {
	return []Step{
		OriginalLength,
		RemoveQuotes,
		ManageSpecialCharacters,
		PullHyperlinks,
		CountTags,
		CountImages,
		CountBracketText,
		CountEmojis,
		SplitHashtags,
		CountUpper,
		CountAcronyms,
		CountDigits,
		CountRepeats,
		PartialClean,
	}
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.Threads <= 0 {
		config.Threads = 4
	}
	if len(config.Steps) == 0 {
		config.Steps = DefaultSteps()
	}

	return Processor{
		config: config,
	}
}

// Headers lists the statistic names of the configured steps, in order.
func (p *Processor) Headers() []string {
	var headers []string
	for _, step := range p.config.Steps {
		if step.Name != "" {
			headers = append(headers, step.Name)
		}
	}
	return headers
}

// Apply runs every step on the document in order. Invalid UTF-8 is treated
// as a missing document and becomes the empty string.
func (p *Processor) Apply(document string) string {
	cleaned, _ := p.apply(document)
	return cleaned
}

// Record maps step names to the metric each produced for one document.
type Record map[string]Metric

func (p *Processor) apply(document string) (string, Record) {
	document = validOrEmpty(document)

	record := make(Record, len(p.config.Steps))
	for _, step := range p.config.Steps {
		var metric Metric
		metric, document = step.Apply(document)
		if step.Name != "" {
			record[step.Name] = metric
		}
	}
	return document, record
}

// Clean is Apply with failure isolation: a step that panics yields the empty
// document and an error instead of unwinding the caller.
func (p *Processor) Clean(document string) (cleaned string, record Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			cleaned, record = "", nil
			if e, ok := r.(error); ok {
				err = fmt.Errorf("transform failed: %w", e)
				return
			}
			err = fmt.Errorf("transform failed: %v", r)
		}
	}()

	cleaned, record = p.apply(document)
	return cleaned, record, nil
}

// Defect records a document that failed normalisation and was emptied.
type Defect struct {
	Index int
	Err   error
}

// Summary aggregates step metrics over a run.
type Summary struct {
	Documents int
	Totals    map[string]int
	Domains   []string
	Defects   []Defect
}

func newSummary() *Summary {
	return &Summary{Totals: make(map[string]int)}
}

func (s *Summary) add(record Record, domains map[string]struct{}) {
	s.Documents++
	for name, metric := range record {
		s.Totals[name] += metric.Count
		for _, item := range metric.Items {
			if _, seen := domains[item]; !seen {
				domains[item] = struct{}{}
				s.Domains = append(s.Domains, item)
			}
		}
	}
}

type result struct {
	index   int
	cleaned string
	record  Record
	err     error
}

// ProcessDocuments normalises every document on the worker pool. The output
// keeps input order. A failing document is emptied and recorded as a defect;
// it never aborts the run. Only cancellation of ctx returns an error.
func (p *Processor) ProcessDocuments(ctx context.Context, documents []string) ([]string, *Summary, error) {
	jobs := make(chan int, p.config.Threads*2)
	results := make(chan result, p.config.Threads*2)

	var wg sync.WaitGroup
	for w := 0; w < p.config.Threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				cleaned, record, err := p.Clean(documents[i])
				results <- result{index: i, cleaned: cleaned, record: record, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range documents {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	cleaned := make([]string, len(documents))
	records := make([]Record, len(documents))
	var defects []Defect
	done := 0
	for r := range results {
		cleaned[r.index] = r.cleaned
		records[r.index] = r.record
		if r.err != nil {
			defects = append(defects, Defect{Index: r.index, Err: r.err})
		}
		done++
		if p.config.OnProgress != nil {
			p.config.OnProgress(done)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	summary := newSummary()
	domains := make(map[string]struct{})
	for _, record := range records {
		summary.add(record, domains)
	}
	sort.Slice(defects, func(i, j int) bool {
		return defects[i].Index < defects[j].Index
	})
	summary.Defects = defects

	return cleaned, summary, nil
}

// Prepare turns raw documents into the persisted context dataset:
// normalise, split into contexts, then apply the final character clean.
func (p *Processor) Prepare(ctx context.Context, documents []string) (*models.ContextSet, *Summary, error) {
	cleaned, summary, err := p.ProcessDocuments(ctx, documents)
	if err != nil {
		return nil, nil, err
	}

	set := SplitIntoContexts(cleaned)
	for i, c := range set.Contexts {
		set.Contexts[i] = FinalClean(c)
	}
	return set, summary, nil
}
