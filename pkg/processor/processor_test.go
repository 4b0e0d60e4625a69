package processor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/intentprep/internal/models"
	"github.com/xhad/intentprep/pkg/processor"
)

const noisyDocument = "Check this out!!! http://example.com #ThisIsGreat <b>wow</b>"

func TestProcessor_Apply(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	got := p.Apply(noisyDocument)
	assert.Equal(t, "check this out!!!  url  this is great  wow ", got)
}

func TestProcessor_ApplyInvalidUTF8(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	assert.Equal(t, "", p.Apply("\xff\xfe"))
}

func TestProcessor_Headers(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})

	assert.Equal(t, []string{
		"original_length", "quotes", "hyperlinks", "tag_count", "image_count",
		"bracket_text_count", "emoji_count", "hashtag_count", "upper_count",
		"acronym_count", "digit_count", "repeat_count",
	}, p.Headers())
}

func TestProcessor_ProcessDocumentsKeepsOrder(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{Threads: 3})

	documents := make([]string, 50)
	for i := range documents {
		documents[i] = fmt.Sprintf("Document NUMBER %d says HELLO #Tag%d", i, i)
	}

	cleaned, summary, err := p.ProcessDocuments(context.Background(), documents)
	require.NoError(t, err)
	require.Len(t, cleaned, len(documents))

	for i, document := range documents {
		assert.Equal(t, p.Apply(document), cleaned[i])
	}
	assert.Equal(t, 50, summary.Documents)
	assert.Equal(t, 50, summary.Totals["hashtag_count"])
	assert.Empty(t, summary.Defects)
}

func TestProcessor_ProcessDocumentsRecordsDefects(t *testing.T) {
	explode := processor.Step{
		Name: "explode",
		Apply: func(document string) (processor.Metric, string) {
			if document == "boom" {
				panic("bad document")
			}
			return processor.Metric{Count: 1}, document
		},
	}
	p := processor.NewWithConfig(processor.ProcessorConfig{
		Threads: 2,
		Steps:   []processor.Step{explode},
	})

	cleaned, summary, err := p.ProcessDocuments(context.Background(), []string{"fine", "boom", "also fine"})
	require.NoError(t, err)

	assert.Equal(t, []string{"fine", "", "also fine"}, cleaned)
	require.Len(t, summary.Defects, 1)
	assert.Equal(t, 1, summary.Defects[0].Index)
	assert.ErrorContains(t, summary.Defects[0].Err, "bad document")
	assert.Equal(t, 2, summary.Totals["explode"])
}

func TestProcessor_ProcessDocumentsProgress(t *testing.T) {
	var last int
	p := processor.NewWithConfig(processor.ProcessorConfig{
		Threads:    2,
		OnProgress: func(done int) { last = done },
	})

	_, _, err := p.ProcessDocuments(context.Background(), []string{"a b", "c d", "e f"})
	require.NoError(t, err)
	assert.Equal(t, 3, last)
}

func TestProcessor_ProcessDocumentsCancelled(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{Threads: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.ProcessDocuments(ctx, []string{"a b", "c d"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessor_SummaryDomains(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{Threads: 2})

	_, summary, err := p.ProcessDocuments(context.Background(), []string{
		"read http://example.com now",
		"and https://t.co/xyz",
		"again http://example.com/page",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com"}, summary.Domains)
	assert.Equal(t, 3, summary.Totals["hyperlinks"])
}

func TestProcessor_Prepare(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{Threads: 2})

	set, summary, err := p.Prepare(context.Background(), []string{
		noisyDocument,
		"ok",
		"Second doc here. And another one!",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"check this out",
		"url this is great wow",
		"second doc here",
		"and another one",
	}, set.Contexts)
	assert.Equal(t, []models.ContextIndex{
		{DocumentIndex: 0, ContextIndex: 0},
		{DocumentIndex: 0, ContextIndex: 1},
		{DocumentIndex: 2, ContextIndex: 0},
		{DocumentIndex: 2, ContextIndex: 1},
	}, set.Indexes)
	assert.Equal(t, 3, summary.Documents)
}
