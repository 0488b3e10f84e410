package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/poiesic/jobvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const naukriCSV = `Uniq Id,Job Title,Key Skills,Location
a1,Data Entry Operator,"ITES, BPO",Chennai
,Backend Engineer,"Go
Kubernetes",Pune
a3,,"Excel",Delhi
`

func TestLoad_CSV(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	loader := NewLoader(env.pipeline, WithIDPrefix("naukri"))
	stats, err := loader.Load(ctx, strings.NewReader(naukriCSV), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.Failed)
	assert.False(t, stats.Capped)

	_, err = env.repo.GetJob(ctx, "a1")
	require.NoError(t, err)

	// Row without an id falls back to the row number
	doc, err := env.repo.GetJob(ctx, "naukri-2")
	require.NoError(t, err)
	cleaned := doc.Fields[core.FieldCleanedJob].(map[string]any)
	sections := cleaned["sections"].(map[string]any)
	assert.Equal(t, []any{"Go", "Kubernetes"}, sections["required_skills"])
}

func TestLoad_JSONL(t *testing.T) {
	env := newTestEnv(t)
	input := `{"job_id": "1", "title": "Dev"}
{"job_id": "2", "company_name": "Acme"}
{"job_id": "3", "position": "Analyst"}
`
	stats, err := NewLoader(env.pipeline).Load(context.Background(), strings.NewReader(input), FormatJSONL)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.Skipped)
}

func TestLoad_CapCountsSavedRecords(t *testing.T) {
	env := newTestEnv(t)

	var b strings.Builder
	b.WriteString("title,company\n")
	b.WriteString(",skipped\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Job %d,Acme\n", i)
	}

	stats, err := NewLoader(env.pipeline, WithMaxSaved(3)).Load(context.Background(), strings.NewReader(b.String()), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Saved)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 4, stats.Rows)
	assert.True(t, stats.Capped)

	total, err := env.repo.CountTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestLoad_ReportsProgress(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer

	input := "title\nA\nB\nC\n"
	_, err := NewLoader(env.pipeline, WithProgress(&out, 2)).Load(context.Background(), strings.NewReader(input), FormatCSV)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Processed 2 rows (saved 2, skipped 0, failed 0)")
	assert.Contains(t, out.String(), "Processed 3 rows (saved 3, skipped 0, failed 0)")
}

func TestLoad_CancelledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := NewLoader(env.pipeline).Load(ctx, strings.NewReader("title\nA\n"), FormatCSV)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Saved)
}

func TestLoad_StoreUnavailableStopsRun(t *testing.T) {
	env := newTestEnv(t)
	// Closing the repository's backend makes every write fail with a connectivity error
	require.NoError(t, env.repo.Close())
	require.NoError(t, env.backend.Close())

	stats, err := NewLoader(env.pipeline).Load(context.Background(), strings.NewReader("title\nA\nB\n"), FormatCSV)
	assert.ErrorIs(t, err, core.ErrConnectivity)
	assert.Equal(t, 1, stats.Rows)
	assert.Equal(t, 1, stats.Failed)
}

func TestLoad_UnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	_, err := NewLoader(env.pipeline).Load(context.Background(), strings.NewReader(""), Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad_MalformedJSONLineCountsAsFailed(t *testing.T) {
	env := newTestEnv(t)
	input := `{"title": "A"}
{not json

{"title": "B"}
`
	stats, err := NewLoader(env.pipeline).Load(context.Background(), strings.NewReader(input), FormatJSONL)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Skipped)
}

func TestJSONLReader_MalformedRow(t *testing.T) {
	next := jsonlReader(strings.NewReader("[1, 2]\n{\"title\": \"A\"}\n"))

	_, err := next()
	assert.ErrorIs(t, err, ErrMalformedRow)

	rec, err := next()
	require.NoError(t, err)
	assert.Equal(t, "A", rec["title"])

	_, err = next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"jobs.csv":      FormatCSV,
		"JOBS.CSV":      FormatCSV,
		"dump.jsonl":    FormatJSONL,
		"dump.ndjson":   FormatJSONL,
		"payloads.json": FormatJSONL,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("jobs.xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
