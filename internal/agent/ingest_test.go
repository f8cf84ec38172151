package agent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"research-rag/internal/processor"
	"research-rag/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestFileMissing(t *testing.T) {
	a := New(store.NewMemoryStore(), &stubEmbedder{}, nil, processor.NewProcessor(500), 3, nil)

	_, err := a.IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)

	var parseErr *processor.ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "missing.pdf", parseErr.FileName)
}

func TestIngestDocumentRejectsGarbage(t *testing.T) {
	a := New(store.NewMemoryStore(), &stubEmbedder{}, nil, processor.NewProcessor(500), 3, nil)

	_, err := a.IngestDocument(context.Background(), []byte("not a pdf at all"), "garbage.pdf")
	require.Error(t, err)

	var parseErr *processor.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestIngestBatchFailureIsolation(t *testing.T) {
	a := New(store.NewMemoryStore(), &stubEmbedder{}, nil, processor.NewProcessor(500), 3, nil)

	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "one.pdf"),
		filepath.Join(dir, "two.pdf"),
	}

	outcomes := a.IngestBatch(context.Background(), paths, 2)
	require.Len(t, outcomes, 2)
	for i, o := range outcomes {
		assert.Equal(t, paths[i], o.Path)
		assert.Error(t, o.Err)
		assert.Nil(t, o.Result)
	}
}

func TestIngestBatchHonorsCancellation(t *testing.T) {
	a := New(store.NewMemoryStore(), &stubEmbedder{}, nil, processor.NewProcessor(500), 3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := a.IngestBatch(ctx, []string{"a.pdf", "b.pdf"}, 2)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.True(t, errors.Is(o.Err, context.Canceled))
	}
}
