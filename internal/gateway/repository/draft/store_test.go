package draft

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGetList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, 0)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	warned := []string{"Claims"}
	require.NoError(t, s.Put(ctx, Document{RunID: " run-b ", Office: "USPTO", Markdown: "## Title\n\nWidget", Warned: warned, CreatedAt: now}))
	require.NoError(t, s.Put(ctx, Document{RunID: "run-a", Markdown: "x"}))
	warned[0] = "mutated"

	doc, err := s.Get(ctx, "run-b")
	require.NoError(t, err)
	assert.Equal(t, "run-b", doc.RunID)
	assert.Equal(t, "## Title\n\nWidget", doc.Markdown)
	assert.Equal(t, []string{"Claims"}, doc.Warned)
	assert.Equal(t, now, doc.CreatedAt)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a", "run-b"}, ids)
}

func TestMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, 0)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Put(ctx, Document{RunID: "  "}))
	assert.Error(t, s.Put(ctx, Document{RunID: "../escape"}))

	var nilStore *MemoryStore
	assert.Error(t, nilStore.Put(ctx, Document{RunID: "x"}))
}

func TestMemoryStore_EvictsOldestRun(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, time.Hour)
	for _, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, s.Put(ctx, Document{RunID: id, Markdown: id}))
	}
	_, err := s.Get(ctx, "run-1")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, Document{RunID: "run-4", Markdown: "run-4"}))
	_, err = s.Get(ctx, "run-2")
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-3", "run-4"}, ids)

	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Put(ctx, Document{RunID: fmt.Sprintf("bulk-%d", i)}))
	}
	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestMemoryStore_Expires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(4, 20*time.Millisecond)
	require.NoError(t, s.Put(ctx, Document{RunID: "run-1"}))
	_, err := s.Get(ctx, "run-1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := s.Get(ctx, "run-1")
		return errors.Is(err, ErrNotFound)
	}, time.Second, 10*time.Millisecond)
}

func TestNewS3Store_Validates(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.ErrorContains(t, err, "endpoint")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "access key")
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "patents", Prefix: "/out/"})
	require.NoError(t, err)
	assert.Equal(t, "out/run-1.json", s.objectKey("run-1"))
	assert.Equal(t, "us-east-1", s.region)
}
