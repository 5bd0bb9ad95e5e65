package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitOverlappingWindows(t *testing.T) {
	c := New(20, 5)

	got := c.Split("The quick brown fox jumps over the lazy dog")

	require.Equal(t, []string{
		"The quick brown fox",
		"fox jumps over the",
		"the lazy dog",
	}, got)

	for _, chunk := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 20)
	}
}

func TestSplitShortText(t *testing.T) {
	c := New(DefaultChunkSize, DefaultChunkOverlap)

	got := c.Split("  just one small note  ")

	require.Equal(t, []string{"just one small note"}, got)
}

func TestSplitEmptyText(t *testing.T) {
	c := New(DefaultChunkSize, DefaultChunkOverlap)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\n   "))
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	c := New(20, 5)

	got := c.Split("First paragraph.\n\nSecond paragraph.")

	require.Equal(t, []string{"First paragraph.", "Second paragraph."}, got)
}

func TestSplitSubdividesOversizedWords(t *testing.T) {
	c := New(5, 2)

	got := c.Split("abcdefghij")

	require.Equal(t, []string{"abcde", "defgh", "ghij"}, got)
}

func TestSplitDeterministic(t *testing.T) {
	c := New(64, 16)
	text := strings.Repeat("Organic cotton holds its shape when washed cold. ", 20)

	first := c.Split(text)
	second := c.Split(text)

	require.Equal(t, first, second)
	require.NotEmpty(t, first)
	for _, chunk := range first {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 64)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitAdjacentChunksOverlap(t *testing.T) {
	c := New(30, 10)

	got := c.Split("one two three four five six seven eight nine ten eleven twelve")

	require.Equal(t, []string{
		"one two three four five six",
		"five six seven eight nine ten",
		"nine ten eleven twelve",
	}, got)

	// Every chunk opens with text carried over from its predecessor.
	for i := 1; i < len(got); i++ {
		firstWord := strings.Fields(got[i])[0]
		assert.Contains(t, got[i-1], firstWord)
	}
}

func TestTransformFansMetadataOut(t *testing.T) {
	c := New(20, 5)

	records := []Record{
		{
			Text: "The quick brown fox jumps over the lazy dog",
			Metadata: map[string]any{
				"doc_id": "doc-1",
				"title":  "Foxes",
			},
		},
		{
			Text:     "short",
			Metadata: map[string]any{"doc_id": "doc-2"},
		},
	}

	got := c.Transform(records)
	require.Len(t, got, 4)

	for i, chunk := range got[:3] {
		assert.Equal(t, "doc-1", chunk.SourceDocId)
		assert.Equal(t, i, chunk.SectionIndex)
		assert.Equal(t, "Foxes", chunk.Metadata["title"])
	}
	assert.Equal(t, "doc-2", got[3].SourceDocId)
	assert.Equal(t, 0, got[3].SectionIndex)

	// Each chunk owns its metadata copy.
	got[0].Metadata["title"] = "mutated"
	assert.Equal(t, "Foxes", got[1].Metadata["title"])
}

func TestTransformMissingDocId(t *testing.T) {
	c := New(DefaultChunkSize, DefaultChunkOverlap)

	got := c.Transform([]Record{{Text: "no identifier here"}})
	require.Len(t, got, 1)
	assert.Empty(t, got[0].SourceDocId)
}

func TestRecordFromMap(t *testing.T) {
	record := RecordFromMap(map[string]any{
		"text":   "body text",
		"doc_id": "doc-9",
		"tags":   []any{"care"},
	})

	assert.Equal(t, "body text", record.Text)
	assert.Equal(t, "doc-9", record.Metadata["doc_id"])
	assert.NotContains(t, record.Metadata, "text")
}
