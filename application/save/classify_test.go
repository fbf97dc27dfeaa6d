package save_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"markup-backend/application/save"
	"markup-backend/domain/markup"
	"markup-backend/tests/fixtures"
)

func TestClassify_Partition(t *testing.T) {
	// Arrange: one embedded markup moved, one new rectangle, one
	// embedded annotation deleted earlier, one embedded left alone.
	moved := fixtures.NewMarkupBuilder().WithID("m1").EmbeddedModified("ann1").Build()
	drawn := fixtures.NewMarkupBuilder().WithID("m2").Build()
	untouched := fixtures.NewMarkupBuilder().WithID("m3").Embedded("ann3").Build()

	// Act
	c := save.Classify([]*markup.Markup{moved, drawn, untouched}, []string{"ann2"})

	// Assert
	require.Len(t, c.New, 1)
	assert.Equal(t, "m2", c.New[0].ID)
	require.Len(t, c.Modified, 1)
	assert.Equal(t, "m1", c.Modified[0].ID)
	require.Len(t, c.Unmodified, 1)
	assert.Equal(t, "m3", c.Unmodified[0].ID)

	// Payload is new followed by modified; untouched embedded markups
	// never travel.
	require.Len(t, c.MarkupsToSave, 2)
	assert.Equal(t, "m2", c.MarkupsToSave[0].ID)
	assert.Equal(t, "m1", c.MarkupsToSave[1].ID)

	assert.Equal(t, []string{"ann1", "ann2"}, c.AnnotationsToRemove)
	assert.False(t, c.IsNoOp())
}

func TestClassify_Deduplicates(t *testing.T) {
	// A modified annotation that was also recorded as deleted must be
	// listed for removal once.
	m := fixtures.NewMarkupBuilder().WithID("m1").EmbeddedModified("ann1").Build()

	c := save.Classify([]*markup.Markup{m}, []string{"ann1", "ann1", ""})

	assert.Equal(t, []string{"ann1"}, c.AnnotationsToRemove)
}

func TestClassify_NoOp(t *testing.T) {
	untouched := fixtures.NewMarkupBuilder().WithID("m1").Embedded("ann1").Build()

	c := save.Classify([]*markup.Markup{untouched}, nil)

	assert.True(t, c.IsNoOp())
	assert.Empty(t, c.MarkupsToSave)
	assert.Empty(t, c.AnnotationsToRemove)
}

func TestClassify_EmptyDocument(t *testing.T) {
	c := save.Classify(nil, nil)
	assert.True(t, c.IsNoOp())
}

// Property: the three slices partition the input, the payload is
// exactly New+Modified, and removals contain no duplicates.
func TestClassify_PartitionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "markups")
		markups := make([]*markup.Markup, 0, n)
		for i := 0; i < n; i++ {
			b := fixtures.NewMarkupBuilder().WithID(fmt.Sprintf("m%d", i))
			switch rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("kind%d", i)) {
			case 1:
				b.Embedded(fmt.Sprintf("ann%d", i))
			case 2:
				b.EmbeddedModified(fmt.Sprintf("ann%d", i))
			}
			markups = append(markups, b.Build())
		}
		deleted := rapid.SliceOfN(
			rapid.SampledFrom([]string{"annX", "annY", "annZ", ""}), 0, 6,
		).Draw(t, "deleted")

		c := save.Classify(markups, deleted)

		if got := len(c.New) + len(c.Modified) + len(c.Unmodified); got != n {
			t.Fatalf("partition covers %d of %d markups", got, n)
		}
		if len(c.MarkupsToSave) != len(c.New)+len(c.Modified) {
			t.Fatalf("payload size %d != new %d + modified %d",
				len(c.MarkupsToSave), len(c.New), len(c.Modified))
		}
		seen := make(map[string]struct{})
		for _, id := range c.AnnotationsToRemove {
			if id == "" {
				t.Fatal("empty id in removals")
			}
			if _, dup := seen[id]; dup {
				t.Fatalf("duplicate removal id %q", id)
			}
			seen[id] = struct{}{}
		}
		for _, m := range c.Unmodified {
			if _, removed := seen[m.PDFAnnotID]; removed && !contains(deleted, m.PDFAnnotID) {
				t.Fatalf("untouched annotation %q scheduled for removal", m.PDFAnnotID)
			}
		}
	})
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
