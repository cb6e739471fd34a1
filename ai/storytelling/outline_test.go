package storytelling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanternworks/lanternworks/ai/gateway"
	"github.com/lanternworks/lanternworks/store"
)

func TestGenerateOutline(t *testing.T) {
	t.Run("renumbers contiguously", func(t *testing.T) {
		g := gatewayFunc(func(_ context.Context, _ string, _ int) (string, *gateway.CallStats, error) {
			return "```json\n" + `[
				{"number": 1, "title": "The Old Harbor", "theme": "childhood", "keyCharacters": ["Rosa"]},
				{"number": 3, "title": "Crossing the Sea", "theme": "leaving", "keyCharacters": ["Rosa", "Marco"]},
				{"number": 3, "title": "A New Shore", "theme": "arriving", "keyCharacters": ["Rosa"]},
				{"number": 9, "title": "The Bakery", "theme": "work", "keyCharacters": ["Rosa"]},
				{"number": 5, "title": "Sunday Letters", "theme": "family ties", "keyCharacters": ["Rosa"]},
				{"number": 6, "title": "The Lantern", "theme": "legacy", "keyCharacters": ["Rosa"]}
			]` + "\n```", nil, nil
		})
		e := NewEngine(g, nil, nil, nil, nil)

		outline, err := e.GenerateOutline(context.Background(), &store.BookProject{ID: "p1", Title: "T", SubjectName: "Rosa"})
		require.NoError(t, err)
		require.Len(t, outline, 6)
		for i, item := range outline {
			assert.Equal(t, i+1, item.Number)
		}
		assert.Equal(t, "Crossing the Sea", outline[1].Title)
	})

	t.Run("unparseable outline is fatal", func(t *testing.T) {
		g := gatewayFunc(func(_ context.Context, _ string, _ int) (string, *gateway.CallStats, error) {
			return "here is your outline in prose", nil, nil
		})
		e := NewEngine(g, nil, nil, nil, nil)

		_, err := e.GenerateOutline(context.Background(), &store.BookProject{ID: "p1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse chapter outline")
	})

	t.Run("empty outline is fatal", func(t *testing.T) {
		g := gatewayFunc(func(_ context.Context, _ string, _ int) (string, *gateway.CallStats, error) {
			return "[]", nil, nil
		})
		e := NewEngine(g, nil, nil, nil, nil)

		_, err := e.GenerateOutline(context.Background(), &store.BookProject{ID: "p1"})
		require.Error(t, err)
	})
}
