package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID   string `json:"id"`
	Read bool   `json:"read"`
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, SetJSON(ctx, s, "k", []entry{{ID: "a"}, {ID: "b", Read: true}}))

	var got []entry
	require.True(t, GetJSON(ctx, s, "k", &got))
	assert.Equal(t, []entry{{ID: "a"}, {ID: "b", Read: true}}, got)
}

func TestGetJSONTreatsBadPayloadsAsAbsent(t *testing.T) {
	cases := map[string]string{
		"not json":      `{{{`,
		"wrong shape":   `{"id":"a"}`,
		"wrong type":    `[{"id":"a"},{"id":7}]`,
		"null":          `null`,
		"empty payload": ``,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewMemory()
			require.NoError(t, s.Set(ctx, "k", []byte(payload)))

			got := []entry{{ID: "keep"}}
			assert.False(t, GetJSON(ctx, s, "k", &got))
			assert.Equal(t, []entry{{ID: "keep"}}, got, "destination must be untouched")
		})
	}
}

func TestGetJSONAbsentKey(t *testing.T) {
	var got []entry
	assert.False(t, GetJSON(context.Background(), NewMemory(), "missing", &got))
	assert.Nil(t, got)
}
