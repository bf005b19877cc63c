package discovery

import (
	"context"
	"testing"

	"scholarmap-backend/domain"
	pkgerrors "scholarmap-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDiscoverer_Shape(t *testing.T) {
	d := NewStaticDiscoverer()

	items, err := d.Discover(context.Background(), "Persuasion", nil)
	require.NoError(t, err)

	require.Len(t, items, 4)
	assert.Equal(t, "Persuasion", items[0].Label)
	assert.Equal(t, domain.NodeTypeTopic, items[0].Type)
	assert.Nil(t, items[0].ParentIndex)

	// Every non-root item expands the root.
	for _, item := range items[1:] {
		require.NotNil(t, item.ParentIndex)
		assert.Equal(t, 0, *item.ParentIndex)
	}

	// Each node carries at least one source.
	for _, item := range items {
		assert.NotEmpty(t, item.Sources)
	}
}

func TestStaticDiscoverer_HonorsCancelledContext(t *testing.T) {
	d := NewStaticDiscoverer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Discover(ctx, "topic", nil)

	assert.Error(t, err)
}

func TestParsePayload_Valid(t *testing.T) {
	content := `{"nodes":[
		{"label":"Graphs","type":"topic","score":1.0,
		 "sources":[{"kind":"article","title":"Intro","rank":0}]},
		{"label":"Traversal","type":"subtopic","parentIndex":0}
	]}`

	items, err := parsePayload(content)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "Graphs", items[0].Label)
	require.NotNil(t, items[1].ParentIndex)
	assert.Equal(t, 0, *items[1].ParentIndex)
	assert.Equal(t, "Intro", items[0].Sources[0].Title)
}

func TestParsePayload_FencedJSON(t *testing.T) {
	content := "```json\n{\"nodes\":[{\"label\":\"Graphs\",\"type\":\"topic\"}]}\n```"

	items, err := parsePayload(content)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestParsePayload_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":            "nope",
		"empty nodes":         `{"nodes":[]}`,
		"missing label":       `{"nodes":[{"type":"topic"}]}`,
		"forward parentIndex": `{"nodes":[{"label":"a","type":"topic","parentIndex":1},{"label":"b","type":"subtopic"}]}`,
		"self parentIndex":    `{"nodes":[{"label":"a","type":"topic","parentIndex":0}]}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parsePayload(content)
			require.Error(t, err)
			appErr := pkgerrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.ErrorTypeExternal, appErr.Type)
		})
	}
}

func TestParsePayload_DefaultsType(t *testing.T) {
	items, err := parsePayload(`{"nodes":[{"label":"untyped"}]}`)
	require.NoError(t, err)
	assert.Equal(t, domain.NodeTypeSubtopic, items[0].Type)
}
