package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstack/flowstack/internal/store"
	"github.com/flowstack/flowstack/pkg/schema"
)

func assertPNG(t *testing.T, png []byte) {
	t.Helper()
	require.True(t, len(png) > 8, "PNG should be larger than header")
	assert.Equal(t, byte(0x89), png[0])
	assert.Equal(t, byte('P'), png[1])
	assert.Equal(t, byte('N'), png[2])
	assert.Equal(t, byte('G'), png[3])
}

func TestRenderImagePipeline(t *testing.T) {
	png, err := RenderImage(Build(pipelineDefinition(), nil))
	require.NoError(t, err)
	assertPNG(t, png)
}

func TestRenderImageWithStatuses(t *testing.T) {
	runs := []*store.NodeRun{
		{NodeKey: "start", Status: schema.NodeRunStatusSuccess},
		{NodeKey: "check", Status: schema.NodeRunStatusRunning},
		{NodeKey: "fetch", Status: schema.NodeRunStatusPending},
	}
	png, err := RenderImage(Build(pipelineDefinition(), runs))
	require.NoError(t, err)
	assertPNG(t, png)
}
