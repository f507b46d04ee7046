package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanContent_StripsLinksKeepsText(t *testing.T) {
	out, err := CleanContent(`<p>See the <a href="https://example.com/docs">documentation</a> for details.</p>`)
	require.NoError(t, err)

	assert.Contains(t, out, "documentation")
	assert.NotContains(t, out, "https://example.com/docs")
	assert.NotContains(t, out, "](")
}

func TestCleanContent_DropsImages(t *testing.T) {
	out, err := CleanContent(`<p>Before.</p><p><img src="photo.png" alt="a photo"/></p><p>After.</p>`)
	require.NoError(t, err)

	assert.NotContains(t, out, "photo.png")
	assert.NotContains(t, out, "a photo")
	assert.Contains(t, out, "Before.")
	assert.Contains(t, out, "After.")
}

func TestCleanContent_DropsTableRows(t *testing.T) {
	out, err := CleanContent(
		`<p>Intro.</p><table><tr><th>Col A</th><th>Col B</th></tr><tr><td>cell 1</td><td>cell 2</td></tr></table><p>Outro.</p>`)
	require.NoError(t, err)

	assert.NotContains(t, out, "|")
	assert.NotContains(t, out, "cell 1")
	assert.Contains(t, out, "Intro.")
	assert.Contains(t, out, "Outro.")
}

func TestCleanContent_StripsEmphasisMarkers(t *testing.T) {
	out, err := CleanContent(`<p>Some <strong>bold</strong> and <em>italic</em> words.</p>`)
	require.NoError(t, err)

	assert.NotContains(t, out, "*")
	assert.NotContains(t, out, "_")
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "italic")
}

func TestCleanContent_CollapsesBlankLines(t *testing.T) {
	out, err := CleanContent(`<p>One.</p><p>Two.</p><p>Three.</p>`)
	require.NoError(t, err)

	assert.NotContains(t, out, "\n\n")
	assert.Contains(t, out, "One.")
	assert.Contains(t, out, "Three.")
}
