package chroma

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateContentShortPassthrough(t *testing.T) {
	content := "short document body"
	assert.Equal(t, content, TruncateContent(content))
}

func TestTruncateContentLongGetsMarker(t *testing.T) {
	content := strings.Repeat("a", MaxDocumentChars+500)
	got := TruncateContent(content)

	assert.True(t, strings.HasSuffix(got, truncationMarker))
	assert.Equal(t, MaxDocumentChars+len(truncationMarker), len(got))
}

func TestTruncateContentExactBoundary(t *testing.T) {
	content := strings.Repeat("b", MaxDocumentChars)
	assert.Equal(t, content, TruncateContent(content))
}
