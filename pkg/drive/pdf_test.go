package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPDFTextRejectsGarbage(t *testing.T) {
	_, err := ExtractPDFText([]byte("this is not a pdf"))
	assert.Error(t, err)
}

func TestExtractPDFTextRejectsEmptyInput(t *testing.T) {
	_, err := ExtractPDFText(nil)
	assert.Error(t, err)
}
