// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType IdentifierType
		wantNorm string
	}{
		{"arxiv bare", "2301.07041", TypeArxiv, "2301.07041"},
		{"arxiv prefixed", "arXiv:2301.07041", TypeArxiv, "2301.07041"},
		{"arxiv versioned", "2301.07041v2", TypeArxiv, "2301.07041"},
		{"arxiv five digit", "2301.12345", TypeArxiv, "2301.12345"},
		{"arxiv abs url", "https://arxiv.org/abs/1706.03762v7", TypeArxiv, "1706.03762"},
		{"arxiv pdf url", "https://arxiv.org/pdf/1706.03762.pdf", TypeArxiv, "1706.03762"},
		{"doi simple", "10.1145/1234567.1234568", TypeDOI, "10.1145/1234567.1234568"},
		{"doi lowercased", "10.1038/S41586-024-07487-W", TypeDOI, "10.1038/s41586-024-07487-w"},
		{"doi prefixed", "doi:10.1145/3368089", TypeDOI, "10.1145/3368089"},
		{"doi url", "https://doi.org/10.1145/3368089", TypeDOI, "10.1145/3368089"},
		{"doi dx url", "http://dx.doi.org/10.1145/3368089", TypeDOI, "10.1145/3368089"},
		{"other url", "https://example.com/paper.pdf", TypeUnknown, "https://example.com/paper.pdf"},
		{"unknown bare word", "not-an-id", TypeUnknown, "not-an-id"},
		{"unknown empty", "", TypeUnknown, ""},
		{"whitespace trimmed", "  2301.07041  ", TypeArxiv, "2301.07041"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotNorm := Classify(tt.input)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantNorm, gotNorm)
		})
	}
}

func TestSourceID(t *testing.T) {
	assert.Equal(t, "arxiv:1706.03762", SourceID(TypeArxiv, "1706.03762"))
	assert.Equal(t, "doi:10.1145/3368089", SourceID(TypeDOI, "10.1145/3368089"))
	assert.Empty(t, SourceID(TypeUnknown, "x"))
}

func TestIdentifierTypeString(t *testing.T) {
	assert.Equal(t, "arxiv", TypeArxiv.String())
	assert.Equal(t, "doi", TypeDOI.String())
	assert.Equal(t, "unknown", TypeUnknown.String())
}
