package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_QuotedSentenceIsLexical(t *testing.T) {
	s := &Service{}
	lexical, semantic := s.classify(`"exact phrase"`)
	assert.Equal(t, "exact phrase", lexical)
	assert.Empty(t, semantic)
}

func TestClassify_UnquotedSentenceIsSemantic(t *testing.T) {
	s := &Service{}
	lexical, semantic := s.classify("how does concurrency work")
	assert.Empty(t, lexical)
	assert.Equal(t, "how does concurrency work", semantic)
}

func TestClassify_TrimsWhitespaceBeforeClassifying(t *testing.T) {
	s := &Service{}
	lexical, semantic := s.classify(`  "phrase"  `)
	assert.Equal(t, "phrase", lexical)
	assert.Empty(t, semantic)
}

func TestClassify_LoneQuoteCharIsNotLexical(t *testing.T) {
	s := &Service{}
	lexical, semantic := s.classify(`"`)
	assert.Empty(t, lexical)
	assert.Equal(t, `"`, semantic)
}
