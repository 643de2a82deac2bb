// Copyright 2026 The TutorKit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_PlainText(t *testing.T) {
	e := NewExtractor(0, nil)

	text := "Photosynthesis converts light into chemical energy. Plants use chlorophyll."
	ext, err := e.Extract("notes.txt", []byte(text))
	require.NoError(t, err)

	assert.Equal(t, text, ext.Text)
	assert.Equal(t, "txt", ext.Format)
	assert.Equal(t, 9, ext.WordCount)
	assert.Greater(t, ext.TokenCount, 0)
}

func TestExtractor_NoExtension(t *testing.T) {
	e := NewExtractor(0, nil)

	ext, err := e.Extract("README", []byte("some study notes"))
	require.NoError(t, err)
	assert.Equal(t, "text", ext.Format)
}

func TestExtractor_EmptyDocument(t *testing.T) {
	e := NewExtractor(0, nil)

	_, err := e.Extract("empty.txt", nil)
	assert.Error(t, err)

	_, err = e.Extract("blank.txt", []byte("   \n\t  "))
	assert.Error(t, err, "whitespace-only documents have no extractable text")
}

func TestExtractor_SizeLimit(t *testing.T) {
	e := NewExtractor(10, nil)

	_, err := e.Extract("big.txt", []byte(strings.Repeat("a", 11)))
	assert.Error(t, err)

	_, err = e.Extract("small.txt", []byte("tiny"))
	assert.NoError(t, err)
}

func TestExtractor_InvalidUTF8(t *testing.T) {
	e := NewExtractor(0, nil)

	_, err := e.Extract("binary.txt", []byte{0xff, 0xfe, 0x00, 0x81})
	assert.Error(t, err)
}

func TestExtractor_MalformedPDF(t *testing.T) {
	e := NewExtractor(0, nil)

	_, err := e.Extract("broken.pdf", []byte("this is not a pdf"))
	assert.Error(t, err)
}

func TestExtractor_MalformedDOCX(t *testing.T) {
	e := NewExtractor(0, nil)

	_, err := e.Extract("broken.docx", []byte("this is not a docx"))
	assert.Error(t, err)
}

func TestTokenCounter_Count(t *testing.T) {
	counter := NewTokenCounter("")

	assert.Equal(t, 0, counter.Count(""))

	// Whether tiktoken loads or the estimate kicks in, a real sentence is
	// always multiple tokens.
	n := counter.Count("The quick brown fox jumps over the lazy dog.")
	assert.Greater(t, n, 3)
}

func TestStripXMLTags(t *testing.T) {
	got := stripXMLTags(`<w:t>Hello</w:t> <w:t>world</w:t></w:p><w:t>next</w:t>`)
	assert.Contains(t, got, "Hello")
	assert.Contains(t, got, "world")
	assert.NotContains(t, got, "<w:t>")
}
