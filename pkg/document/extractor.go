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

// Package document extracts plain text from uploaded study materials. PDF,
// DOCX and XLSX are parsed natively; everything else is treated as plain
// text.
package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

// Extraction is the result of pulling text out of an uploaded document.
type Extraction struct {
	Text       string            `json:"text"`
	Sections   []string          `json:"sections,omitempty"`
	Format     string            `json:"format"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	WordCount  int               `json:"word_count"`
	TokenCount int               `json:"token_count"`
}

// Extractor turns raw uploads into Extractions.
type Extractor struct {
	maxBytes int64
	counter  *TokenCounter
}

// NewExtractor creates an extractor. maxBytes <= 0 disables the size check.
func NewExtractor(maxBytes int64, counter *TokenCounter) *Extractor {
	if counter == nil {
		counter = NewTokenCounter("")
	}
	return &Extractor{
		maxBytes: maxBytes,
		counter:  counter,
	}
}

// Extract parses data according to the filename extension.
func (e *Extractor) Extract(filename string, data []byte) (*Extraction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("document %q is empty", filename)
	}
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("document %q exceeds size limit (%d bytes)", filename, e.maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text     string
		sections []string
		err      error
	)
	switch ext {
	case ".pdf":
		text, sections, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".xlsx", ".xls":
		text, sections, err = extractXLSX(data)
	default:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("document %q is not valid text", filename)
		}
		text = string(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract %q: %w", filename, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("document %q contains no extractable text", filename)
	}

	format := strings.TrimPrefix(ext, ".")
	if format == "" {
		format = "text"
	}

	return &Extraction{
		Text:       text,
		Sections:   sections,
		Format:     format,
		WordCount:  len(strings.Fields(text)),
		TokenCount: e.counter.Count(text),
	}, nil
}

func extractPDF(data []byte) (string, []string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	var sections []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages rather than failing the whole document
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		sections = append(sections, pageText)
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}
	return sb.String(), sections, nil
}

func extractDOCX(data []byte) (string, error) {
	reader, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer reader.Close()

	content := reader.Editable().GetContent()
	return stripXMLTags(content), nil
}

// stripXMLTags removes markup from DOCX content, inserting newlines at
// paragraph boundaries.
func stripXMLTags(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	var sb strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func extractXLSX(data []byte) (string, []string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	var sections []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		var sheetText strings.Builder
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line == "" {
				continue
			}
			sheetText.WriteString(line)
			sheetText.WriteString("\n")
		}
		if sheetText.Len() == 0 {
			continue
		}
		sections = append(sections, sheetText.String())
		sb.WriteString(sheetText.String())
		sb.WriteString("\n")
	}
	return sb.String(), sections, nil
}
