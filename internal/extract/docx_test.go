package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docxHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`

func TestExtractDocxParagraphs(t *testing.T) {
	data := buildDocx(t, docxHeader+
		`<w:body>`+
		`<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	text, err := Extract(data, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestExtractDocxTabsAndBreaks(t *testing.T) {
	data := buildDocx(t, docxHeader+
		`<w:body>`+
		`<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	text, err := Extract(data, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nc", text)
}

func TestExtractDocxIgnoresNonTextNodes(t *testing.T) {
	data := buildDocx(t, docxHeader+
		`<w:body>`+
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr>`+
		`<w:r><w:rPr><w:b/></w:rPr><w:t>visible</w:t></w:r></w:p>`+
		`</w:body></w:document>`)

	text, err := Extract(data, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "visible", text)
}

func TestExtractDocxEmptyBody(t *testing.T) {
	data := buildDocx(t, docxHeader+`<w:body></w:body></w:document>`)
	_, err := Extract(data, ".docx")
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestExtractDocxNotAZip(t *testing.T) {
	_, err := Extract([]byte("plain text, no zip magic"), ".docx")
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestExtractDocxMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Extract(buf.Bytes(), ".docx")
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestExtractDocxMalformedXML(t *testing.T) {
	data := buildDocx(t, docxHeader+`<w:body><w:p><w:t>unclosed`)
	_, err := Extract(data, ".docx")
	assert.ErrorIs(t, err, ErrCorruptFile)
}
