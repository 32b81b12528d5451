package docx

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Purchase Order PO-4411</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Supplier: </w:t></w:r><w:r><w:t>Acme Metals Ltd</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Product</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Qty</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Copper</w:t></w:r></w:p><w:p><w:r><w:t>cathode</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>25</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>Delivery date 2026-05-01</w:t></w:r></w:p>
</w:body>
</w:document>`

const coreXMLContent = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
 xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title> Order 4411 </dc:title></cp:coreProperties>`

func writeDocx(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{"docx"}, New().Extensions())
}

func TestExtract_ParagraphsAndTables(t *testing.T) {
	path := writeDocx(t, map[string]string{
		"word/document.xml": documentXML,
		"docProps/core.xml": coreXMLContent,
	})

	ext, err := New().Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t,
		"Purchase Order PO-4411\nSupplier: Acme Metals Ltd\n\n"+
			"| Product | Qty |\n| --- | --- |\n| Copper cathode | 25 |\n\n"+
			"Delivery date 2026-05-01",
		ext.Text)

	require.Len(t, ext.Tables, 1)
	assert.Equal(t, []string{"Product", "Qty"}, ext.Tables[0].Headers)
	assert.Equal(t, [][]string{{"Copper cathode", "25"}}, ext.Tables[0].Rows)
	assert.Contains(t, ext.Tables[0].HTML, "<td>Copper cathode</td>")

	assert.Equal(t, "Order 4411", ext.Metadata["title"])
	assert.Equal(t, 3, ext.Metadata["paragraphs"])
	assert.Equal(t, 1, ext.Metadata["tables"])
}

func TestExtract_MissingDocumentPart(t *testing.T) {
	path := writeDocx(t, map[string]string{"other.xml": "<x/>"})

	_, err := New().Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0600))

	_, err := New().Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_MalformedXML(t *testing.T) {
	path := writeDocx(t, map[string]string{"word/document.xml": "<w:document><w:body>"})

	_, err := New().Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
