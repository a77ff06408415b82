package extractor

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/internal/types"
)

// PDFExtractor reads a PDF file and emits one text element per page,
// carrying the page number and the source filename.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Extract(path string) ([]models.Element, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	source := filepath.Base(path)
	var elements []models.Element

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("failed to extract text from %s page %d: %v", source, i, err)
			continue
		}

		elements = append(elements, models.Element{
			Text:       text,
			Source:     source,
			PageNumber: i,
			Metadata:   map[string]interface{}{},
		})
	}

	return elements, nil
}

// Loader walks a directory and extracts every .pdf file in it.
type Loader struct {
	directory string
	extractor types.Extractor
}

func NewLoader(directory string) *Loader {
	return &Loader{
		directory: directory,
		extractor: NewPDFExtractor(),
	}
}

// Load returns the elements of every PDF in the directory. A missing
// directory yields zero elements, not an error. A file that fails to
// parse is logged and skipped; the rest of the batch proceeds.
func (l *Loader) Load() ([]models.Element, error) {
	if _, err := os.Stat(l.directory); os.IsNotExist(err) {
		log.Printf("directory %s does not exist", l.directory)
		return nil, nil
	}

	entries, err := os.ReadDir(l.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", l.directory, err)
	}

	var elements []models.Element
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}

		docElements, err := l.extractor.Extract(filepath.Join(l.directory, entry.Name()))
		if err != nil {
			log.Printf("error loading %s: %v", entry.Name(), err)
			continue
		}
		elements = append(elements, docElements...)
	}

	return elements, nil
}
