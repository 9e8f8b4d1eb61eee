package engine

import (
	"fmt"
	"io"

	"github.com/beevik/etree"
)

// ReadDocument parses one XML document from r.
func ReadDocument(r io.Reader) (*etree.Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse document: no root element")
	}
	return doc, nil
}

// ReadDocumentFile parses the XML document stored at path.
func ReadDocumentFile(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse %s: no root element", path)
	}
	return doc, nil
}

// WriteDocument serializes the document to w with an XML declaration
// carrying the given encoding label and two-space indentation. The
// document itself is not modified. Output bytes are always UTF-8; the
// label only ends up in the declaration.
func WriteDocument(doc *etree.Document, w io.Writer, encoding string) error {
	if doc == nil || doc.Root() == nil {
		return fmt.Errorf("write document: no root element")
	}
	if encoding == "" {
		encoding = "utf-8"
	}

	out := etree.NewDocument()
	out.CreateProcInst("xml", fmt.Sprintf(`version="1.0" encoding=%q`, encoding))
	out.SetRoot(doc.Root().Copy())
	out.Indent(2)

	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
