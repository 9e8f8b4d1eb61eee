package engine

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"ruledxml/internal/xmlpath"
	"ruledxml/internal/xmltree"
	"ruledxml/rules"
)

// RequiredPathError reports a declared content requirement that the
// document fails to satisfy.
type RequiredPathError struct {
	// Path is the raw path expression of the failed requirement.
	Path string
	// File names the document, when known.
	File string
	// Empty is true when the path exists but holds no value.
	Empty bool
}

func (e *RequiredPathError) Error() string {
	where := ""
	if e.File != "" {
		where = fmt.Sprintf(" in XML file %q", e.File)
	}
	if e.Empty {
		return fmt.Sprintf("path %s%s is empty but must contain a value", e.Path, where)
	}
	return fmt.Sprintf("path %s%s does not exist", e.Path, where)
}

// CheckRequired verifies that every required path exists in the document
// and every nonempty path holds a non-blank value. The filename is only
// used for error messages and may be empty.
func CheckRequired(doc *etree.Document, required, nonempty []string, table []rules.Binding, filename string) error {
	return checkRequired(doc, required, nonempty, bindingTable(table, zap.NewNop()), filename)
}

func checkRequired(doc *etree.Document, required, nonempty []string, table []xmlpath.Binding, filename string) error {
	for _, expr := range required {
		qp, err := qualifyPath(expr, table)
		if err != nil {
			return err
		}
		ok, err := xmltree.Exists(doc, qp)
		if err != nil {
			return err
		}
		if !ok {
			return &RequiredPathError{Path: expr, File: filename}
		}
	}

	// A missing path reads as the empty string, so nonempty subsumes
	// existence.
	for _, expr := range nonempty {
		qp, err := qualifyPath(expr, table)
		if err != nil {
			return err
		}
		v, err := xmltree.Read(doc, qp)
		if err != nil {
			return err
		}
		if v == "" {
			return &RequiredPathError{Path: expr, File: filename, Empty: true}
		}
	}
	return nil
}
