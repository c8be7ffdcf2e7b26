package emailvision

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ParamsEncoder renders POST parameters as an XML request body.
type ParamsEncoder func(params map[string]string) ([]byte, error)

const xmlDeclaration = "<?xml version='1.0' encoding='utf-8'?>\n"

// EmptyRootEncoder ignores params and always sends an empty <root/>
// document. It is the default POST body until a real format is settled.
func EmptyRootEncoder(map[string]string) ([]byte, error) {
	return []byte(xmlDeclaration + "<root/>"), nil
}

// ElementParamsEncoder renders each param as a child element of <root>,
// in key order: {"a": "1"} becomes <root><a>1</a></root>.
func ElementParamsEncoder(params map[string]string) ([]byte, error) {
	if len(params) == 0 {
		return EmptyRootEncoder(nil)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{Name: xml.Name{Local: "root"}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, fmt.Errorf("encoding root element: %w", err)
	}
	for _, k := range keys {
		if err := enc.EncodeElement(params[k], xml.StartElement{Name: xml.Name{Local: k}}); err != nil {
			return nil, fmt.Errorf("encoding param %q: %w", k, err)
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, fmt.Errorf("encoding root element: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("flushing xml encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// firstResult returns the text of the first <result> child of the root
// <response> element. Only the text before the result's first child node
// counts. The document must hold exactly one root element; anything but
// whitespace, comments or processing instructions around it is malformed.
func firstResult(text string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(text))

	var (
		root       xml.Name
		rootSeen   bool
		depth      int
		found      bool
		collecting bool
		result     strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", parseFailure(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case depth == 0 && rootSeen:
				return "", parseFailure(errExtraContent)
			case depth == 0:
				root, rootSeen = t.Name, true
			case depth == 1 && !found && t.Name.Local == "result":
				found, collecting = true, true
			default:
				collecting = false
			}
			depth++
		case xml.EndElement:
			depth--
			if depth <= 1 {
				collecting = false
			}
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return "", parseFailure(errExtraContent)
			}
			if collecting && depth == 2 {
				result.Write(t)
			}
		case xml.Comment, xml.ProcInst:
			if depth == 2 {
				collecting = false
			}
		}
	}

	if !rootSeen {
		return "", parseFailure(errNoRoot)
	}
	if root.Local != "response" || !found {
		return "", NewError(KindProtocol, "unexpected response from server", "")
	}
	return result.String(), nil
}

var (
	errExtraContent = errors.New("extra content at the end of the document")
	errNoRoot       = errors.New("document has no root element")
)

func parseFailure(err error) *Error {
	return wrapError(KindParse, err, "parse failure: %v", err)
}
