package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"

	apperrors "skillmatch/internal/errors"
)

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperrors.NewExtractionError(apperrors.ErrCodeExtractionFailed, "failed to parse docx", err)
	}
	defer doc.Close()

	text, err := documentText(doc.Editable().GetContent())
	if err != nil {
		return "", apperrors.NewExtractionError(apperrors.ErrCodeExtractionFailed, "failed to read docx body", err)
	}
	return text, nil
}

// documentText flattens WordprocessingML into text. Paragraphs and breaks
// become newlines, tabs become tab characters.
func documentText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = false

	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if sb.Len() > 0 {
				break
			}
			return "", err
		}

		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			switch t.Name.Local {
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String(), nil
}
