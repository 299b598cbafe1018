package loader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// LoadSections reads the knowledge file and splits it into blank-line
// delimited sections. A missing file is reported and yields zero
// sections; it is not an error at this level.
func LoadSections(path string) ([]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Error().Str("path", path).Msg("Knowledge file not found")
		return nil, nil
	}

	content, err := ExtractText(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file %s: %w", path, err)
	}

	sections := SplitSections(content)
	log.Info().Int("sections", len(sections)).Str("path", path).Msg("Loaded knowledge sections")
	return sections, nil
}

// SplitSections splits raw text on blank lines, trimming each piece and
// dropping empty ones.
func SplitSections(content string) []string {
	var sections []string
	for _, part := range strings.Split(content, "\n\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			sections = append(sections, part)
		}
	}
	return sections
}

// ExtractText pulls plain text out of the supported knowledge formats.
func ExtractText(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return extractPDF(filePath)
	case ".docx":
		return extractDOCX(filePath)
	case ".pptx":
		return extractPPTX(filePath)
	case ".xlsx":
		return extractXLSX(filePath)
	case ".ods":
		return extractODS(filePath)
	case ".md":
		return extractMarkdown(filePath)
	case ".txt", "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}
}

// extractMarkdown renders markdown to HTML and strips the tags, so
// headings and emphasis markers do not leak into the sections.
func extractMarkdown(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return "", err
	}

	html := buf.String()
	var text strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			text.WriteRune(r)
		}
	}
	return strings.ReplaceAll(text.String(), "&quot;", `"`), nil
}

func extractPDF(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}
	return text.String(), nil
}

func extractDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var text strings.Builder
	for _, p := range strings.Split(content, "</w:p>") {
		para := extractTextFromXML(p, "<w:t")
		if strings.TrimSpace(para) != "" {
			text.WriteString(strings.TrimSpace(para))
			text.WriteString("\n\n")
		}
	}
	return text.String(), nil
}

func extractPPTX(filePath string) (string, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := extractTextFromXML(string(data), "<a:t")
		if strings.TrimSpace(slideText) != "" {
			text.WriteString(strings.TrimSpace(slideText))
			text.WriteString("\n\n")
		}
	}
	return text.String(), nil
}

func extractXLSX(filePath string) (string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}
	return text.String(), nil
}

func extractODS(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}
	return text.String(), nil
}

// extractTextFromXML pulls the text runs opened by the given tag prefix
// out of an OOXML fragment.
func extractTextFromXML(xmlContent, openTag string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, openTag)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		// skip past the rest of the opening tag
		gt := strings.Index(part, ">")
		if gt < 0 {
			continue
		}
		// tag prefix may also match e.g. <w:tbl>, which has no closing text run
		if part[:gt] != "" && !strings.HasPrefix(part, ">") && !strings.HasPrefix(part, " ") && !strings.HasPrefix(part, "/") {
			continue
		}
		rest := part[gt+1:]
		end := strings.Index(rest, "</")
		if end >= 0 {
			text.WriteString(rest[:end] + " ")
		}
	}
	return text.String()
}
