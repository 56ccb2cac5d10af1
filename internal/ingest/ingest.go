// Package ingest loads regulation text converted from PDF and recovers
// page boundaries for page attribution.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/dcpr/internal/types"
)

// formFeed separates pages in pdftotext output.
const formFeed = '\f'

var partSuffix = regexp.MustCompile(`-(\d+)\.[A-Za-z0-9]+$`)

// Request contains the parameters for loading a document.
type Request struct {
	TextPaths []string     // Text files; multi-part files are sorted by numeric suffix
	PDFPath   string       // Optional source PDF for the page count
	PageCount int          // Optional page count when no PDF is available
	Name      string       // Document name (optional, derived from filename if empty)
	Logger    *slog.Logger // Optional logger for progress updates
}

// Load reads the text, concatenating parts with a page break, and attaches
// whatever page information is available. An unreadable input is
// types.ErrSourceUnavailable.
func Load(ctx context.Context, req Request) (*types.Document, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	if len(req.TextPaths) == 0 {
		return nil, fmt.Errorf("%w: no text paths provided", types.ErrSourceUnavailable)
	}

	sorted := sortByPartNumber(req.TextPaths)
	var b strings.Builder
	for i, p := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, sourceError(p, err)
		}
		if i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), string(formFeed)) {
			b.WriteRune(formFeed)
		}
		b.Write(data)
		log.Debug("read text part", "file", filepath.Base(p), "bytes", len(data))
	}

	name := req.Name
	if name == "" {
		name = deriveName(sorted[0])
	}
	doc := types.NewDocument(name, b.String())
	doc.PageOffsets = PageOffsets(doc.Text)

	pdfPages := 0
	if req.PDFPath != "" {
		n, err := PDFPageCount(req.PDFPath)
		if err != nil {
			return nil, err
		}
		pdfPages = n
	}

	switch {
	case pdfPages > 0:
		doc.PageCount = pdfPages
		if len(doc.PageOffsets) > 0 && len(doc.PageOffsets) != pdfPages {
			log.Warn("page breaks disagree with PDF page count",
				"breaks", len(doc.PageOffsets), "pdf_pages", pdfPages)
		}
	case len(doc.PageOffsets) > 0:
		doc.PageCount = len(doc.PageOffsets)
	default:
		doc.PageCount = req.PageCount
	}
	doc.PagesEstimated = len(doc.PageOffsets) == 0 && doc.PageCount > 0

	log.Info("document loaded",
		"name", doc.Name,
		"bytes", len(doc.Text),
		"pages", doc.PageCount,
		"page_breaks", len(doc.PageOffsets),
		"estimated", doc.PagesEstimated)
	return doc, nil
}

// PageOffsets returns the byte offset where each page starts when text
// carries form-feed page breaks, or nil when it has none. A trailing break
// does not open an empty page.
func PageOffsets(text string) []int {
	if strings.IndexRune(text, formFeed) < 0 {
		return nil
	}
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == formFeed && i+1 < len(text) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// PDFPageCount returns the number of pages in a PDF.
func PDFPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, sourceError(path, err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get page count for %s: %v", types.ErrSourceUnavailable, path, err)
	}
	return n, nil
}

func sourceError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s not found", types.ErrSourceUnavailable, path)
	}
	return fmt.Errorf("%w: %s: %v", types.ErrSourceUnavailable, path, err)
}

// sortByPartNumber sorts paths by their numeric suffix.
// e.g., ["dcpr-2.txt", "dcpr-1.txt", "dcpr-10.txt"] -> ["dcpr-1.txt", "dcpr-2.txt", "dcpr-10.txt"]
func sortByPartNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		mi := partSuffix.FindStringSubmatch(sorted[i])
		mj := partSuffix.FindStringSubmatch(sorted[j])

		// If both have numbers, sort numerically
		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			return ni < nj
		}

		// Files without numbers come first
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}

		return sorted[i] < sorted[j]
	})

	return sorted
}

// deriveName extracts a document name from a filename.
// e.g., "dcpr.txt" -> "dcpr"
// e.g., "dcpr-part-1.txt" -> "dcpr-part"
func deriveName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if partSuffix.MatchString(base) {
		name = regexp.MustCompile(`-\d+$`).ReplaceAllString(name, "")
	}
	return name
}
