package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// Subset produces a standalone PDF containing copies of exactly the requested
// zero-based pages of src, in the order given, and reports how many pages
// survived. Requested indices outside [0, pageCount) are silently dropped:
// a user-entered range may legitimately exceed the document length.
//
// A kept count of zero means no requested page exists in the source; no
// document is produced and the caller should keep using the original bytes.
// Source bytes that do not parse as a PDF are an error.
func Subset(src []byte, pages []int) ([]byte, int, error) {
	total, err := api.PageCount(bytes.NewReader(src), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("read pdf: %w", err)
	}

	// pdfcpu page numbers are 1-based.
	nrs := make([]int, 0, len(pages))
	for _, p := range pages {
		if p >= 0 && p < total {
			nrs = append(nrs, p+1)
		}
	}
	if len(nrs) == 0 {
		return nil, 0, nil
	}

	ctx, err := api.ReadContext(bytes.NewReader(src), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("read pdf: %w", err)
	}

	extracted, err := pdfcpu.ExtractPages(ctx, nrs, false)
	if err != nil {
		return nil, 0, fmt.Errorf("extract pages: %w", err)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(extracted, &buf); err != nil {
		return nil, 0, fmt.Errorf("write subset pdf: %w", err)
	}
	return buf.Bytes(), len(nrs), nil
}
