// Package extract composes the ingestion pipeline: decode a submission,
// optionally narrow a PDF to the selected pages, dispatch to the extraction
// collaborator and validate the returned records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"datepull/internal/event"
	"datepull/internal/form"
	appLog "datepull/internal/log"
	"datepull/internal/pdf"
)

// ErrEmptyInput is returned when a submission carries neither a file nor
// non-blank schedule text.
var ErrEmptyInput = errors.New("submission needs a file or schedule text")

// Extractor is the external structured-extraction capability. Implementations
// map an optional inline document plus an instruction to the raw JSON text of
// the event list, under the fixed ResponseSchema contract.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType, instruction string) ([]byte, error)
}

// Submission is one decoded inbound request.
type Submission struct {
	FileData      []byte
	FileMediaType string
	Text          string
	PDFPages      string
}

// NewSubmission pulls the agreed field names out of a decoded multipart form.
// Unknown fields are ignored.
func NewSubmission(f *form.Form) Submission {
	sub := Submission{
		Text:     f.Fields["text"],
		PDFPages: f.Fields["pdfPages"],
	}
	if file, ok := f.Files["file"]; ok {
		sub.FileData = file.Data
		sub.FileMediaType = file.MediaType
	}
	return sub
}

// Service runs the ingestion pipeline against a configured Extractor.
type Service struct {
	extractor Extractor
	timezone  string
}

// NewService creates a Service. timezone is the fixed wall-clock zone embedded
// into the extraction instruction.
func NewService(extractor Extractor, timezone string) *Service {
	return &Service{extractor: extractor, timezone: timezone}
}

// Analyze processes one submission and returns the validated event list.
// An empty list is a valid outcome, distinct from any error.
func (s *Service) Analyze(ctx context.Context, sub Submission) ([]event.Event, error) {
	text := strings.TrimSpace(sub.Text)
	if len(sub.FileData) == 0 && text == "" {
		return nil, ErrEmptyInput
	}

	fileData := sub.FileData
	if len(fileData) > 0 && isPDF(sub.FileMediaType) {
		narrowed, err := s.narrowPDF(fileData, sub.PDFPages)
		if err != nil {
			return nil, err
		}
		fileData = narrowed
	}

	appLog.Debug("dispatching extraction",
		"mime_type", sub.FileMediaType,
		"file_bytes", len(fileData),
		"text_len", len(text),
	)

	raw, err := s.extractor.Extract(ctx, fileData, sub.FileMediaType, Instruction(text, s.timezone))
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	events, err := event.DecodeResponse(raw)
	if err != nil {
		return nil, err
	}

	appLog.Info("analyze completed", "event_count", len(events), "has_file", len(sub.FileData) > 0)
	return events, nil
}

// narrowPDF replaces src with a subset containing only the selected pages.
// "No selection" and "selection survives no page" both keep the original
// bytes; a source that does not parse as a PDF is fatal for the request, the
// declared media type promised one.
func (s *Service) narrowPDF(src []byte, pagesInput string) ([]byte, error) {
	selection := pdf.ParsePageSelection(pagesInput)
	if selection == nil {
		return src, nil
	}

	subset, kept, err := pdf.Subset(src, selection)
	if err != nil {
		return nil, fmt.Errorf("pdf page selection %q: %w", pagesInput, err)
	}
	if kept == 0 {
		appLog.Info("pdf page selection matches no page, using full document", "selection", pagesInput)
		return src, nil
	}

	appLog.Info("pdf narrowed to selected pages", "selection", pagesInput, "page_count", kept)
	return subset, nil
}

func isPDF(mediaType string) bool {
	mt, _, _ := strings.Cut(mediaType, ";")
	return strings.EqualFold(strings.TrimSpace(mt), "application/pdf")
}
