package ocr

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/finbeam/extractor/internal/entity"
)

// acquirePDF tries direct text extraction first; a PDF whose embedded text is
// shorter than MinDirectTextLen is treated as a scan and rasterized for
// optical recognition.
func (a *Acquirer) acquirePDF(ctx context.Context, content []byte) *entity.RecognitionResult {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		a.logger.Warn("ocr.pdf.open_failed", "error", err)
		return degraded("pdf open failed: " + err.Error())
	}
	defer doc.Close()

	pages := doc.NumPage()
	if text, ok := a.directPDFText(doc, pages); ok {
		a.logger.Info("ocr.pdf.direct_text", "pages", pages, "text_len", len(text))
		return &entity.RecognitionResult{
			Text:   text,
			Method: entity.MethodDirectText,
			Pages:  pages,
		}
	}
	return a.scannedPDF(ctx, doc, pages)
}

// directPDFText concatenates embedded page text and accepts it as final when
// it exceeds the minimum-content threshold.
func (a *Acquirer) directPDFText(doc *fitz.Document, pages int) (string, bool) {
	texts := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			a.logger.Warn("ocr.pdf.page_text_failed", "page", i+1, "error", err)
			continue
		}
		if pageText != "" {
			texts = append(texts, pageText)
		}
	}
	text := Normalize(joinPages(texts))
	return text, len(text) > a.cfg.MinDirectTextLen
}

// scannedPDF rasterizes pages and runs the optical pass set per page. The
// diagnostics kept are those of the best-scoring pass across all pages.
func (a *Acquirer) scannedPDF(ctx context.Context, doc *fitz.Document, pages int) *entity.RecognitionResult {
	if a.cfg.MaxPages > 0 && pages > a.cfg.MaxPages {
		pages = a.cfg.MaxPages
	}

	var (
		texts    []string
		bestDiag *entity.PassDiagnostics
		warns    []string
		okPages  int
	)
	for i := 0; i < pages; i++ {
		img, err := doc.Image(i)
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d render: %v", i+1, err))
			continue
		}
		png, err := encodePNG(preprocess(img, a.cfg.MinPixelSide))
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d preprocess: %v", i+1, err))
			continue
		}
		text, diag, passWarns, err := a.opticalPasses(ctx, png)
		warns = append(warns, passWarns...)
		if err != nil {
			continue
		}
		texts = append(texts, text)
		okPages++
		if bestDiag == nil || diag.Score > bestDiag.Score {
			bestDiag = diag
		}
	}

	if okPages == 0 {
		res := degraded("scanned pdf: all recognition passes failed")
		res.Pages = pages
		res.Warnings = append(res.Warnings, warns...)
		return res
	}
	a.logger.Info("ocr.pdf.scanned_ok", "pages", pages, "ok_pages", okPages)
	return &entity.RecognitionResult{
		Text:     Normalize(joinPages(texts)),
		Method:   entity.MethodOpticalScan,
		Pages:    pages,
		BestPass: bestDiag,
		Warnings: warns,
	}
}
