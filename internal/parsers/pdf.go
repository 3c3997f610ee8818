package parsers

import (
	"context"

	"github.com/sourcegraph/conc/iter"

	"golang-statement-normalizer/internal/models"
	"golang-statement-normalizer/pkg/errors"
	"golang-statement-normalizer/pkg/logger"
)

// pageResult is the ordered output of one page
type pageResult struct {
	transactions []*models.ParsedTransaction
	units        []models.UnitDiagnostics
}

// ParsePDF extracts transactions page by page. Each backend is tried in
// turn; the first one that yields any transaction wins.
func (e *Engine) ParsePDF(ctx context.Context, data []byte, filename string) (*models.ExtractionOutcome, error) {
	log := e.logger.WithComponent("pdf_pipeline").WithField("file", filename)

	if len(data) == 0 {
		return nil, errors.FileError(errors.CodeEmptyFile, filename, nil)
	}

	var lastErr error
	for _, source := range e.backends {
		if err := ctx.Err(); err != nil {
			return nil, errors.ExtractionFailed(filename, err)
		}

		srcLog := log.WithField("backend", source.Name())
		pages, err := source.Pages(data)
		if err != nil {
			srcLog.WithError(err).Debug("PDF backend failed")
			lastErr = err
			continue
		}

		outcome := e.extractPages(pages, filename)
		outcome.Diagnostics.Backend = source.Name()

		srcLog.WithFields(logger.Fields{
			"pages":      len(pages),
			"accepted":   len(outcome.Transactions),
			"rejected":   outcome.Diagnostics.Rejected(),
			"strategies": outcome.Diagnostics.StrategyCounts(),
		}).Debug("PDF backend finished")

		if len(outcome.Transactions) > 0 {
			return outcome, nil
		}
	}

	return nil, errors.ExtractionFailed(filename, lastErr)
}

// extractPages processes pages concurrently and reassembles the results in
// page order
func (e *Engine) extractPages(pages []pageContent, filename string) *models.ExtractionOutcome {
	mapper := iter.Mapper[pageContent, pageResult]{MaxGoroutines: e.vocab.pageWorkers}
	results := mapper.Map(pages, func(p *pageContent) pageResult {
		return e.vocab.extractPage(*p)
	})

	outcome := models.NewExtractionOutcome(filename, "pdf")
	for _, r := range results {
		outcome.Append(r.transactions...)
		for _, u := range r.units {
			outcome.Diagnostics.AddUnit(u)
		}
	}
	return outcome
}

// extractPage tries the page's tables first and falls back to its text
// when no table produced a transaction.
func (v *vocabulary) extractPage(p pageContent) pageResult {
	var res pageResult
	for i, table := range p.Tables {
		if len(table) < 2 {
			continue
		}
		hdr := v.pickHeaderRow(table)
		tr, ok := v.extractTable(table[hdr], table[hdr+1:], false)
		if !ok {
			continue
		}
		res.transactions = append(res.transactions, tr.transactions...)
		res.units = append(res.units, tr.unit(models.UnitTable, p.Number*100+i, "table"))
	}
	if len(res.transactions) > 0 {
		return res
	}

	text := v.extractText(p.Lines)
	res.transactions = text.transactions
	res.units = append(res.units, models.UnitDiagnostics{
		Kind:       models.UnitPage,
		Index:      p.Number,
		Strategy:   text.strategy,
		Candidates: text.candidates,
		Accepted:   len(text.transactions),
		Rejected:   text.rejected,
	})
	return res
}

// pickHeaderRow chooses the row among the first few with the most header
// keywords, defaulting to the first row
func (v *vocabulary) pickHeaderRow(table [][]string) int {
	best, bestScore := 0, 0
	for i := 0; i < len(table)-1 && i < v.tableHeaderRows; i++ {
		if score := v.headerScore(table[i]); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}
