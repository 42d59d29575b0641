// Package batch runs the PDF batch pipeline.
//
// A run enumerates the PDF files of a source directory, makes sure the
// output directory exists and then processes each file through two
// independent stages:
//
//   - the table stage detects ruled tables and writes
//     table_<basename>_<index>.<ext> per table and export format
//   - the text stage rasterizes every page, recognizes its text and writes
//     text_<basename>_<page>.txt with page numbers starting at 1
//
// A failure in one stage of one file is logged and counted; it never stops
// the other stage or the remaining files. Only a bad source directory or an
// unusable output directory ends a run with an error.
//
// Basic usage:
//
//	p, err := batch.New(cfg, logger)
//	if err != nil {
//	    // configuration or output directory problem
//	}
//	defer p.Close()
//	summary, err := p.Run(ctx)
package batch
