// Package services implements the business logic that turns a work title
// into a character-relationship graph: document resolution, LLM extraction,
// web crawling, and graph synthesis. This file centralizes common
// service-level error values so they can be consistently returned by service
// methods and checked by callers.
//
// These errors are intended for internal use by the service layer; mapping
// them to user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

var (
	// ErrEmptyKeyword is returned when a request arrives without a work
	// title to search for.
	ErrEmptyKeyword = errors.New("keyword is empty")

	// ErrDocumentNotFound indicates that no corpus document matched the
	// requested keyword.
	ErrDocumentNotFound = errors.New("no document found for keyword")

	// ErrNoCharacters is returned when the model extracted no character
	// names from the resolved documents.
	ErrNoCharacters = errors.New("no characters extracted")

	// ErrNoNames is returned when a crawl request carries an empty name
	// list.
	ErrNoNames = errors.New("character names are empty")

	// ErrNoDocuments indicates that graph generation had no source
	// documents at all (nothing resolved, crawled, or backfilled).
	ErrNoDocuments = errors.New("no documents collected for graph")
)
