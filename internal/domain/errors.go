package domain

import "errors"

var (
	// ErrEmptyQuery signals a blank or whitespace-only search query.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrQueryTooShort signals a query below the minimum length.
	ErrQueryTooShort = errors.New("query too short")
	// ErrDocsNotLoaded signals that the documentation index is not ready.
	ErrDocsNotLoaded = errors.New("documentation index not loaded")
	// ErrMalformedToolArgs signals an unparseable tool-call argument payload.
	ErrMalformedToolArgs = errors.New("malformed tool arguments")
	// ErrDuplicateEntryID signals a duplicate id at index construction.
	ErrDuplicateEntryID = errors.New("duplicate entry id")
	// ErrAliasConflict signals an alias mapping to more than one entry.
	ErrAliasConflict = errors.New("alias conflict")
	// ErrSchemaVersion signals an unsupported doc index schema version.
	ErrSchemaVersion = errors.New("unsupported index schema version")
)
