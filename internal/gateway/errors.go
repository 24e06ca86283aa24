package gateway

import "errors"

var (
	// ErrReferenceUnparseable means the user input could not be turned into
	// a slug, URL or non-empty question.
	ErrReferenceUnparseable = errors.New("gateway: reference unparseable")
	// ErrMarketNotFound means a source answered but had no matching market.
	ErrMarketNotFound = errors.New("gateway: market not found")
	// ErrAllSourcesFailed means the whole cascade was exhausted. The
	// coordinator may substitute a mock event when configured.
	ErrAllSourcesFailed = errors.New("gateway: all sources failed")
)
