package solrq

import "github.com/kailas-cloud/solrq/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidArgument = domain.ErrInvalidArgument
	ErrAPIUsage        = domain.ErrAPIUsage
	ErrInvalidState    = domain.ErrInvalidState
	ErrNoSuchElement   = domain.ErrNoSuchElement
	ErrUnsupported     = domain.ErrUnsupported
	ErrNotFound        = domain.ErrNotFound
	ErrUpstream        = domain.ErrUpstream
)
