package httpapi

import "errors"

var (
	ErrInvalidBody        = errors.New("invalid request body")
	ErrInvalidID          = errors.New("invalid identifier")
	ErrInvalidQuery       = errors.New("invalid query parameter")
	ErrRebalancerDisabled = errors.New("shipment balancing is disabled")
	ErrMissingDependency  = errors.New("http api dependency is nil")
)
