package balance

import "errors"

var (
	ErrCompanyNotFound      = errors.New("company not found")
	ErrShipmentNotFound     = errors.New("shipment not found")
	ErrRebalanceInProgress  = errors.New("rebalancing already in progress")
	ErrInvalidPolicy        = errors.New("invalid balancing policy")
	ErrLoadingPolicy        = errors.New("failed to load balancing policy")
	ErrRepositoryNil        = errors.New("repository cannot be nil")
	ErrRebalancerRunning    = errors.New("rebalancer already started")
	ErrRebalancerNotRunning = errors.New("rebalancer not started")
)
