package pgstore

import "errors"

var (
	ErrSealSecret = errors.New("failed to seal subscription secret")
	ErrOpenSecret = errors.New("failed to open subscription secret")
)
