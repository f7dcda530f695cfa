package templates

import "errors"

var ErrNilComponent = errors.New("email template component is nil")
