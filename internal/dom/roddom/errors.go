package roddom

import "errors"

var errForeignNode = errors.New("roddom: watch root is not a live element")
