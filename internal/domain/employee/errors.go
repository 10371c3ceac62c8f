package employee

import "errors"

var ErrEmployeeNotFound = errors.New("no current employee record for this code")
