package pkg

import "errors"

var (
	errNotDir = errors.New("is not a directory")
	errIsDir  = errors.New("is a directory")
)
