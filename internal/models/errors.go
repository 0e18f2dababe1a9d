package models

import "errors"

var (
	ErrNotFound            = errors.New("file not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")
	ErrAlreadyExists       = errors.New("a file with this name already exists")
)
