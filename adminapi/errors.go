package adminapi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTour   = errors.New("invalid tour")
	ErrMissingTourID = errors.New("missing tour id")
	ErrEmptyUpload   = errors.New("upload response has no url")
)

// ValidationError lists the tour fields that failed local validation.
type ValidationError struct {
	Lang   Language
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (%s): %s", ErrInvalidTour, e.Lang, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidTour
}
