package analysis

import "errors"

type ErrorCode string

const (
	ErrorMissingInput  ErrorCode = "missing_input"
	ErrorMissingColumn ErrorCode = "missing_column"
	ErrorBadConfig     ErrorCode = "bad_config"
	ErrorBadTimestamp  ErrorCode = "bad_timestamp"
	ErrorEmptyDataset  ErrorCode = "empty_dataset"
)

type AnalysisError struct {
	Code    ErrorCode
	Message string
}

func (e *AnalysisError) Error() string { return e.Message }

func NewMissingInputError(msg string) error {
	return &AnalysisError{Code: ErrorMissingInput, Message: msg}
}

func NewMissingColumnError(msg string) error {
	return &AnalysisError{Code: ErrorMissingColumn, Message: msg}
}

func NewBadConfigError(msg string) error {
	return &AnalysisError{Code: ErrorBadConfig, Message: msg}
}

func NewBadTimestampError(msg string) error {
	return &AnalysisError{Code: ErrorBadTimestamp, Message: msg}
}

func NewEmptyDatasetError(msg string) error {
	return &AnalysisError{Code: ErrorEmptyDataset, Message: msg}
}

func AsAnalysisError(err error) (*AnalysisError, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
