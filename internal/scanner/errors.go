package scanner

import (
	"errors"
	"fmt"
)

// ErrScanInProgress is returned when a Scan is requested while another scan
// on the same session has not finished.
var ErrScanInProgress = errors.New("scanner: scan already in progress")

// ErrNoPriorScan is returned by Rescan when the session has not completed an
// initial Scan yet.
var ErrNoPriorScan = errors.New("scanner: no prior scan to replay")

// ErrImageDecode marks input bytes that could not be decoded as an image.
var ErrImageDecode = errors.New("scanner: image decode failed")

// ScanError wraps a failure with the pipeline stage it occurred in.
type ScanError struct {
	Stage State
	Err   error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed during %s: %v", e.Stage, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
