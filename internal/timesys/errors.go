package timesys

import "errors"

var (
	// ErrParse is returned for malformed ISO-8601, DTG-20 or component input.
	ErrParse = errors.New("timesys: parse error")

	// ErrLookup is returned when a conversion falls outside the loaded constants table.
	ErrLookup = errors.New("timesys: instant outside time constants table")

	// ErrNotLoaded is returned when a conversion needs the time constants and none are loaded.
	ErrNotLoaded = errors.New("timesys: time constants not loaded")

	// ErrConstantsFile is returned when a time constants file is missing or malformed.
	ErrConstantsFile = errors.New("timesys: invalid time constants file")

	// ErrAlreadyLoaded is returned when the process-wide table is re-initialised with different data.
	ErrAlreadyLoaded = errors.New("timesys: time constants already loaded with different data")
)
