package mining

import "errors"

// Error kinds surfaced by the mining entry point. The core never recovers
// internally; on any error no partial result is produced.
var (
	// ErrInputUnavailable indicates the loader could not provide the database.
	ErrInputUnavailable = errors.New("mining: input database unavailable")

	// ErrMalformedRecord indicates a transaction or occurrence could not be
	// parsed. Raised on the loader side; the core never sees malformed input.
	ErrMalformedRecord = errors.New("mining: malformed record")

	// ErrEmptyDatabase indicates the loader yielded zero transactions.
	ErrEmptyDatabase = errors.New("mining: empty database")

	// ErrInvalidThreshold indicates minSup is not a positive number.
	ErrInvalidThreshold = errors.New("mining: minSup must be positive")

	// ErrProbabilityOutOfRange indicates an occurrence carries an existential
	// probability outside (0, 1].
	ErrProbabilityOutOfRange = errors.New("mining: probability outside (0, 1]")
)
