package catalog

import "errors"

var (
	// ErrIncompatibleVersion is returned when the manifest format is newer than supported.
	ErrIncompatibleVersion = errors.New("incompatible manifest version")

	// ErrNotFound is returned when the catalog has no (such) version.
	ErrNotFound = errors.New("manifest not found")

	// ErrVersionInUse is returned when deleting the version CURRENT points at.
	ErrVersionInUse = errors.New("version is current")
)
