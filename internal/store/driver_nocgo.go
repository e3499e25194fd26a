//go:build !cgo

package store

import (
	_ "modernc.org/sqlite"
)

// driverName selects the pure-Go SQLite driver for cgo-less builds.
const driverName = "sqlite"
