//go:build sqlite_vec && cgo

package memory

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Register the sqlite-vec extension with the mattn/go-sqlite3 driver so
	// ANN indexes are available to builds that opt in.
	vec.Auto()
}
