package main

import (
	"errors"

	"github.com/mtlstore/mtl/internal/mtlcore"
)

// exitCodeFor translates a core error into mtl's exit-code contract:
// 0 success, 1 user error, 2 I/O error.
func exitCodeFor(err error) int {
	if errors.Is(err, mtlcore.ErrIO) || errors.Is(err, mtlcore.ErrCorrupt) {
		return 2
	}
	return 1
}
