//go:build !unix && !windows

package flock

import "os"

func lockBlocking(*os.File) error {
	return ErrUnsupported
}

func tryLock(*os.File) (bool, error) {
	return false, ErrUnsupported
}

func unlock(*os.File) error {
	return ErrUnsupported
}
