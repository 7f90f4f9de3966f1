//go:build unix || linux || darwin || freebsd || openbsd || netbsd

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	prot := unix.PROT_READ
	flags := unix.MAP_SHARED

	data, err := unix.Mmap(int(f.Fd()), 0, size, prot, flags)
	if err != nil {
		return nil, nil, err
	}

	return data, unix.Munmap, nil
}

func osAdvise(data []byte, pattern AccessPattern) error {
	if len(data) == 0 {
		return nil
	}

	var advice int
	switch pattern {
	case AccessSequential:
		advice = unix.MADV_SEQUENTIAL
	case AccessRandom:
		advice = unix.MADV_RANDOM
	case AccessWillNeed:
		advice = unix.MADV_WILLNEED
	case AccessDontNeed:
		advice = unix.MADV_DONTNEED
	default:
		advice = unix.MADV_NORMAL
	}

	// Sub-slices of a mapping are rarely page aligned; EINVAL is expected there.
	if err := unix.Madvise(data, advice); err != nil && err != unix.EINVAL {
		return err
	}
	return nil
}
