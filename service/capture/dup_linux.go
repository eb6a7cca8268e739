//go:build linux

package capture

import "golang.org/x/sys/unix"

// dupTo duplicates from onto to. Dup3 is used because Dup2 does not exist on
// every linux architecture.
func dupTo(from, to int) error {
	return unix.Dup3(from, to, 0)
}
