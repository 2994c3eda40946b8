//go:build linux

package source

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// defaultVmlinuxPath is where a running kernel exposes its own BTF
// directly, without needing to locate and parse a vmlinux ELF image.
const defaultVmlinuxPath = "/sys/kernel/btf/vmlinux"

// vmlinuxSearchPaths mirrors libbpf's search order for a vmlinux image
// carrying a ".BTF" section, tried in order against the running kernel's
// uname release string.
var vmlinuxSearchPaths = []string{
	"/boot/vmlinux-%s",
	"/lib/modules/%[1]s/vmlinux-%[1]s",
	"/lib/modules/%s/build/vmlinux",
	"/usr/lib/modules/%s/kernel/vmlinux",
	"/usr/lib/debug/boot/vmlinux-%s",
	"/usr/lib/debug/boot/vmlinux-%s.debug",
	"/usr/lib/debug/lib/modules/%s/vmlinux",
}

// Vmlinux returns the BTF blob describing the running kernel's own types.
// It first tries the pre-decoded form the kernel exposes directly at
// /sys/kernel/btf/vmlinux, then falls back to locating and reading the
// ".BTF" ELF section of a vmlinux image, trying searchPaths if given or
// the well-known distribution locations otherwise.
func Vmlinux(searchPaths ...string) ([]byte, error) {
	if buf, err := os.ReadFile(defaultVmlinuxPath); err == nil {
		return buf, nil
	}

	if len(searchPaths) == 0 {
		release, err := kernelRelease()
		if err != nil {
			return nil, err
		}
		for _, pattern := range vmlinuxSearchPaths {
			searchPaths = append(searchPaths, fmt.Sprintf(pattern, release))
		}
	}

	var lastErr error
	for _, path := range searchPaths {
		buf, err := FromELF(path)
		if err == nil {
			return buf, nil
		}
		if !os.IsNotExist(errors.Cause(err)) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.Wrap(ErrNotFound, "no vmlinux image found for running kernel")
}

// kernelRelease returns the release field of uname(2), e.g. "6.6.0-generic".
func kernelRelease() (string, error) {
	var uname syscall.Utsname
	if err := syscall.Uname(&uname); err != nil {
		return "", errors.Wrap(err, "uname")
	}
	return utsnameToString(uname.Release[:]), nil
}

func utsnameToString(release []int8) string {
	b := make([]byte, 0, len(release))
	for _, c := range release {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
