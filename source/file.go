// Package source provides byte-source collaborators that produce a BTF
// blob for the core decoder: a raw file, an in-memory buffer, or the
// ".BTF" section of an ELF object such as a vmlinux image.
package source

import (
	"debug/elf"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a byte source has no BTF to offer, e.g. an
// ELF object with no ".BTF" section.
var ErrNotFound = errors.New("source: no BTF section found")

// FromBytes returns buf unchanged. It exists so callers that already hold
// a blob in memory can use the same call sites as FromFile and Vmlinux.
func FromBytes(buf []byte) ([]byte, error) {
	return buf, nil
}

// FromFile reads path in full and returns its contents as a candidate BTF
// blob, without inspecting whether it is a raw BTF stream or an ELF
// object carrying a ".BTF" section. Callers that know the file is an ELF
// object should use FromELF instead.
func FromFile(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return buf, nil
}

// FromELF opens path as an ELF object and returns the contents of its
// ".BTF" section.
func FromELF(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	return sectionFromELF(f, path)
}

func sectionFromELF(r io.ReaderAt, path string) ([]byte, error) {
	ef, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse ELF %s", path)
	}
	defer ef.Close()

	sec := ef.Section(".BTF")
	if sec == nil {
		return nil, errors.Wrapf(ErrNotFound, "%s", path)
	}
	if sec.Size > math.MaxUint32 {
		return nil, errors.Errorf("%s: .BTF section exceeds maximum size", path)
	}
	if sec.Type == elf.SHT_NOBITS {
		return nil, errors.Errorf("%s: .BTF section has no data", path)
	}

	buf, err := sec.Data()
	if err != nil {
		return nil, errors.Wrapf(err, "read .BTF section of %s", path)
	}
	return buf, nil
}
