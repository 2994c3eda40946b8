// Command get-type-offset resolves a type name and a dotted field path
// against a BTF blob and prints the field's bit-precise location.
package main

import (
	"fmt"
	"os"

	"github.com/alessandrogario/btfparse/btf"
	"github.com/alessandrogario/btfparse/source"
)

func run(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: get-type-offset <path> <type_name> <field_path>")
	}
	path, typeName, fieldPath := args[0], args[1], args[2]

	buf, err := source.FromFile(path)
	if err != nil {
		return err
	}

	spec, err := btf.Open(buf)
	if err != nil {
		return err
	}

	id, err := spec.IDOf(typeName)
	if err != nil {
		return err
	}

	fo, err := spec.OffsetOf(id, fieldPath)
	if err != nil {
		return err
	}

	if byteOff, ok := fo.ByteOffset(); ok {
		fmt.Printf("%s => %s: (%d, ByteOffset(%d))\n", typeName, fieldPath, id, byteOff)
		return nil
	}

	fmt.Printf("%s => %s: (%d, BitOffset(%d, width=%d))\n", typeName, fieldPath, id, fo.BitOffset, fo.BitWidth)
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
