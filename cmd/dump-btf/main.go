// Command dump-btf decodes a BTF blob and prints every record it contains,
// one per line, in ascending id order.
package main

import (
	"fmt"
	"os"

	"github.com/alessandrogario/btfparse/btf"
	"github.com/alessandrogario/btfparse/source"
)

func run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dump-btf <path>")
	}

	buf, err := source.FromFile(args[0])
	if err != nil {
		return err
	}

	spec, err := btf.Open(buf)
	if err != nil {
		return err
	}

	for id := 0; id < spec.NumTypes(); id++ {
		t, err := spec.TypeByID(btf.TypeID(id))
		if err != nil {
			return err
		}
		fmt.Printf("[%d] %v\n", id, t)
	}

	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
