package debian

import (
	"bufio"
	"fmt"
	"io"

	"github.com/djcass44/deb-resolver/pkg/debian"
)

// WriteIndex writes packages as a Packages file so that a closure
// can be served as a minimal repository or inspected with apt
// tooling.
func WriteIndex(w io.Writer, packages []*debian.BinaryPackage) error {
	bw := bufio.NewWriter(w)
	for i, pkg := range packages {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := pkg.Paragraph().WriteTo(bw); err != nil {
			return fmt.Errorf("writing %s: %w", pkg.String(), err)
		}
	}
	return bw.Flush()
}
