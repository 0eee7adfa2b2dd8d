package contacts

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteVCard writes one vCard 3.0 block per valid outcome, blocks separated
// by a newline, and returns how many cards were written.
func WriteVCard(w io.Writer, outcomes []Outcome) (int, error) {
	bw := bufio.NewWriter(w)
	written := 0
	for _, o := range outcomes {
		if !o.Valid() {
			continue
		}
		if written > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return written, fmt.Errorf("contacts: write vcard: %w", err)
			}
		}
		if _, err := bw.WriteString(vcardBlock(o)); err != nil {
			return written, fmt.Errorf("contacts: write vcard: %w", err)
		}
		written++
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("contacts: flush vcard: %w", err)
	}
	return written, nil
}

func vcardBlock(o Outcome) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCARD\n")
	b.WriteString("VERSION:3.0\n")
	b.WriteString("FN:" + vcardText(o.DisplayName()) + "\n")
	b.WriteString("N:;" + vcardText(o.ResponsibleName) + ";;;\n")
	b.WriteString("TEL;TYPE=CELL:" + o.Display + "\n")
	b.WriteString("END:VCARD")
	return b.String()
}

// vcardText keeps spreadsheet text from breaking the line-oriented format.
func vcardText(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
