package diff

import (
	"fmt"
	"strings"
)

// Status tags a hunk line
type Status string

const (
	Added     Status = "Added"
	Removed   Status = "Removed"
	Unchanged Status = "Unchanged"
)

func (s Status) prefix() string {
	switch s {
	case Added:
		return "+"
	case Removed:
		return "-"
	default:
		return " "
	}
}

// Document is a parsed unified diff. It is never modified after Parse returns.
type Document struct {
	Files []File `json:"files"`
}

type File struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Hunks   []Hunk `json:"changes"`
}

type Hunk struct {
	Context     string   `json:"context"`
	OldLocation Location `json:"old_location"`
	NewLocation Location `json:"new_location"`
	Lines       []Line   `json:"contents"`
}

type Line struct {
	Contents string `json:"contents"`
	Status   Status `json:"status"`
}

// Location is a "line,column" pair from a hunk header
type Location struct {
	Line   int `json:"line_number"`
	Column int `json:"column_number"`
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// header renders the location the way a hunk header spells it
func (l Location) header() string {
	if l.Column == 0 {
		return fmt.Sprintf("%d", l.Line)
	}
	return fmt.Sprintf("%d,%d", l.Line, l.Column)
}

// String renders the document back into unified diff text
func (d *Document) String() string {
	var b strings.Builder
	for _, file := range d.Files {
		fmt.Fprintf(&b, "--- %s\n+++ %s\n", file.OldPath, file.NewPath)
		for _, hunk := range file.Hunks {
			fmt.Fprintf(&b, "@@ -%s +%s @@", hunk.OldLocation.header(), hunk.NewLocation.header())
			if hunk.Context != "" {
				b.WriteString(" " + hunk.Context)
			}
			b.WriteString("\n")
			for _, line := range hunk.Lines {
				b.WriteString(line.Status.prefix() + line.Contents + "\n")
			}
		}
	}
	return b.String()
}

// Stats counts added and removed lines across the document
func (d *Document) Stats() (added, removed int) {
	for _, file := range d.Files {
		for _, hunk := range file.Hunks {
			for _, line := range hunk.Lines {
				switch line.Status {
				case Added:
					added++
				case Removed:
					removed++
				}
			}
		}
	}
	return added, removed
}
