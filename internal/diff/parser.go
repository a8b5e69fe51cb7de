// Package diff parses unified diff text into a structured change set.
package diff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	oldFileMarker = "---"
	newFileMarker = "+++"
	hunkMarker    = "@@ "
)

var (
	ErrInvalidHunkHeader = errors.New("invalid hunk header")
	ErrInvalidLocation   = errors.New("invalid location")
	ErrLineOutsideHunk   = errors.New("content line before any hunk header")
)

// ParseError reports where in the input parsing failed. Line is 1-based.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("diff line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse turns unified diff text into a Document. Empty input yields a
// document with no files.
func Parse(text string) (*Document, error) {
	doc := &Document{Files: []File{}}
	if text == "" {
		return doc, nil
	}

	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for i := 0; i < len(lines); {
		line := lines[i]
		if !strings.HasPrefix(line, oldFileMarker) || i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], newFileMarker) {
			// Preamble, or a "---" not followed by "+++"
			i++
			continue
		}

		file := File{
			OldPath: strings.TrimSpace(strings.TrimPrefix(line, oldFileMarker)),
			NewPath: strings.TrimSpace(strings.TrimPrefix(lines[i+1], newFileMarker)),
			Hunks:   []Hunk{},
		}
		i += 2

		for ; i < len(lines) && !strings.HasPrefix(lines[i], oldFileMarker); i++ {
			if err := parseFileLine(&file, lines[i]); err != nil {
				return nil, &ParseError{Line: i + 1, Text: lines[i], Err: err}
			}
		}

		doc.Files = append(doc.Files, file)
	}

	return doc, nil
}

// parseFileLine applies one line inside a file block
func parseFileLine(file *File, line string) error {
	if strings.HasPrefix(line, hunkMarker) {
		hunk, err := parseHunkHeader(line)
		if err != nil {
			return err
		}
		file.Hunks = append(file.Hunks, hunk)
		return nil
	}

	var status Status
	switch {
	case strings.HasPrefix(line, "+"):
		status = Added
	case strings.HasPrefix(line, "-"):
		status = Removed
	case strings.HasPrefix(line, " "):
		status = Unchanged
	default:
		// "\ No newline at end of file", "diff --git", "index", blank lines
		return nil
	}

	if len(file.Hunks) == 0 {
		return ErrLineOutsideHunk
	}
	hunk := &file.Hunks[len(file.Hunks)-1]
	hunk.Lines = append(hunk.Lines, Line{Contents: line[1:], Status: status})
	return nil
}

// parseHunkHeader parses "@@ -old +new @@ context"
func parseHunkHeader(line string) (Hunk, error) {
	rest := strings.TrimPrefix(line, hunkMarker)
	location, context, found := strings.Cut(rest, "@@")
	if !found {
		return Hunk{}, fmt.Errorf("%w: missing closing @@", ErrInvalidHunkHeader)
	}

	fields := strings.Fields(location)
	if len(fields) != 2 {
		return Hunk{}, fmt.Errorf("%w: expected old and new locations", ErrInvalidHunkHeader)
	}

	oldLocation, err := ParseLocation(strings.TrimLeft(fields[0], "-"))
	if err != nil {
		return Hunk{}, fmt.Errorf("%w: %w", ErrInvalidHunkHeader, err)
	}
	newLocation, err := ParseLocation(strings.TrimLeft(fields[1], "+"))
	if err != nil {
		return Hunk{}, fmt.Errorf("%w: %w", ErrInvalidHunkHeader, err)
	}

	return Hunk{
		OldLocation: oldLocation,
		NewLocation: newLocation,
		Context:     strings.TrimSpace(context),
		Lines:       []Line{},
	}, nil
}

// ParseLocation parses "line" or "line,column". Column defaults to 0.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	lineText, columnText, hasColumn := strings.Cut(s, ",")

	line, err := strconv.Atoi(lineText)
	if err != nil || line < 0 {
		return Location{}, fmt.Errorf("%w %q", ErrInvalidLocation, s)
	}
	if !hasColumn {
		return Location{Line: line}, nil
	}

	column, err := strconv.Atoi(columnText)
	if err != nil || column < 0 {
		return Location{}, fmt.Errorf("%w %q", ErrInvalidLocation, s)
	}
	return Location{Line: line, Column: column}, nil
}
