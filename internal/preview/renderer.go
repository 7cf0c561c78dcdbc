package preview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

const (
	originalHeaderTemplateConstant = "--- a/%s\n"
	updatedHeaderTemplateConstant  = "+++ b/%s\n"
	versionHeaderTemplateConstant  = "# %s\n"
	removedLinePrefixConstant      = "-"
	addedLinePrefixConstant        = "+"
	lineTerminatorConstant         = "\n"
	diffWriteErrorTemplateConstant = "unable to write diff for %s: %w"
)

// ShouldColorize reports whether the writer is an interactive terminal.
func ShouldColorize(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// DiffRenderer writes changed lines between two revisions of a file.
type DiffRenderer struct {
	writer       io.Writer
	removedColor *color.Color
	addedColor   *color.Color
	headerColor  *color.Color
	differ       *diffpatch.DiffMatchPatch
}

// NewDiffRenderer constructs a renderer that writes to writer, colorizing output when requested.
func NewDiffRenderer(writer io.Writer, colorize bool) *DiffRenderer {
	renderer := &DiffRenderer{
		writer:       writer,
		removedColor: color.New(color.FgRed),
		addedColor:   color.New(color.FgGreen),
		headerColor:  color.New(color.Bold),
		differ:       diffpatch.New(),
	}
	for _, lineColor := range []*color.Color{renderer.removedColor, renderer.addedColor, renderer.headerColor} {
		if colorize {
			lineColor.EnableColor()
		} else {
			lineColor.DisableColor()
		}
	}
	return renderer
}

// RenderVersion writes a heading naming the version whose changes follow.
func (renderer *DiffRenderer) RenderVersion(version string) error {
	_, writeError := io.WriteString(renderer.writer, renderer.headerColor.Sprintf(versionHeaderTemplateConstant, version))
	return writeError
}

// RenderFile writes the removed and added lines of path. Nothing is written when the contents match.
func (renderer *DiffRenderer) RenderFile(path string, before []byte, after []byte) error {
	if string(before) == string(after) {
		return nil
	}

	originalCharacters, updatedCharacters, lineArray := renderer.differ.DiffLinesToChars(string(before), string(after))
	lineDiffs := renderer.differ.DiffCharsToLines(renderer.differ.DiffMain(originalCharacters, updatedCharacters, false), lineArray)

	var output strings.Builder
	output.WriteString(renderer.headerColor.Sprintf(originalHeaderTemplateConstant, path))
	output.WriteString(renderer.headerColor.Sprintf(updatedHeaderTemplateConstant, path))
	for _, lineDiff := range lineDiffs {
		switch lineDiff.Type {
		case diffpatch.DiffDelete:
			writeLines(&output, renderer.removedColor, removedLinePrefixConstant, lineDiff.Text)
		case diffpatch.DiffInsert:
			writeLines(&output, renderer.addedColor, addedLinePrefixConstant, lineDiff.Text)
		}
	}

	if _, writeError := io.WriteString(renderer.writer, output.String()); writeError != nil {
		return fmt.Errorf(diffWriteErrorTemplateConstant, path, writeError)
	}
	return nil
}

func writeLines(output *strings.Builder, lineColor *color.Color, prefix string, text string) {
	for _, line := range strings.SplitAfter(text, lineTerminatorConstant) {
		if len(line) == 0 {
			continue
		}
		output.WriteString(lineColor.Sprint(prefix + strings.TrimSuffix(line, lineTerminatorConstant)))
		output.WriteString(lineTerminatorConstant)
	}
}
