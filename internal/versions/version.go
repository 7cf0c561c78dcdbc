package versions

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	segmentSeparatorConstant            = "."
	prereleaseMarkerConstant            = "-"
	emptyVersionMessageConstant         = "version must not be empty"
	emptySegmentMessageConstant         = "segment %d is empty"
	nonNumericSegmentMessageConstant    = "segment %d (%q) is not a non-negative integer"
	invalidVersionErrorTemplateConstant = "invalid version %q: %s"
)

// InvalidVersionError reports a string that is not a dotted sequence of non-negative integers.
type InvalidVersionError struct {
	Input   string
	Message string
}

// Error describes the invalid version.
func (versionError InvalidVersionError) Error() string {
	return fmt.Sprintf(invalidVersionErrorTemplateConstant, versionError.Input, versionError.Message)
}

// Version is a parsed dotted numeric release version.
type Version struct {
	original string
	segments []uint64
}

// Parse converts a dotted numeric string such as "8.15.3" into a Version.
func Parse(versionText string) (Version, error) {
	trimmedVersion := strings.TrimSpace(versionText)
	if len(trimmedVersion) == 0 {
		return Version{}, InvalidVersionError{Input: versionText, Message: emptyVersionMessageConstant}
	}

	rawSegments := strings.Split(trimmedVersion, segmentSeparatorConstant)
	segments := make([]uint64, 0, len(rawSegments))
	for segmentIndex, rawSegment := range rawSegments {
		if len(rawSegment) == 0 {
			return Version{}, InvalidVersionError{Input: versionText, Message: fmt.Sprintf(emptySegmentMessageConstant, segmentIndex)}
		}
		segmentValue, parseError := strconv.ParseUint(rawSegment, 10, 64)
		if parseError != nil {
			return Version{}, InvalidVersionError{Input: versionText, Message: fmt.Sprintf(nonNumericSegmentMessageConstant, segmentIndex, rawSegment)}
		}
		segments = append(segments, segmentValue)
	}

	return Version{original: trimmedVersion, segments: segments}, nil
}

// MustParse parses the version and panics on failure. Intended for constants and tests.
func MustParse(versionText string) Version {
	version, parseError := Parse(versionText)
	if parseError != nil {
		panic(parseError)
	}
	return version
}

// IsPrerelease reports whether the raw version string carries a pre-release or build suffix.
func IsPrerelease(versionText string) bool {
	return strings.Contains(versionText, prereleaseMarkerConstant)
}

// String returns the version exactly as it was parsed.
func (version Version) String() string {
	return version.original
}

// Segments returns a copy of the numeric segments.
func (version Version) Segments() []uint64 {
	duplicatedSegments := make([]uint64, len(version.segments))
	copy(duplicatedSegments, version.segments)
	return duplicatedSegments
}

// Segment returns the segment at the index, or zero when the version is shorter.
func (version Version) Segment(index int) uint64 {
	if index < 0 || index >= len(version.segments) {
		return 0
	}
	return version.segments[index]
}

// Compare orders two versions, returning -1, 0 or +1.
func Compare(left Version, right Version) int {
	segmentCount := len(left.segments)
	if len(right.segments) > segmentCount {
		segmentCount = len(right.segments)
	}

	for segmentIndex := 0; segmentIndex < segmentCount; segmentIndex++ {
		leftSegment := left.Segment(segmentIndex)
		rightSegment := right.Segment(segmentIndex)
		switch {
		case leftSegment > rightSegment:
			return 1
		case leftSegment < rightSegment:
			return -1
		}
	}

	return 0
}

// CompareStrings parses both inputs and compares them.
func CompareStrings(left string, right string) (int, error) {
	leftVersion, leftError := Parse(left)
	if leftError != nil {
		return 0, leftError
	}
	rightVersion, rightError := Parse(right)
	if rightError != nil {
		return 0, rightError
	}
	return Compare(leftVersion, rightVersion), nil
}

// Sort orders versions ascending in place.
func Sort(candidates []Version) {
	sort.SliceStable(candidates, func(leftIndex int, rightIndex int) bool {
		return Compare(candidates[leftIndex], candidates[rightIndex]) < 0
	})
}

// Newer returns the versions strictly greater than current, ascending.
func Newer(current Version, available []Version) []Version {
	newerVersions := make([]Version, 0, len(available))
	for _, candidate := range available {
		if Compare(candidate, current) > 0 {
			newerVersions = append(newerVersions, candidate)
		}
	}
	Sort(newerVersions)
	return newerVersions
}

// Strings renders versions back into their textual form.
func Strings(values []Version) []string {
	rendered := make([]string, 0, len(values))
	for _, value := range values {
		rendered = append(rendered, value.String())
	}
	return rendered
}
