package versions_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pinmirror/internal/versions"
)

func TestConstraintFilter(testInstance *testing.T) {
	candidates := []versions.Version{
		versions.MustParse("8.1.0"),
		versions.MustParse("8.2.3"),
		versions.MustParse("9.0.0"),
	}

	testCases := []struct {
		name       string
		expression string
		expected   []string
	}{
		{name: "empty_admits_all", expression: "", expected: []string{"8.1.0", "8.2.3", "9.0.0"}},
		{name: "major_line", expression: "major == 8", expected: []string{"8.1.0", "8.2.3"}},
		{name: "minor_threshold", expression: "major == 8 && minor >= 2", expected: []string{"8.2.3"}},
		{name: "string_match", expression: `version startsWith "9."`, expected: []string{"9.0.0"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			constraint, constraintError := versions.NewConstraint(testCase.expression)
			require.NoError(testInstance, constraintError)

			filtered, filterError := constraint.Filter(candidates)
			require.NoError(testInstance, filterError)
			require.Equal(testInstance, testCase.expected, versions.Strings(filtered))
		})
	}
}

func TestConstraintRejectsInvalidExpressions(testInstance *testing.T) {
	for _, expression := range []string{"major ==", "major + 1", "unknown > 1"} {
		testInstance.Run(expression, func(testInstance *testing.T) {
			_, constraintError := versions.NewConstraint(expression)
			require.Error(testInstance, constraintError)
		})
	}
}
