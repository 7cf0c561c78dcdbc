package versions

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const (
	constraintCompileErrorTemplateConstant    = "invalid version constraint %q: %w"
	constraintEvaluationErrorTemplateConstant = "version constraint %q failed for %s: %w"
	constraintResultTypeErrorTemplateConstant = "version constraint %q returned %T for %s, expected bool"
	majorVariableNameConstant                 = "major"
	minorVariableNameConstant                 = "minor"
	patchVariableNameConstant                 = "patch"
	versionVariableNameConstant               = "version"
	segmentsVariableNameConstant              = "segments"
)

// Constraint admits versions satisfying a boolean expression such as `major == 8 && minor >= 2`.
//
// Expressions see major, minor, patch (uint64), version (string) and segments ([]uint64).
// The zero Constraint admits every version.
type Constraint struct {
	expression string
	program    *vm.Program
}

// NewConstraint compiles the expression. An empty expression yields a Constraint that admits everything.
func NewConstraint(expression string) (Constraint, error) {
	trimmedExpression := strings.TrimSpace(expression)
	if len(trimmedExpression) == 0 {
		return Constraint{}, nil
	}

	program, compileError := expr.Compile(
		trimmedExpression,
		expr.Env(constraintEnvironment(Version{})),
		expr.AsBool(),
	)
	if compileError != nil {
		return Constraint{}, fmt.Errorf(constraintCompileErrorTemplateConstant, trimmedExpression, compileError)
	}

	return Constraint{expression: trimmedExpression, program: program}, nil
}

// Expression returns the source expression.
func (constraint Constraint) Expression() string {
	return constraint.expression
}

// Allows evaluates the constraint for a single version.
func (constraint Constraint) Allows(version Version) (bool, error) {
	if constraint.program == nil {
		return true, nil
	}

	output, runError := expr.Run(constraint.program, constraintEnvironment(version))
	if runError != nil {
		return false, fmt.Errorf(constraintEvaluationErrorTemplateConstant, constraint.expression, version, runError)
	}

	allowed, isBoolean := output.(bool)
	if !isBoolean {
		return false, fmt.Errorf(constraintResultTypeErrorTemplateConstant, constraint.expression, output, version)
	}

	return allowed, nil
}

// Filter keeps the versions the constraint allows, preserving order.
func (constraint Constraint) Filter(candidates []Version) ([]Version, error) {
	if constraint.program == nil {
		return candidates, nil
	}

	allowedVersions := make([]Version, 0, len(candidates))
	for _, candidate := range candidates {
		allowed, evaluationError := constraint.Allows(candidate)
		if evaluationError != nil {
			return nil, evaluationError
		}
		if allowed {
			allowedVersions = append(allowedVersions, candidate)
		}
	}

	return allowedVersions, nil
}

func constraintEnvironment(version Version) map[string]any {
	return map[string]any{
		majorVariableNameConstant:    version.Segment(0),
		minorVariableNameConstant:    version.Segment(1),
		patchVariableNameConstant:    version.Segment(2),
		versionVariableNameConstant:  version.String(),
		segmentsVariableNameConstant: version.Segments(),
	}
}
