// Package energy defines the change-point regression model shapes and the
// observation records the inference engine consumes.
package energy

import (
	"baymv/domain/linalg"
)

// ModelShape identifies one of the supported piecewise-linear change-point
// regression shapes, named after the change-point model convention used in
// energy measurement and verification.
type ModelShape string

const (
	// ShapeHeating is the three-parameter heating model: baseload plus a
	// slope active below the heating change point.
	ShapeHeating ModelShape = "3PH"
	// ShapeCooling is the three-parameter cooling model: baseload plus a
	// slope active above the cooling change point.
	ShapeCooling ModelShape = "3PC"
	// ShapeHeatingCooling is the five-parameter model combining a heating
	// and a cooling change point, heating strictly below cooling.
	ShapeHeatingCooling ModelShape = "5P"
)

// AllShapes lists the supported shapes in sweep order.
func AllShapes() []ModelShape {
	return []ModelShape{ShapeHeating, ShapeCooling, ShapeHeatingCooling}
}

// Valid reports whether s is a supported shape.
func (s ModelShape) Valid() bool {
	switch s {
	case ShapeHeating, ShapeCooling, ShapeHeatingCooling:
		return true
	}
	return false
}

// ParamCount returns the number of regression coefficients for the shape.
func (s ModelShape) ParamCount() int {
	if s == ShapeHeatingCooling {
		return 3
	}
	return 2
}

// ChangePointCount returns how many change-point thresholds the shape takes.
func (s ModelShape) ChangePointCount() int {
	if s == ShapeHeatingCooling {
		return 2
	}
	return 1
}

// ParamNames returns display names for the shape's coefficients, in design
// column order.
func (s ModelShape) ParamNames() []string {
	switch s {
	case ShapeHeating:
		return []string{"baseload", "heating_slope"}
	case ShapeCooling:
		return []string{"baseload", "cooling_slope"}
	case ShapeHeatingCooling:
		return []string{"baseload", "heating_slope", "cooling_slope"}
	}
	return nil
}

// HingeBelow is the heating regressor max(0, cp - t): positive below the
// change point, zero above.
func HingeBelow(cp, t float64) float64 {
	if cp > t {
		return cp - t
	}
	return 0
}

// HingeAbove is the cooling regressor max(0, t - cp).
func HingeAbove(cp, t float64) float64 {
	if t > cp {
		return t - cp
	}
	return 0
}

// DesignRow builds the regressor row for a single temperature. The first
// entry is always the intercept; hinge terms are non-negative by
// construction. cp2 is ignored for single-change-point shapes.
func DesignRow(t float64, shape ModelShape, cp1, cp2 float64) linalg.Vector {
	switch shape {
	case ShapeHeating:
		return linalg.Vector{1, HingeBelow(cp1, t)}
	case ShapeCooling:
		return linalg.Vector{1, HingeAbove(cp1, t)}
	case ShapeHeatingCooling:
		return linalg.Vector{1, HingeBelow(cp1, t), HingeAbove(cp2, t)}
	}
	panic("energy: DesignRow called with unknown model shape " + string(shape))
}

// DesignMatrix builds the n x p design matrix for the given temperatures,
// shape, and change-point thresholds.
func DesignMatrix(temperatures []float64, shape ModelShape, cp1, cp2 float64) linalg.Matrix {
	rows := make(linalg.Matrix, len(temperatures))
	for i, t := range temperatures {
		rows[i] = DesignRow(t, shape, cp1, cp2)
	}
	return rows
}

// Predict evaluates the regression at temperature t with the given
// coefficients, using the same hinge design as training.
func Predict(coefficients linalg.Vector, shape ModelShape, cp1, cp2, t float64) float64 {
	return linalg.Dot(DesignRow(t, shape, cp1, cp2), coefficients)
}
