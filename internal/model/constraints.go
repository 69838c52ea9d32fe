package model

import (
	"fmt"

	"github.com/plantline/scheduler/pkg/minikanren"
)

// add posts a global constraint built by one of pkg/minikanren's
// constructors. Those constructors only return an error for malformed
// call sites (nil variables, mismatched slice lengths) that this package
// never produces, so a non-nil error here is a programming bug, not a
// data condition to recover from.
func add[T minikanren.ModelConstraint](m *minikanren.Model, c T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("model: invalid constraint construction: %v", err))
	}
	m.AddConstraint(c)
	return c
}

// build constructs a constraint without posting it to the model, for use
// as the wrapped constraint inside a ReifiedConstraint (only the
// ReifiedConstraint itself is posted).
func build[T minikanren.PropagationConstraint](c T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("model: invalid constraint construction: %v", err))
	}
	return c
}

// pinHour creates a variable whose domain is the single FD value
// representing hour.
func pinHour(m *minikanren.Model, hour int) *minikanren.FDVariable {
	return m.NewVariable(minikanren.NewBitSetDomainFromValues(hour+1, []int{hourToFD(hour)}))
}

// pinBool creates a boolean variable pinned to true or false.
func pinBool(m *minikanren.Model, value bool) *minikanren.FDVariable {
	v := boolFalse
	if value {
		v = boolTrue
	}
	return m.NewVariable(minikanren.NewBitSetDomainFromValues(2, []int{v}))
}

// pinConst creates a variable whose only legal FD value is value (used as
// the "total" side of a LinearSum encoding a fixed-sum relation).
func pinConst(m *minikanren.Model, value int) *minikanren.FDVariable {
	if value < 1 {
		value = 1
	}
	return m.NewVariable(minikanren.NewBitSetDomainFromValues(value, []int{value}))
}

// sumEq3 posts a + b = c in real (non-offset) arithmetic for three
// offset-by-one FD variables (hour- or duration-valued). Because each
// variable's FD value is its real value plus one, a+b=c becomes
// a_fd + b_fd - c_fd = 1 in FD space.
func sumEq3(m *minikanren.Model, a, b, c *minikanren.FDVariable) {
	con, err := minikanren.NewLinearSum([]*minikanren.FDVariable{a, b, c}, []int{1, 1, -1}, pinConst(m, 1))
	add(m, con, err)
}

// complementBool posts b = 3-a, i.e. b is the boolean negation of a under
// the 1=false,2=true convention (1+2=3).
func complementBool(m *minikanren.Model, a, b *minikanren.FDVariable) {
	con, err := minikanren.NewLinearSum([]*minikanren.FDVariable{a, b}, []int{1, 1}, pinConst(m, 3))
	add(m, con, err)
}

// leHour posts x <= y; offsets cancel for direct comparisons, so this
// works identically for two hour-valued variables or an hour variable and
// an hour constant wrapped with pinHour/pinConst.
func leHour(m *minikanren.Model, x, y *minikanren.FDVariable) {
	con, err := minikanren.NewInequality(x, y, minikanren.LessEqual)
	add(m, con, err)
}

func geHour(m *minikanren.Model, x, y *minikanren.FDVariable) {
	con, err := minikanren.NewInequality(x, y, minikanren.GreaterEqual)
	add(m, con, err)
}

// reifyImplies posts "ifBool=true ⇒ constraint holds" using the engine's
// ReifiedConstraint: boolVar=2 enforces the wrapped constraint, boolVar=1
// leaves it unenforced, matching implication semantics directly.
func reifyImplies(m *minikanren.Model, ifBool *minikanren.FDVariable, c minikanren.PropagationConstraint) {
	con, err := minikanren.NewReifiedConstraint(c, ifBool)
	add(m, con, err)
}

// pinnedEqualsIf posts "ifBool=true ⇒ v == target" via a bidirectional
// value-equals reification; only the forward (bool⇒equality) direction is
// relied on by callers; the reverse direction (equality⇒bool=true) is an
// accepted, harmless side effect since it only strengthens pruning.
func pinnedEqualsIf(m *minikanren.Model, v *minikanren.FDVariable, target int, ifBool *minikanren.FDVariable) {
	con, err := minikanren.NewValueEqualsReified(v, target, ifBool)
	add(m, con, err)
}
