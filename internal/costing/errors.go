package costing

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a costing failure.
type Kind string

const (
	KindUnresolvableUnit  Kind = "unresolvable_unit"
	KindInvalidYield      Kind = "invalid_yield"
	KindInvalidPackage    Kind = "invalid_package"
	KindCycleRejected     Kind = "cycle_rejected"
	KindCycleDetected     Kind = "cycle_detected_in_stored_data"
	KindMissingInput      Kind = "missing_input"
	KindServiceAsInput    Kind = "service_as_input"
	KindUnknownRecipe     Kind = "unknown_recipe"
	KindUnknownIngredient Kind = "unknown_ingredient"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	// ErrUnresolvableUnit means a line quantity cannot be converted into the
	// costing unit of its input.
	ErrUnresolvableUnit = errors.New("unresolvable unit")

	// ErrInvalidYield means an ingredient yield is outside (0, max], or a
	// recipe yield quantity is not positive.
	ErrInvalidYield = errors.New("invalid yield")

	// ErrInvalidPackage means an ingredient package cannot be expressed in
	// its base unit.
	ErrInvalidPackage = errors.New("invalid package")

	// ErrCycleRejected is returned when a proposed line would make a recipe
	// depend on itself.
	ErrCycleRejected = errors.New("line would create a composition cycle")

	// ErrCycleDetected means the stored composition already contains a cycle.
	ErrCycleDetected = errors.New("composition cycle in stored data")

	// ErrMissingInput means a line points at an input that is not in the
	// snapshot.
	ErrMissingInput = errors.New("missing input")

	// ErrServiceAsInput means a line uses a service recipe as an input.
	ErrServiceAsInput = errors.New("service recipe used as input")

	ErrUnknownRecipe     = errors.New("unknown recipe")
	ErrUnknownIngredient = errors.New("unknown ingredient")
)

var sentinels = map[Kind]error{
	KindUnresolvableUnit:  ErrUnresolvableUnit,
	KindInvalidYield:      ErrInvalidYield,
	KindInvalidPackage:    ErrInvalidPackage,
	KindCycleRejected:     ErrCycleRejected,
	KindCycleDetected:     ErrCycleDetected,
	KindMissingInput:      ErrMissingInput,
	KindServiceAsInput:    ErrServiceAsInput,
	KindUnknownRecipe:     ErrUnknownRecipe,
	KindUnknownIngredient: ErrUnknownIngredient,
}

// Error is a structured costing failure. Only the identifier fields that
// apply to Kind are set.
type Error struct {
	Kind Kind `json:"kind"`

	RecipeID     string `json:"recipe_id,omitempty"`
	LineID       string `json:"line_id,omitempty"`
	IngredientID string `json:"ingredient_id,omitempty"`
	InputID      string `json:"input_id,omitempty"`
	FromUnit     string `json:"from_unit,omitempty"`
	ToUnit       string `json:"to_unit,omitempty"`

	// Path lists the recipes the failure propagated through, starting with
	// the recipe that owns the failing line.
	Path []string `json:"path,omitempty"`

	Err error `json:"-"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason())
	if len(e.Path) > 1 {
		fmt.Fprintf(&b, " (via %s)", strings.Join(e.Path, " <- "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Reason is a short, human readable description without the propagation
// path, suitable for "cost unavailable: <reason>".
func (e *Error) Reason() string {
	return e.Describe(nil)
}

// Describe is Reason with every identifier passed through label, so display
// layers can show codes instead of ids. A nil label keeps the ids.
func (e *Error) Describe(label func(id string) string) string {
	name := func(id string) string {
		if label == nil || id == "" {
			return id
		}
		return label(id)
	}

	switch e.Kind {
	case KindUnresolvableUnit:
		if e.LineID == "" {
			return fmt.Sprintf("cannot convert %s to %s", e.FromUnit, e.ToUnit)
		}
		return fmt.Sprintf("line %s: cannot convert %s to %s", name(e.LineID), e.FromUnit, e.ToUnit)
	case KindInvalidYield:
		if e.IngredientID != "" {
			return fmt.Sprintf("ingredient %s: invalid yield", name(e.IngredientID))
		}
		return fmt.Sprintf("recipe %s: invalid yield", name(e.RecipeID))
	case KindInvalidPackage:
		return fmt.Sprintf("ingredient %s: invalid package", name(e.IngredientID))
	case KindCycleRejected:
		return fmt.Sprintf("recipe %s cannot use %s: would create a cycle", name(e.RecipeID), name(e.InputID))
	case KindCycleDetected:
		return fmt.Sprintf("recipe %s is part of a composition cycle", name(e.RecipeID))
	case KindMissingInput:
		return fmt.Sprintf("line %s: input %s not found", name(e.LineID), name(e.InputID))
	case KindServiceAsInput:
		return fmt.Sprintf("line %s: service recipe %s cannot be an input", name(e.LineID), name(e.InputID))
	case KindUnknownRecipe:
		return fmt.Sprintf("recipe %s not found", name(e.RecipeID))
	case KindUnknownIngredient:
		return fmt.Sprintf("ingredient %s not found", name(e.IngredientID))
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// through returns a copy of e whose Path also names recipeID. The
// original is left untouched because memoized errors are shared between
// every recipe that depends on the failing one.
func (e *Error) through(recipeID string) *Error {
	cp := *e
	cp.Path = append(append([]string(nil), e.Path...), recipeID)
	return &cp
}

// Reason extracts the short reason from any error, falling back to
// err.Error() for errors that are not *Error.
func Reason(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Describe is Reason for any error, with costing identifiers passed
// through label.
func Describe(err error, label func(id string) string) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Describe(label)
	}
	return Reason(err)
}

// KindOf returns the Kind of a costing error, or "" if err is not one.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// CycleRejected builds the error returned by guarded line writes.
func CycleRejected(recipeID, candidateID string) *Error {
	return &Error{Kind: KindCycleRejected, RecipeID: recipeID, InputID: candidateID}
}

// ServiceAsInput builds the error for a line that points at a service recipe.
func ServiceAsInput(recipeID, lineID, inputID string) *Error {
	return &Error{
		Kind:     KindServiceAsInput,
		RecipeID: recipeID,
		LineID:   lineID,
		InputID:  inputID,
		Path:     []string{recipeID},
	}
}
