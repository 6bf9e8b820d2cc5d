// Package validator builds declarative validation from small Rule values.
//
//	err := validator.Apply(
//		validator.RequiredString("title", title).WithCause(ErrTitleRequired),
//		validator.MaxLenString("title", title, 200),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//		details := verrs.Details()
//	}
//
// Apply evaluates every rule and aggregates failures into ValidationErrors,
// which matches ErrValidationFailed and each rule's Cause through errors.Is.
// String lengths are counted in characters.
package validator
