package validator

// Validator checks struct tags and returns a V10ValidationError (or a
// compatible map error) describing every failing field.
type Validator interface {
	Validate(data any) error
}
