// Package validator validates request payloads, session identities and
// module dependencies through a single Validator interface.
package validator
