// Package schema describes the input form of a wizard step: an ordered
// list of typed fields with required/default/constraint attributes.
//
// Handlers build schemas programmatically and attach them to form results;
// the codec turns a schema into wire-representable field descriptors for
// whatever frontend renders the form. Field order is preserved end to end.
//
//	s := schema.MustNew(
//	    schema.Required("host", schema.String()),
//	    schema.Optional("port", schema.Int()).Default(80),
//	    schema.Required("password", schema.String()).Secret(),
//	)
//
//	if errs := s.Validate(input); errs != nil {
//	    return domain.ShowForm("user", s).WithErrors(errs), nil
//	}
//
// Malformed schemas (duplicate or empty field names, nil types) are an
// authoring bug, rejected at construction, never a runtime failure for
// end users.
package schema
