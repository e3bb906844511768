package annotations

import (
	"fmt"
	"sort"
)

// Validate checks an annotation against its schema and applies defaults.
// Every problem is reported, sorted by parameter name.
func Validate(a *Annotation, schema Schema) error {
	var errs ValidationErrors

	if len(a.Args) < schema.MinArgs || (schema.MaxArgs >= 0 && len(a.Args) > schema.MaxArgs) {
		errs = append(errs, &ValidationError{
			Kind:      a.Kind,
			Parameter: argName(schema),
			Expected:  argCount(schema),
			Actual:    fmt.Sprintf("%d positional argument(s)", len(a.Args)),
			Loc:       a.Location,
			Hint:      exampleHint(schema),
		})
	}
	if schema.ArgName == "parameter" {
		for _, arg := range a.Args {
			if !identPattern.MatchString(arg) {
				errs = append(errs, &ValidationError{
					Kind:      a.Kind,
					Parameter: schema.ArgName,
					Expected:  "a parameter name",
					Actual:    fmt.Sprintf("'%s'", arg),
					Loc:       a.Location,
				})
			}
		}
	}

	names := make([]string, 0, len(a.Parameters))
	for name := range a.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := a.Parameters[name]
		spec, known := schema.Parameters[name]
		if !known {
			errs = append(errs, &ValidationError{
				Kind:      a.Kind,
				Parameter: name,
				Expected:  "known parameter",
				Actual:    fmt.Sprintf("unknown parameter '%s'", name),
				Loc:       a.Location,
				Hint:      fmt.Sprintf("Remove -%s or check parameter name spelling", name),
			})
			continue
		}
		if err := checkType(spec.Type, value); err != "" {
			errs = append(errs, &ValidationError{
				Kind:      a.Kind,
				Parameter: name,
				Expected:  spec.Type.String(),
				Actual:    err,
				Loc:       a.Location,
			})
			continue
		}
		if spec.Validator != nil {
			if err := spec.Validator(value); err != nil {
				errs = append(errs, &ValidationError{
					Kind:      a.Kind,
					Parameter: name,
					Expected:  "valid value",
					Actual:    fmt.Sprintf("%v", value),
					Loc:       a.Location,
					Hint:      err.Error(),
				})
			}
		}
	}

	required := make([]string, 0)
	for name, spec := range schema.Parameters {
		if _, ok := a.Parameters[name]; ok {
			continue
		}
		if spec.Required {
			required = append(required, name)
		} else if spec.DefaultValue != nil {
			a.Parameters[name] = spec.DefaultValue
		}
	}
	sort.Strings(required)
	for _, name := range required {
		errs = append(errs, &ValidationError{
			Kind:      a.Kind,
			Parameter: name,
			Expected:  fmt.Sprintf("required parameter of type %s", schema.Parameters[name].Type),
			Actual:    "missing",
			Loc:       a.Location,
			Hint:      fmt.Sprintf("Add -%s=<value> to the directive", name),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkType(t ParameterType, value any) string {
	switch t {
	case StringType:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("%T", value)
		}
	case BoolType:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("%T", value)
		}
	case StringSliceType:
		if _, ok := value.([]string); !ok {
			return fmt.Sprintf("%T", value)
		}
	}
	return ""
}

func argName(schema Schema) string {
	if schema.ArgName == "" {
		return "arguments"
	}
	return schema.ArgName
}

func argCount(schema Schema) string {
	switch {
	case schema.MaxArgs == 0:
		return "no positional arguments"
	case schema.MaxArgs < 0:
		return fmt.Sprintf("at least %d positional argument(s)", schema.MinArgs)
	case schema.MinArgs == schema.MaxArgs:
		return fmt.Sprintf("exactly %d positional argument(s)", schema.MinArgs)
	}
	return fmt.Sprintf("%d to %d positional arguments", schema.MinArgs, schema.MaxArgs)
}

func exampleHint(schema Schema) string {
	if len(schema.Examples) == 0 {
		return ""
	}
	return "e.g. " + schema.Examples[0]
}
