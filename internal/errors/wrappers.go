package errors

import "fmt"

// WrapFileSystemError records the failed operation and the path it touched.
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	return Wrap(FileSystemErrorCode, fmt.Sprintf("failed to %s %q", operation, path), cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

func WrapTemplateError(templateName, operation string, cause error) *BaseError {
	return Wrap(TemplateErrorCode, fmt.Sprintf("failed to %s template %s", operation, templateName), cause).
		WithContext("template", templateName)
}

// WrapConfigurationError wraps a failure reading or decoding source.
func WrapConfigurationError(source, operation string, cause error) *BaseError {
	return Wrap(ConfigurationErrorCode, fmt.Sprintf("failed to %s configuration '%s'", operation, source), cause).
		WithContext("source", source).
		WithContext("operation", operation)
}

// WrapLoadError wraps a go/packages failure.
func WrapLoadError(patterns []string, cause error) *BaseError {
	return Wrap(LoadErrorCode, fmt.Sprintf("failed to load packages %v", patterns), cause).
		WithSuggestions(
			"check that the patterns name packages inside the current module",
			"run 'go build' on the packages to see compiler errors",
		)
}
