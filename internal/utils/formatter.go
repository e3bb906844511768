package utils

import (
	"fmt"
	"go/parser"
	"go/token"

	"golang.org/x/tools/imports"
)

// formatOptions keep imports as written. Generated files declare every
// import they need, so there is nothing to resolve on disk.
var formatOptions = &imports.Options{
	FormatOnly: true,
	Comments:   true,
	TabIndent:  true,
	TabWidth:   8,
}

// FormatGoCode formats generated source the way goimports would, grouping
// and sorting the import block.
func FormatGoCode(filename string, source []byte) ([]byte, error) {
	formatted, err := imports.Process(filename, source, formatOptions)
	if err != nil {
		if parseErr := ValidateGoCode(filename, source); parseErr != nil {
			return nil, fmt.Errorf("invalid Go syntax in %s: %w", filename, parseErr)
		}
		return nil, fmt.Errorf("failed to format %s: %w", filename, err)
	}
	return formatted, nil
}

// ValidateGoCode checks if the provided code is valid Go syntax
func ValidateGoCode(filename string, source []byte) error {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, filename, source, parser.ParseComments)
	return err
}
