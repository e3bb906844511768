package generator

import "github.com/toyz/kiln/internal/models"

// Emitter renders one artifact of a target. A nil file means the artifact
// is not needed for this target.
type Emitter func(target models.InjectTarget) (*models.GeneratedFile, error)

// CodeGenerator turns validated targets into generated files.
type CodeGenerator interface {
	EmittersFor(target models.InjectTarget) ([]Emitter, error)
	Generate(target models.InjectTarget) ([]*models.GeneratedFile, error)
}
