package parser

const (
	// RuntimePackage is the import path of the kiln runtime contracts.
	RuntimePackage = "github.com/toyz/kiln/pkg/kiln"
	// ViewModelPackage hosts view model entries and stores.
	ViewModelPackage = RuntimePackage + "/viewmodel"
	// FragmentPackage hosts fragment entries and stores.
	FragmentPackage = RuntimePackage + "/fragment"
	// WorkPackage hosts worker contracts.
	WorkPackage = RuntimePackage + "/work"
	// FxPackage is the DI framework generated modules target.
	FxPackage = "go.uber.org/fx"

	// GeneratedHeader is the first line of every file kiln writes.
	GeneratedHeader = "// Code generated by kiln. DO NOT EDIT."
	// GeneratedSuffix ends the name of every file kiln writes.
	GeneratedSuffix = "_kiln.go"

	// Runtime type names the classifier recognizes.
	LazyTypeName       = "Lazy"
	SavedStateTypeName = "SavedState"
	AppScopeTypeName   = "AppScope"
	WorkContextName    = "Context"
	WorkParametersName = "Parameters"
	DefaultConstructor = "New"
)
