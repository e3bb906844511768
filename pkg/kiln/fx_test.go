package kiln_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/toyz/kiln/pkg/kiln"
	"github.com/toyz/kiln/pkg/kiln/fragment"
	"github.com/toyz/kiln/pkg/kiln/viewmodel"
	"github.com/toyz/kiln/pkg/kiln/work"
)

// The declarations below have the shape kiln writes for a package holding
// one view model, one fragment, one worker and a merged AppScope component
// that supersedes the one generated for a base package.

const (
	viewModelGroup = "kiln.viewmodel:github.com/toyz/kiln/pkg/kiln.AppScope"
	fragmentGroup  = "kiln.fragment:github.com/toyz/kiln/pkg/kiln.AppScope"
	workerGroup    = "kiln.worker:github.com/toyz/kiln/pkg/kiln.AppScope"
)

type Repo struct{ name string }

type Detail struct {
	repo *Repo
	id   string
}

type Home struct{ repo *Repo }

type Sync struct {
	repo  *Repo
	ran   *[]string
	input string
}

func (s *Sync) DoWork() error {
	*s.ran = append(*s.ran, s.repo.name+":"+s.input)
	return nil
}

type DetailFactory struct {
	Repo *kiln.Lazy[*Repo]
}

type DetailFactoryParams struct {
	fx.In

	Repo *kiln.Lazy[*Repo]
}

func NewDetailFactory(p DetailFactoryParams) *DetailFactory {
	return &DetailFactory{Repo: p.Repo}
}

func (f *DetailFactory) Create(state kiln.SavedState) (*Detail, error) {
	id, err := kiln.StateValue[string](state, "item_id")
	if err != nil {
		return nil, err
	}
	return &Detail{repo: f.Repo.Get(), id: id}, nil
}

var DetailViewModelModule = fx.Module("github.com/toyz/kiln/pkg/kiln_test.DetailViewModelModule",
	fx.Provide(
		NewDetailFactory,
		fx.Annotated{
			Group: viewModelGroup,
			Target: func(f *DetailFactory) viewmodel.Entry {
				return viewmodel.NewEntry(f.Create)
			},
		},
	),
)

type HomeFactory struct {
	Repo *Repo
}

func NewHomeFactory(repo *Repo) *HomeFactory {
	return &HomeFactory{Repo: repo}
}

func (f *HomeFactory) Create() (*Home, error) {
	return &Home{repo: f.Repo}, nil
}

var HomeFragmentModule = fx.Module("github.com/toyz/kiln/pkg/kiln_test.HomeFragmentModule",
	fx.Provide(
		NewHomeFactory,
		fx.Annotated{
			Group: fragmentGroup,
			Target: func(f *HomeFactory) fragment.Entry {
				return fragment.NewEntry(f.Create)
			},
		},
	),
)

type SyncFactory struct {
	Repo *Repo
	Ran  *[]string
}

func NewSyncFactory(repo *Repo, ran *[]string) *SyncFactory {
	return &SyncFactory{Repo: repo, Ran: ran}
}

func (f *SyncFactory) Create(ctx work.Context, params work.Parameters) (*Sync, error) {
	input, _ := params.Input["target"].(string)
	return &Sync{repo: f.Repo, ran: f.Ran, input: input}, nil
}

var SyncWorkerModule = fx.Module("github.com/toyz/kiln/pkg/kiln_test.SyncWorkerModule",
	fx.Provide(
		NewSyncFactory,
		fx.Annotated{
			Group: workerGroup,
			Target: func(f *SyncFactory) work.Entry {
				return work.NewEntry(f.Create)
			},
		},
	),
)

type AppScopeMergedComponent2 struct {
	fx.In

	ViewModels []viewmodel.Entry `group:"kiln.viewmodel:github.com/toyz/kiln/pkg/kiln.AppScope"`
	Fragments  []fragment.Entry  `group:"kiln.fragment:github.com/toyz/kiln/pkg/kiln.AppScope"`
	Workers    []work.Entry      `group:"kiln.worker:github.com/toyz/kiln/pkg/kiln.AppScope"`
}

func (c AppScopeMergedComponent2) ViewModelStore() *viewmodel.Store {
	return viewmodel.NewStore(c.ViewModels)
}

func (c AppScopeMergedComponent2) FragmentStore() *fragment.Store {
	return fragment.NewStore(c.Fragments)
}

func (c AppScopeMergedComponent2) WorkerStore() *work.Store {
	return work.NewStore(c.Workers)
}

var AppScopeMergedComponent2Module = fx.Module("github.com/toyz/kiln/pkg/kiln_test.AppScopeMergedComponent2Module",
	fx.Provide(
		fx.Annotated{
			Group: kiln.ComponentsGroup,
			Target: func(c AppScopeMergedComponent2) kiln.ComponentEntry {
				return kiln.ComponentEntry{
					Scope:     "github.com/toyz/kiln/pkg/kiln.AppScope",
					Name:      "github.com/toyz/kiln/pkg/kiln_test.AppScopeMergedComponent2",
					Replaces:  []string{"example.com/base.AppScopeMergedComponent"},
					Component: c,
				}
			},
		},
	),
)

// baseComponentModule stands in for the module generated for the base
// package.
var baseComponentModule = fx.Module("example.com/base.AppScopeMergedComponentModule",
	fx.Provide(
		fx.Annotated{
			Group: kiln.ComponentsGroup,
			Target: func() kiln.ComponentEntry {
				return kiln.ComponentEntry{
					Scope:     "github.com/toyz/kiln/pkg/kiln.AppScope",
					Name:      "example.com/base.AppScopeMergedComponent",
					Component: struct{}{},
				}
			},
		},
	),
)

func TestGeneratedModulesWireThroughFx(t *testing.T) {
	var (
		registry *kiln.Registry
		ran      []string
	)
	app := fx.New(
		fx.NopLogger,
		kiln.Module,
		fx.Supply(&Repo{name: "db"}, &ran),
		kiln.ProvideLazy[*Repo](),
		DetailViewModelModule,
		HomeFragmentModule,
		SyncWorkerModule,
		baseComponentModule,
		AppScopeMergedComponent2Module,
		fx.Populate(&registry),
	)
	require.NoError(t, app.Err())

	assert.Equal(t, []string{"example.com/base.AppScopeMergedComponent"}, registry.Replaced())
	c, err := kiln.ComponentFor[kiln.AppScope, AppScopeMergedComponent2](registry)
	require.NoError(t, err)

	detail, err := viewmodel.Get[Detail](c.ViewModelStore(), kiln.NewSavedState(map[string]any{"item_id": "42"}))
	require.NoError(t, err)
	assert.Equal(t, "42", detail.id)
	assert.Equal(t, "db", detail.repo.name)

	_, err = viewmodel.Get[Detail](c.ViewModelStore(), nil)
	assert.ErrorIs(t, err, kiln.ErrStateKeyMissing)

	home, err := fragment.Get[Home](c.FragmentStore())
	require.NoError(t, err)
	assert.Equal(t, "db", home.repo.name)

	workers := c.WorkerStore()
	assert.Equal(t, []string{"github.com/toyz/kiln/pkg/kiln_test.Sync"}, workers.Names())
	params, err := workers.Run(context.Background(), "github.com/toyz/kiln/pkg/kiln_test.Sync", map[string]any{"target": "inbox"})
	require.NoError(t, err)
	assert.Equal(t, 1, params.Attempt)
	assert.Equal(t, []string{"db:inbox"}, ran)
}

func TestDuplicateComponentsFailStartup(t *testing.T) {
	second := fx.Module("example.com/other.AppScopeMergedComponentModule",
		fx.Provide(
			fx.Annotated{
				Group: kiln.ComponentsGroup,
				Target: func() kiln.ComponentEntry {
					return kiln.ComponentEntry{
						Scope: "github.com/toyz/kiln/pkg/kiln.AppScope",
						Name:  "example.com/other.AppScopeMergedComponent",
					}
				},
			},
		),
	)

	var registry *kiln.Registry
	app := fx.New(
		fx.NopLogger,
		kiln.Module,
		baseComponentModule,
		second,
		fx.Populate(&registry),
	)
	require.Error(t, app.Err())
	assert.ErrorContains(t, app.Err(), "more than one component bound to scope")
}
