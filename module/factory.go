package module

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// EntryConfig is the declarative form of an [Entry].
type EntryConfig struct {
	Type    string         `mapstructure:"type" yaml:"type" validate:"required"`
	Flag    string         `mapstructure:"flag" yaml:"flag,omitempty" validate:"omitempty,oneof=required requisite sufficient optional"`
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty"`
}

// Factory builds a module from its decoded options.
type Factory func(options map[string]any) (Module, error)

// Factories maps module type names to factories.
type Factories struct {
	mu sync.RWMutex
	m  map[string]Factory
}

func NewFactories() *Factories {
	return &Factories{m: make(map[string]Factory)}
}

// Register adds a factory. Registering the same type twice replaces the
// earlier factory.
func (f *Factories) Register(typ string, factory Factory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[typ] = factory
}

// Types returns the registered type names, sorted.
func (f *Factories) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.m))
	for t := range f.m {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// BuildChain instantiates one chain.
func (f *Factories) BuildChain(name string, entries []EntryConfig) (*Chain, error) {
	built := make([]Entry, 0, len(entries))
	for i, ec := range entries {
		f.mu.RLock()
		factory, ok := f.m[ec.Type]
		f.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("chain %q entry %d: %w: %s", name, i, ErrUnknownModuleType, ec.Type)
		}
		flag, err := ParseFlag(ec.Flag)
		if err != nil {
			return nil, fmt.Errorf("chain %q entry %d: %w", name, i, err)
		}
		m, err := factory(ec.Options)
		if err != nil {
			return nil, fmt.Errorf("chain %q entry %d (%s): %w", name, i, ec.Type, err)
		}
		built = append(built, Entry{Module: m, Flag: flag})
	}
	return NewChain(name, built...)
}

// BuildRegistry instantiates every chain in chains.
func (f *Factories) BuildRegistry(chains map[string][]EntryConfig) (*Registry, error) {
	names := make([]string, 0, len(chains))
	for name := range chains {
		names = append(names, name)
	}
	sort.Strings(names)

	built := make([]*Chain, 0, len(names))
	for _, name := range names {
		c, err := f.BuildChain(name, chains[name])
		if err != nil {
			return nil, err
		}
		built = append(built, c)
	}
	return NewRegistry(built...)
}

// DecodeOptions decodes raw module options into out, which must be a pointer
// to a struct with mapstructure tags. Durations may be given as strings and
// numbers may be given as strings.
func DecodeOptions(options map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("decode module options: %w", err)
	}
	return nil
}
