// Package deploy runs the templatize/instantiate pipeline described by a
// deployment descriptor and dispatches it across all loaded descriptors.
package deploy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/secretfill-dev/secretfill/internal/conf"
	"github.com/secretfill-dev/secretfill/internal/descriptor"
	"github.com/secretfill-dev/secretfill/internal/provider"
)

// TemplateSuffix is appended to a configuration path to derive the path of
// its persisted template.
const TemplateSuffix = ".tmpl"

// TemplatePath derives the template path for a configuration path.
func TemplatePath(configPath string) string {
	return configPath + TemplateSuffix
}

// Pipeline deploys one descriptor: it derives (or loads) the template for the
// configuration, resolves the referenced provider keys, and atomically
// rewrites the configuration file. The model is rebuilt from disk on every
// run, which is how configuration upgrades are picked up automatically.
type Pipeline struct {
	desc    descriptor.Descriptor
	handler conf.Handler
	prov    provider.Provider

	// WriteConfig controls whether the instantiated configuration is
	// written back to disk. Disabled by dry runs.
	WriteConfig bool
}

// NewPipeline wires a descriptor to its configuration handler and provider.
func NewPipeline(d descriptor.Descriptor, handler conf.Handler, prov provider.Provider) *Pipeline {
	return &Pipeline{
		desc:        d,
		handler:     handler,
		prov:        prov,
		WriteConfig: true,
	}
}

// Deploy runs the pipeline and returns the instantiated configuration text.
// Any failure aborts before the configuration file is replaced, so a partial
// or corrupt configuration is never observed.
func (p *Pipeline) Deploy() (string, error) {
	fail := func(stage string, err error) (string, error) {
		return "", &DeployError{Config: p.desc.Config, Stage: stage, Err: err}
	}

	tmpl, err := p.template()
	if err != nil {
		return fail(StageTemplatize, err)
	}

	if p.desc.Persist {
		text := p.handler.Render(tmpl)
		if err := writeFileAtomic(TemplatePath(p.desc.Config), []byte(text)); err != nil {
			return fail(StagePersist, err)
		}
		log.Debug().Str("template", TemplatePath(p.desc.Config)).Msg("persisted template")
	}

	resolved, err := p.resolve(tmpl)
	if err != nil {
		return fail(StageResolve, err)
	}

	model, err := p.handler.Instantiate(tmpl, resolved)
	if err != nil {
		return fail(StageInstantiate, err)
	}

	text := p.handler.Render(model)

	if p.WriteConfig {
		if err := writeFileAtomic(p.desc.Config, []byte(text)); err != nil {
			return fail(StageWrite, err)
		}
	}

	log.Info().
		Str("config", p.desc.Config).
		Int("secrets", len(resolved)).
		Bool("written", p.WriteConfig).
		Msg("deployed configuration")

	return text, nil
}

// template produces the template model, either by templatizing the current
// configuration or by loading a previously persisted template verbatim.
func (p *Pipeline) template() (*conf.Model, error) {
	if p.desc.TemplatizeEnabled() {
		raw, err := readFile(p.desc.Config)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &MissingConfigError{Path: p.desc.Config}
			}
			return nil, err
		}

		model, err := p.handler.Parse(raw)
		if err != nil {
			return nil, err
		}

		return p.handler.Templatize(model, p.desc.Assign)
	}

	// Assign is guaranteed empty by validation, the persisted template is
	// the single source of placeholders here.
	path := TemplatePath(p.desc.Config)
	raw, err := readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingTemplateError{Path: path}
		}
		return nil, err
	}

	return p.handler.Parse(raw)
}

// resolve queries the provider once per distinct key referenced by the
// template. Values are never cached across descriptors or runs.
func (p *Pipeline) resolve(tmpl *conf.Model) (map[string]string, error) {
	resolved := make(map[string]string)

	for _, key := range p.handler.Keys(tmpl) {
		value, err := p.prov.Resolve(key)
		if err != nil {
			return nil, err
		}
		resolved[key] = value

		log.Debug().Str("key", key).Str("config", p.desc.Config).Msg("resolved secret")
	}

	return resolved, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeFileAtomic writes data to a temporary file in the target directory and
// renames it over the destination, so readers only ever observe the old or
// the new content in full. An existing file keeps its mode.
func writeFileAtomic(path string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set mode on %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
