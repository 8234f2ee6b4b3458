// Package loader imports user workflow scripts and resolves workflow
// entities from them. Scripts are self-contained JavaScript files executed
// with goja; the host exposes a single registration function:
//
//	workflow("my_workflow", {
//	    inputs: { name: "string", count: "integer", df: "structured_dataset" },
//	    run: function(inputs) { ... return result; },
//	});
//
// Executing the script registers its workflows in the loader's module
// registry; entities are then looked up by qualified name.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"

	"github.com/me/flowctl/pkg/workflow"
)

// Loader imports script modules and holds the registry of loaded entities.
// Serialization settings are passed in explicitly; there is no ambient
// settings state.
type Loader struct {
	settings    workflow.SerializationSettings
	logger      *slog.Logger
	searchPaths []string
	modules     map[string]*module
}

type module struct {
	name      string
	filename  string
	workflows map[string]*workflow.Entity
}

// New creates a Loader with the given serialization settings.
func New(settings workflow.SerializationSettings, logger *slog.Logger) *Loader {
	return &Loader{
		settings: settings,
		logger:   logger.With("component", "loader"),
		modules:  make(map[string]*module),
	}
}

// Settings returns the serialization settings the loader was created with.
func (l *Loader) Settings() workflow.SerializationSettings {
	return l.settings
}

// PushSearchPath prepends dir to the module search path and returns a
// restore function. Callers defer the restore so the path is released on
// every exit path.
func (l *Loader) PushSearchPath(dir string) (restore func()) {
	l.searchPaths = append([]string{dir}, l.searchPaths...)
	return func() {
		l.searchPaths = l.searchPaths[1:]
	}
}

// ImportModule executes the script for the dotted module name and records
// the workflows it registers. Importing an already-loaded module is a
// no-op.
func (l *Loader) ImportModule(name string) error {
	if _, ok := l.modules[name]; ok {
		return nil
	}

	filename, err := l.resolve(name)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read module %s: %w", name, err)
	}

	mod := &module{
		name:      name,
		filename:  filename,
		workflows: make(map[string]*workflow.Entity),
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	var regErr error
	register := func(wfName string, def *goja.Object) {
		if regErr != nil {
			return
		}
		regErr = l.register(vm, mod, wfName, def)
	}
	if err := vm.Set("workflow", register); err != nil {
		return fmt.Errorf("bind workflow(): %w", err)
	}

	if _, err := vm.RunScript(filename, string(src)); err != nil {
		return fmt.Errorf("execute %s: %w", filename, err)
	}
	if regErr != nil {
		return fmt.Errorf("module %s: %w", name, regErr)
	}

	l.logger.Debug("imported module", "module", name, "file", filename, "workflows", len(mod.workflows))
	l.modules[name] = mod
	return nil
}

// LoadWorkflow returns the entity registered under "module.workflow".
func (l *Loader) LoadWorkflow(qualified string) (*workflow.Entity, error) {
	idx := strings.LastIndex(qualified, ".")
	if idx <= 0 || idx == len(qualified)-1 {
		return nil, fmt.Errorf("invalid qualified workflow name %q", qualified)
	}
	modName, wfName := qualified[:idx], qualified[idx+1:]

	mod, ok := l.modules[modName]
	if !ok {
		return nil, fmt.Errorf("module %q is not imported", modName)
	}
	entity, ok := mod.workflows[wfName]
	if !ok {
		return nil, fmt.Errorf("module %q has no workflow %q", modName, wfName)
	}
	return entity, nil
}

// register validates a workflow definition and builds its entity.
func (l *Loader) register(vm *goja.Runtime, mod *module, wfName string, def *goja.Object) error {
	if wfName == "" {
		return fmt.Errorf("workflow name must not be empty")
	}
	if def == nil {
		return fmt.Errorf("workflow %q has no definition", wfName)
	}
	if _, exists := mod.workflows[wfName]; exists {
		return fmt.Errorf("workflow %q registered twice", wfName)
	}

	iface := workflow.Interface{Inputs: make(map[string]workflow.TypeTag)}
	if v := def.Get("inputs"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		obj := v.ToObject(vm)
		for _, key := range obj.Keys() {
			declared := obj.Get(key).String()
			tag, err := workflow.ParseTypeTag(declared)
			if err != nil {
				return fmt.Errorf("workflow %q input %q: %w", wfName, key, err)
			}
			iface.Inputs[key] = tag
		}
	}

	entity := &workflow.Entity{
		Module:    mod.name,
		Name:      wfName,
		Interface: iface,
		Filename:  mod.filename,
	}

	if v := def.Get("run"); v != nil && !goja.IsUndefined(v) {
		fn, ok := goja.AssertFunction(v)
		if !ok {
			return fmt.Errorf("workflow %q: run is not a function", wfName)
		}
		entity.Run = func(inputs map[string]any) (any, error) {
			result, err := fn(goja.Undefined(), vm.ToValue(inputs))
			if err != nil {
				return nil, fmt.Errorf("run %s: %w", entity.QualifiedName(), err)
			}
			return result.Export(), nil
		}
	}

	mod.workflows[wfName] = entity
	return nil
}

// resolve maps a dotted module name to a script file via the search paths.
func (l *Loader) resolve(name string) (string, error) {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ".js"
	for _, dir := range l.searchPaths {
		candidate := filepath.Join(dir, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("module %q not found in search path", name)
}
