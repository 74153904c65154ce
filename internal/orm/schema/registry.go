package schema

import (
	"sort"
	"sync"
)

// Registry is the class registry: display name to class, and name to
// compiled model. It is used to go back from a persisted artifact to the
// class that produced it.
type Registry struct {
	classes map[string]*Class
	models  map[string]*Model
	mu      sync.RWMutex
}

// NewRegistry creates an empty class registry
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*Class),
		models:  make(map[string]*Model),
	}
}

// Register records that name was compiled from cl. Later registrations of
// the same name win.
func (r *Registry) Register(name string, cl *Class) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classes[name] = cl
}

// Class returns the class registered under name
func (r *Registry) Class(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cl, exists := r.classes[name]
	return cl, exists
}

// ArtifactNamer is anything that knows the name it was registered under
type ArtifactNamer interface {
	ModelName() string
}

// ClassFor resolves the class of a name, a compiled schema, a model, or
// any artifact exposing ModelName.
func (r *Registry) ClassFor(artifact any) (*Class, error) {
	var name string
	switch v := artifact.(type) {
	case string:
		name = v
	case ArtifactNamer:
		name = v.ModelName()
	default:
		return nil, newError(ErrUnresolvableName, "", "", artifact, "")
	}

	cl, ok := r.Class(name)
	if !ok {
		return nil, newError(ErrUnresolvableName, "", "", name, "no class registered under this name")
	}
	return cl, nil
}

// AddModel registers a model for cl. A model name can only be added once.
func (r *Registry) AddModel(model *Model, cl *Class) error {
	if model == nil || model.Name == "" {
		return newError(ErrNotValidModel, "", "", model, "AddModel")
	}
	if cl == nil {
		return newError(ErrNoValidClass, "", "", nil, "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[model.Name]; exists {
		return newError(ErrModelExists, model.Name, "", nil, "AddModel only supports one model per name")
	}
	r.models[model.Name] = model
	r.classes[model.Name] = cl
	return nil
}

// Model returns the model registered under name
func (r *Registry) Model(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.models[name]
	return m, exists
}

// DeleteModel removes the model and class registered under name
func (r *Registry) DeleteModel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.models, name)
	delete(r.classes, name)
}

// DeleteModelWithClass removes the model built from cl. It reports whether
// a registration was found.
func (r *Registry) DeleteModelWithClass(cl *Class, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[name]; !exists {
		found := false
		for n, c := range r.classes {
			if c == cl {
				name = n
				found = true
			}
		}
		if !found {
			return false
		}
	}
	delete(r.models, name)
	delete(r.classes, name)
	return true
}

// List returns the registered class names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models returns the registered models sorted by name
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clear removes every registration (useful for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classes = make(map[string]*Class)
	r.models = make(map[string]*Model)
}

// Count returns the number of registered class names
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.classes)
}

// Exists checks if a class name is registered
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.classes[name]
	return exists
}

// RegistryStats summarizes the registry
type RegistryStats struct {
	TotalClasses        int
	TotalModels         int
	DiscriminatorModels int
	TotalPaths          int
}

// GetStats returns statistics about the registry
func (r *Registry) GetStats() *RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &RegistryStats{
		TotalClasses: len(r.classes),
		TotalModels:  len(r.models),
	}
	for _, m := range r.models {
		if m.Base != nil {
			stats.DiscriminatorModels++
		}
		if m.Schema != nil {
			stats.TotalPaths += m.Schema.Fields.Len()
		}
	}
	return stats
}
