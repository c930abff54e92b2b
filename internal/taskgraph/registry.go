// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskExists is returned when registering a name twice.
	ErrTaskExists = errors.New("task already exists")
	// ErrUnknownTask is the sentinel error wrapped by UnknownTaskError.
	ErrUnknownTask = errors.New("unknown task")
)

type (
	// UnknownTaskError names a task that is requested or depended upon but
	// not registered.
	UnknownTaskError struct {
		Name string
		// RequiredBy is the task declaring the dependency, or "" for a
		// directly requested task.
		RequiredBy string
	}

	// Registry holds tasks by name in registration order.
	Registry struct {
		tasks map[string]*Task
		order []string
	}
)

func (e *UnknownTaskError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("task %q (required by %q) does not exist", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("task %q does not exist", e.Name)
}

// Unwrap returns ErrUnknownTask for errors.Is() compatibility.
func (e *UnknownTaskError) Unwrap() error { return ErrUnknownTask }

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Register adds t. Registering a taken name fails with ErrTaskExists.
func (r *Registry) Register(t *Task) error {
	if _, ok := r.tasks[t.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrTaskExists, t.Name())
	}
	r.tasks[t.Name()] = t
	r.order = append(r.order, t.Name())
	return nil
}

// Find returns the task named name.
func (r *Registry) Find(name string) (*Task, bool) {
	t, ok := r.tasks[name]
	return t, ok
}

// GetOrCreate returns the task named name, registering factory(name) first
// when none exists. created reports whether factory ran.
func (r *Registry) GetOrCreate(name string, factory func(name string) *Task) (t *Task, created bool) {
	if existing, ok := r.tasks[name]; ok {
		return existing, false
	}
	t = factory(name)
	r.tasks[name] = t
	r.order = append(r.order, name)
	return t, true
}

// Tasks returns every task in registration order.
func (r *Registry) Tasks() []*Task {
	tasks := make([]*Task, 0, len(r.order))
	for _, name := range r.order {
		tasks = append(tasks, r.tasks[name])
	}
	return tasks
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int { return len(r.order) }

// Plan returns the targets and everything they transitively depend on, in
// execution order.
func (r *Registry) Plan(targets ...string) ([]*Task, error) {
	g := NewGraph()
	visited := make(map[string]bool)

	var visit func(name, requiredBy string) error
	visit = func(name, requiredBy string) error {
		t, ok := r.tasks[name]
		if !ok {
			return &UnknownTaskError{Name: name, RequiredBy: requiredBy}
		}
		if visited[name] {
			return nil
		}
		visited[name] = true
		g.AddNode(name)
		for _, dep := range t.dependsOn {
			if err := visit(dep, name); err != nil {
				return err
			}
			g.AddEdge(dep, name)
		}
		return nil
	}

	for _, target := range targets {
		if err := visit(target, ""); err != nil {
			return nil, err
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	plan := make([]*Task, 0, len(order))
	for _, name := range order {
		plan = append(plan, r.tasks[name])
	}
	return plan, nil
}
