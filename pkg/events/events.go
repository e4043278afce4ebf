// Package events defines the typed messages the cookbook emits as state is
// persisted, fails to persist, or changes on disk underneath it.
package events

import (
	"fmt"
)

// ComponentID identifies the component emitting an event.
type ComponentID string

// Msg is any event. Describe renders it for logs.
type Msg interface {
	Describe() string
}

// ChangeType enumerates persistence actions.
type ChangeType string

const (
	// ChangeCreate indicates a new resource was created.
	ChangeCreate ChangeType = "create"
	// ChangeUpdate indicates an existing resource changed.
	ChangeUpdate ChangeType = "update"
	// ChangeDelete indicates a resource was removed.
	ChangeDelete ChangeType = "delete"
)

// Kind is the kind of resource an event is about.
type Kind string

const (
	KindFolder Kind = "folder"
	KindRecipe Kind = "recipe"
)

// Ref names a folder or recipe in an event.
type Ref struct {
	Kind Kind
	ID   string
	Name string
}

// Label returns the name, or the id for unnamed resources.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// PersistedMsg reports a store call that succeeded.
type PersistedMsg struct {
	Component ComponentID
	Scope     string
	Action    ChangeType
	Ref       Ref
	Attempts  int
}

func (m PersistedMsg) Describe() string {
	return fmt.Sprintf(`scope:%q action:%q kind:%q name:%q attempts:%d`, m.Scope, m.Action, m.Ref.Kind, m.Ref.Label(), m.Attempts)
}

// PersistFailedMsg reports a store call that failed after every retry. The
// item stays dirty and is tried again on the next pass of its scope.
type PersistFailedMsg struct {
	Component ComponentID
	Scope     string
	Action    ChangeType
	Ref       Ref
	Attempts  int
	Err       error
}

func (m PersistFailedMsg) Describe() string {
	return fmt.Sprintf(`scope:%q action:%q kind:%q name:%q attempts:%d err:%q`, m.Scope, m.Action, m.Ref.Kind, m.Ref.Label(), m.Attempts, m.Err)
}

// PassMsg summarizes one diff-and-persist pass over a scope.
type PassMsg struct {
	Component ComponentID
	Scope     string
	Created   int
	Updated   int
	Deleted   int
	Dropped   int
	Failed    int
}

func (m PassMsg) Describe() string {
	return fmt.Sprintf(`scope:%q created:%d updated:%d deleted:%d dropped:%d failed:%d`, m.Scope, m.Created, m.Updated, m.Deleted, m.Dropped, m.Failed)
}

// NavigateMsg asks the caller to open a newly created folder or recipe.
type NavigateMsg struct {
	Component ComponentID
	To        Ref
}

func (m NavigateMsg) Describe() string {
	return fmt.Sprintf(`kind:%q name:%q`, m.To.Kind, m.To.Label())
}

// ExternalChangeMsg reports that the backing store changed outside this
// process.
type ExternalChangeMsg struct {
	Component ComponentID
	Path      string
	Op        string
}

func (m ExternalChangeMsg) Describe() string {
	return fmt.Sprintf(`path:%q op:%q`, m.Path, m.Op)
}
