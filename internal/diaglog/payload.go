package diaglog

import "encoding/json"

// PayloadKind tags the shape carried by a record's data field.
type PayloadKind string

// Known payload kinds. Unstructured is the explicit opt-out carrying an
// opaque key/value mapping.
const (
	KindNavigation    PayloadKind = "navigation"
	KindUserAction    PayloadKind = "user_action"
	KindDataOperation PayloadKind = "data_operation"
	KindWorkflow      PayloadKind = "workflow"
	KindUnstructured  PayloadKind = "unstructured"
)

// NavigationEvent describes a page transition.
type NavigationEvent struct {
	Previous string `json:"previous"`
	Next     string `json:"next"`
}

// UserActionEvent describes a user interaction.
type UserActionEvent struct {
	Action string         `json:"action"`
	Detail map[string]any `json:"detail,omitempty"`
}

// DataOperationEvent describes a service-level entity mutation.
type DataOperationEvent struct {
	Operation string `json:"operation"`
	Entity    string `json:"entity"`
	EntityID  string `json:"entity_id,omitempty"`
}

// WorkflowEvent describes a workflow milestone.
type WorkflowEvent struct {
	Workflow string         `json:"workflow"`
	Step     string         `json:"step"`
	Detail   map[string]any `json:"detail,omitempty"`
}

// Payload is the tagged union attached to a record. Exactly one variant
// matching Kind is populated.
type Payload struct {
	Kind          PayloadKind         `json:"kind"`
	Navigation    *NavigationEvent    `json:"navigation,omitempty"`
	UserAction    *UserActionEvent    `json:"user_action,omitempty"`
	DataOperation *DataOperationEvent `json:"data_operation,omitempty"`
	Workflow      *WorkflowEvent      `json:"workflow,omitempty"`
	Fields        map[string]any      `json:"fields,omitempty"`
}

// Navigation builds a navigation payload.
func Navigation(previous, next string) *Payload {
	return &Payload{Kind: KindNavigation, Navigation: &NavigationEvent{Previous: previous, Next: next}}
}

// UserAction builds a user-action payload.
func UserAction(action string, detail map[string]any) *Payload {
	return &Payload{Kind: KindUserAction, UserAction: &UserActionEvent{Action: action, Detail: detail}}
}

// DataOperation builds a data-operation payload.
func DataOperation(operation, entity, id string) *Payload {
	return &Payload{Kind: KindDataOperation, DataOperation: &DataOperationEvent{Operation: operation, Entity: entity, EntityID: id}}
}

// Workflow builds a workflow payload.
func Workflow(workflow, step string, detail map[string]any) *Payload {
	return &Payload{Kind: KindWorkflow, Workflow: &WorkflowEvent{Workflow: workflow, Step: step, Detail: detail}}
}

// Unstructured builds the opt-out payload carrying an opaque mapping.
func Unstructured(fields map[string]any) *Payload {
	return &Payload{Kind: KindUnstructured, Fields: fields}
}

// String renders the payload as compact JSON for mirrored slog output.
func (p *Payload) String() string {
	b, err := json.Marshal(p)
	if err != nil {
		return string(p.Kind)
	}
	return string(b)
}
