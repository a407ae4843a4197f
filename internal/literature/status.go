package literature

// Status is the processing state of one entity component.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusPartial    Status = "partial"
	StatusFailed     Status = "failed"
)

// OverallStatus is the derived, user-visible status of an entity.
type OverallStatus string

const (
	OverallProcessing       OverallStatus = "processing"
	OverallCompleted        OverallStatus = "completed"
	OverallPartialCompleted OverallStatus = "partial_completed"
	OverallMinimalCompleted OverallStatus = "minimal_completed"
	OverallFailed           OverallStatus = "failed"
)

// Component names tracked per entity.
const (
	ComponentMetadata   = "metadata"
	ComponentContent    = "content"
	ComponentReferences = "references"
)

// MaxAttempts is the per-component retry ceiling.
const MaxAttempts = 3

// ComponentStatus tracks the processing state of a single entity component.
type ComponentStatus struct {
	Status   Status `json:"status"`
	Stage    string `json:"stage,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ComponentSet holds the per-component statuses of an entity.
type ComponentSet struct {
	Metadata   ComponentStatus `json:"metadata"`
	Content    ComponentStatus `json:"content"`
	References ComponentStatus `json:"references"`
}

// NewComponentSet returns a ComponentSet with every component pending.
func NewComponentSet() ComponentSet {
	pending := ComponentStatus{Status: StatusPending}
	return ComponentSet{Metadata: pending, Content: pending, References: pending}
}

// Get returns the status of the named component.
func (c ComponentSet) Get(component string) ComponentStatus {
	switch component {
	case ComponentMetadata:
		return c.Metadata
	case ComponentContent:
		return c.Content
	case ComponentReferences:
		return c.References
	}
	return ComponentStatus{}
}

// Set returns a copy of the set with the named component replaced.
func (c ComponentSet) Set(component string, cs ComponentStatus) ComponentSet {
	out := c
	switch component {
	case ComponentMetadata:
		out.Metadata = cs
	case ComponentContent:
		out.Content = cs
	case ComponentReferences:
		out.References = cs
	}
	return out
}

// metadataUsable reports whether metadata reached at least partial quality.
func (c ComponentSet) metadataUsable() bool {
	return c.Metadata.Status == StatusSuccess || c.Metadata.Status == StatusPartial
}

// Overall derives the entity-level status from the component statuses.
//
// The graded-success model is intentional: a paper with good metadata but no
// resolvable references is still useful and must not surface as a hard
// failure.
//
// Rules, in order:
//   - processing while any component is still processing
//   - failed if any component failed and metadata is not at least partial
//   - completed if metadata succeeded (fully or partially) and references
//     succeeded or partially succeeded
//   - partial_completed if metadata fully succeeded but references failed
//   - minimal_completed if metadata only partially succeeded and references
//     failed
func (c ComponentSet) Overall() OverallStatus {
	if c.Metadata.Status == StatusProcessing ||
		c.Content.Status == StatusProcessing ||
		c.References.Status == StatusProcessing {
		return OverallProcessing
	}

	anyFailed := c.Metadata.Status == StatusFailed ||
		c.Content.Status == StatusFailed ||
		c.References.Status == StatusFailed
	if anyFailed && !c.metadataUsable() {
		return OverallFailed
	}

	refsOK := c.References.Status == StatusSuccess || c.References.Status == StatusPartial
	if c.metadataUsable() && refsOK {
		return OverallCompleted
	}

	if c.Metadata.Status == StatusSuccess {
		return OverallPartialCompleted
	}
	if c.Metadata.Status == StatusPartial {
		return OverallMinimalCompleted
	}

	// Nothing processed yet and nothing failed hard.
	return OverallProcessing
}
