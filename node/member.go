package node

// MemberNode is a named field of an owning object. It holds either an
// owned value (primitive, content reference) or a reference to a target
// node elsewhere in the graph.
type MemberNode struct {
	Name         string
	DeclaredType string
	Owner        *ObjectNode

	// CanOverride gates whether this member's content override may ever
	// move away from Base (spec invariant I1).
	CanOverride bool

	// IsReference marks that Target, not Value, holds this member's
	// content: the value is a pointer into the graph rather than an
	// owned value.
	IsReference bool

	// IsObjectReference marks that this member's value addresses an
	// identifiable object by id rather than containing it structurally.
	IsObjectReference bool

	target Node
	value  interface{}
	sink   EventSink
}

// NewMemberNode creates a member that owns a plain value.
func NewMemberNode(name, declaredType string, canOverride bool) *MemberNode {
	return &MemberNode{Name: name, DeclaredType: declaredType, CanOverride: canOverride}
}

func (m *MemberNode) Kind() Kind { return KindMember }

// SetSink wires the shared event sink; used during graph construction.
func (m *MemberNode) SetSink(sink EventSink) { m.sink = sink }

// SetTarget wires this member as a reference to target, without firing
// events — used while constructing the graph, not while mutating it.
func (m *MemberNode) SetTarget(target Node) {
	m.IsReference = true
	m.target = target
}

// SetValueSilent sets the owned value without firing events — used while
// constructing the graph.
func (m *MemberNode) SetValueSilent(v interface{}) {
	m.value = v
}

// Target returns the referenced node, if this member is a reference.
func (m *MemberNode) Target() (Node, bool) {
	if !m.IsReference {
		return nil, false
	}
	return m.target, m.target != nil
}

// TargetObject returns the referenced node as an ObjectNode, if the
// reference target is structurally an object.
func (m *MemberNode) TargetObject() (*ObjectNode, bool) {
	if !m.IsReference {
		return nil, false
	}
	obj, ok := m.target.(*ObjectNode)
	return obj, ok
}

// Retrieve returns the member's current content: the owned value, or, for
// a reference member, the referenced node itself.
func (m *MemberNode) Retrieve() interface{} {
	if m.IsReference {
		return m.target
	}
	return m.value
}

// Update replaces the member's owned value, firing Changing/Changed
// around the mutation. Updating a reference member's target uses
// Rebind instead.
func (m *MemberNode) Update(newValue interface{}) {
	old := m.value
	if m.sink != nil {
		m.sink.Changing(m, old)
	}
	m.value = newValue
	if m.sink != nil {
		m.sink.Changed(m, old, newValue)
	}
}

// Rebind replaces a reference member's target, firing Changing/Changed
// with the old/new target nodes as the "value".
func (m *MemberNode) Rebind(newTarget Node) {
	var old interface{} = m.target
	if m.sink != nil {
		m.sink.Changing(m, old)
	}
	m.IsReference = true
	m.target = newTarget
	if m.sink != nil {
		m.sink.Changed(m, old, interface{}(newTarget))
	}
}
