package node

import "github.com/kailayerhq/assetgraph/id"

// ObjectNode is a structural value with named children (sub-members).
type ObjectNode struct {
	TypeName string
	// ItemId is this object's identity when it sits inside an
	// identifiable collection/dictionary as a reference target; Empty
	// when the object is plain structural content.
	ItemId id.ItemId

	owner    *MemberNode // nil for an asset root
	order    []string
	children map[string]*MemberNode
	sink     EventSink
}

// NewObjectNode creates an empty ObjectNode of the given declared type.
func NewObjectNode(typeName string) *ObjectNode {
	return &ObjectNode{
		TypeName: typeName,
		children: make(map[string]*MemberNode),
	}
}

func (o *ObjectNode) Kind() Kind { return KindObject }

// SetSink wires the event sink shared by the whole asset graph onto this
// object and is propagated to members added afterward via AddMember.
func (o *ObjectNode) SetSink(sink EventSink) {
	o.sink = sink
	for _, name := range o.order {
		o.children[name].sink = sink
	}
}

// Sink returns the event sink currently wired to this object, if any.
func (o *ObjectNode) Sink() EventSink { return o.sink }

// AddMember attaches a child member, preserving declaration order.
func (o *ObjectNode) AddMember(m *MemberNode) {
	if _, exists := o.children[m.Name]; !exists {
		o.order = append(o.order, m.Name)
	}
	m.Owner = o
	m.sink = o.sink
	o.children[m.Name] = m
}

// Child looks up a named sub-member.
func (o *ObjectNode) Child(name string) (*MemberNode, bool) {
	m, ok := o.children[name]
	return m, ok
}

// Children returns sub-members in declaration order.
func (o *ObjectNode) Children() []*MemberNode {
	out := make([]*MemberNode, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.children[name])
	}
	return out
}
