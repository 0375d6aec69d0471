package node

import (
	"testing"

	"github.com/kailayerhq/assetgraph/id"
)

// recordingSink counts Changing/Changed pairs to assert strict ordering
// (spec §5 "strict Changing-before-Changed pairing").
type recordingSink struct {
	events []string
}

func (r *recordingSink) Changing(m *MemberNode, old interface{}) {
	r.events = append(r.events, "Changing:"+m.Name)
}
func (r *recordingSink) Changed(m *MemberNode, old, new interface{}) {
	r.events = append(r.events, "Changed:"+m.Name)
}
func (r *recordingSink) ItemChanging(n IndexedObject, kind ChangeKind, idx id.Index, old interface{}) {
	r.events = append(r.events, "ItemChanging")
}
func (r *recordingSink) ItemChanged(n IndexedObject, kind ChangeKind, idx id.Index, new interface{}) {
	r.events = append(r.events, "ItemChanged")
}

func TestMemberUpdateFiresChangingThenChanged(t *testing.T) {
	sink := &recordingSink{}
	m := NewMemberNode("name", "string", true)
	m.SetSink(sink)
	m.SetValueSilent("old")

	m.Update("new")

	want := []string{"Changing:name", "Changed:name"}
	if len(sink.events) != len(want) {
		t.Fatalf("events = %v, want %v", sink.events, want)
	}
	for i := range want {
		if sink.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", sink.events, want)
		}
	}
	if got := m.Retrieve(); got != "new" {
		t.Errorf("Retrieve() = %v, want %q", got, "new")
	}
}

func TestMemberRebind(t *testing.T) {
	owner := NewObjectNode("Thing")
	target1 := NewObjectNode("Target")
	target2 := NewObjectNode("Target")

	m := NewMemberNode("ref", "Target", true)
	m.SetTarget(target1)
	owner.AddMember(m)

	m.Rebind(target2)

	got, ok := m.Target()
	if !ok || got != Node(target2) {
		t.Errorf("Target() = %v, %v; want %v, true", got, ok, target2)
	}
}

func TestObjectAddMemberAndChild(t *testing.T) {
	o := NewObjectNode("Thing")
	m1 := NewMemberNode("a", "int", true)
	m2 := NewMemberNode("b", "int", true)
	o.AddMember(m1)
	o.AddMember(m2)

	children := o.Children()
	if len(children) != 2 || children[0].Name != "a" || children[1].Name != "b" {
		t.Fatalf("Children() = %v, want [a b] in order", children)
	}

	if _, ok := o.Child("missing"); ok {
		t.Errorf("Child(missing) found something")
	}
	got, ok := o.Child("a")
	if !ok || got != m1 {
		t.Errorf("Child(a) = %v, %v; want %v, true", got, ok, m1)
	}
}

func TestObjectSinkPropagatesToExistingChildren(t *testing.T) {
	o := NewObjectNode("Thing")
	m := NewMemberNode("a", "int", true)
	o.AddMember(m)

	sink := &recordingSink{}
	o.SetSink(sink)

	m.Update(1)
	if len(sink.events) == 0 {
		t.Fatalf("member added before SetSink did not receive the shared sink")
	}
}

func TestCollectionAddUpdateRemove(t *testing.T) {
	c := NewCollectionNode(true, false)
	sink := &recordingSink{}
	c.SetSink(sink)

	id1, err := c.Add("a", id.IntIndex(0))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := c.Add("b", id.IntIndex(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	if err := c.Update("a2", id.IntIndex(0)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	v, ok := c.Retrieve(id.IntIndex(0))
	if !ok || v != "a2" {
		t.Errorf("Retrieve(0) = %v, %v; want a2, true", v, ok)
	}

	old, removedID, err := c.Remove(id.IntIndex(0))
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if old != "a2" || removedID != id1 {
		t.Errorf("Remove returned (%v, %v), want (a2, %v)", old, removedID, id1)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() after remove = %d, want 1", c.Len())
	}
}

func TestCollectionIndexOfAndItemIdAt(t *testing.T) {
	c := NewCollectionNode(true, false)
	id0, _ := c.Add("a", id.IntIndex(0))
	id1, _ := c.Add("b", id.IntIndex(1))

	if got := c.ItemIdAt(id.IntIndex(1)); got != id1 {
		t.Errorf("ItemIdAt(1) = %v, want %v", got, id1)
	}
	idx, ok := c.IndexOf(id0)
	if !ok || idx.Int() != 0 {
		t.Errorf("IndexOf(id0) = %v, %v; want 0, true", idx, ok)
	}
	if _, ok := c.IndexOf(id.NewItemId()); ok {
		t.Errorf("IndexOf(unknown) = true, want false")
	}
}

func TestCollectionRestorePreservesId(t *testing.T) {
	c := NewCollectionNode(true, false)
	fixed := id.NewItemId()
	if err := c.Restore("x", id.IntIndex(0), fixed); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := c.ItemIdAt(id.IntIndex(0)); got != fixed {
		t.Errorf("ItemIdAt(0) = %v, want %v", got, fixed)
	}
}

func TestDictionaryAddUpdateRemove(t *testing.T) {
	d := NewDictionaryNode(true, false)

	if _, err := d.Add("v1", id.KeyIndex("k1")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !d.HasKey("k1") {
		t.Fatalf("HasKey(k1) = false")
	}
	if err := d.Update("v1b", id.KeyIndex("k1")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	v, ok := d.Retrieve(id.KeyIndex("k1"))
	if !ok || v != "v1b" {
		t.Errorf("Retrieve(k1) = %v, %v; want v1b, true", v, ok)
	}
	if _, _, err := d.Remove(id.KeyIndex("k1")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if d.HasKey("k1") {
		t.Errorf("HasKey(k1) after remove = true")
	}
}

func TestDictionaryRekey(t *testing.T) {
	d := NewDictionaryNode(true, false)
	itemID, _ := d.Add("v", id.KeyIndex("old"))

	if err := d.Rekey("old", "new"); err != nil {
		t.Fatalf("Rekey: %v", err)
	}
	if d.HasKey("old") {
		t.Errorf("HasKey(old) after rekey = true")
	}
	v, ok := d.Retrieve(id.KeyIndex("new"))
	if !ok || v != "v" {
		t.Errorf("Retrieve(new) = %v, %v; want v, true", v, ok)
	}
	if got := d.ItemIdAt(id.KeyIndex("new")); got != itemID {
		t.Errorf("ItemIdAt(new) = %v, want %v (identity preserved)", got, itemID)
	}
}

func TestDictionaryRekeyCollision(t *testing.T) {
	d := NewDictionaryNode(true, false)
	d.Add("v1", id.KeyIndex("a"))
	d.Add("v2", id.KeyIndex("b"))

	if err := d.Rekey("a", "b"); err == nil {
		t.Fatalf("Rekey into an existing key succeeded, want error")
	}
}

func TestResolveMemberAndIndexPaths(t *testing.T) {
	root := NewObjectNode("Root")
	child := NewMemberNode("name", "string", true)
	child.SetValueSilent("hello")
	root.AddMember(child)

	coll := NewCollectionNode(true, false)
	itemID, _ := coll.Add("item0", id.IntIndex(0))
	collMember := NewMemberNode("items", "[]string", true)
	collMember.SetTarget(coll)
	root.AddMember(collMember)

	n, _, resolvedOnIndex := Resolve(root, id.NodePath{}.Append(id.Member("name")))
	if resolvedOnIndex {
		t.Fatalf("resolving a member path reported resolvedOnIndex")
	}
	m, ok := n.(*MemberNode)
	if !ok || m.Retrieve() != "hello" {
		t.Fatalf("Resolve(.name) = %v, want member holding 'hello'", n)
	}

	n2, idx2, resolvedOnIndex2 := Resolve(root, id.NodePath{}.Append(id.Member("items")).Append(id.ItemIdStep(itemID)))
	if !resolvedOnIndex2 {
		t.Fatalf("resolving an item path did not report resolvedOnIndex")
	}
	io, ok := n2.(IndexedObject)
	if !ok {
		t.Fatalf("Resolve(.items{id}) did not return an IndexedObject")
	}
	v, ok := io.Retrieve(idx2)
	if !ok || v != "item0" {
		t.Errorf("Retrieve(idx2) = %v, %v; want item0, true", v, ok)
	}
}

func TestResolveUnreachablePath(t *testing.T) {
	root := NewObjectNode("Root")
	n, _, _ := Resolve(root, id.NodePath{}.Append(id.Member("missing")))
	if n != nil {
		t.Errorf("Resolve(missing path) = %v, want nil", n)
	}
}

func TestWalkVisitsInDeclarationOrderAndFollowsReferences(t *testing.T) {
	root := NewObjectNode("Root")
	a := NewMemberNode("a", "int", true)
	a.SetValueSilent(1)
	root.AddMember(a)

	child := NewObjectNode("Child")
	childField := NewMemberNode("value", "int", true)
	childField.SetValueSilent(2)
	child.AddMember(childField)

	ref := NewMemberNode("child", "Child", true)
	ref.SetTarget(child)
	root.AddMember(ref)

	var visitedMembers []string
	Walk(root, Visitor{
		Member: func(m *MemberNode, owner *ObjectNode, path id.NodePath) {
			visitedMembers = append(visitedMembers, m.Name)
		},
	})

	want := []string{"a", "child", "value"}
	if len(visitedMembers) != len(want) {
		t.Fatalf("visited %v, want %v", visitedMembers, want)
	}
	for i := range want {
		if visitedMembers[i] != want[i] {
			t.Fatalf("visited %v, want %v", visitedMembers, want)
		}
	}
}

func TestArenaGetOrCreateCaches(t *testing.T) {
	arena := NewArena()
	itemID := id.NewItemId()
	calls := 0
	build := func() *ObjectNode {
		calls++
		return NewObjectNode("Thing")
	}

	first := arena.GetOrCreate(itemID, build)
	second := arena.GetOrCreate(itemID, build)

	if first != second {
		t.Errorf("GetOrCreate returned different instances for the same id")
	}
	if calls != 1 {
		t.Errorf("build() called %d times, want 1", calls)
	}
	if found, ok := arena.Lookup(itemID); !ok || found != first {
		t.Errorf("Lookup(itemID) = %v, %v; want %v, true", found, ok, first)
	}
}
