package nbt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func compoundTag(name string, fields ...*Tag) *Tag {
	c := NewCompound()
	for _, f := range fields {
		c.Set(f.Name, f)
	}
	return &Tag{Kind: KindCompound, Name: name, compound: c}
}

func intTag(name string, v int32) *Tag {
	return &Tag{Kind: KindInt, Name: name, intVal: v}
}

func longTag(name string, v int64) *Tag {
	return &Tag{Kind: KindLong, Name: name, longVal: v}
}

func stringTag(name, v string) *Tag {
	return &Tag{Kind: KindString, Name: name, stringVal: v}
}

func doubleTag(name string, v float64) *Tag {
	return &Tag{Kind: KindDouble, Name: name, doubleVal: v}
}

func listTag(name string, elemKind Kind, elems ...*Tag) *Tag {
	return &Tag{Kind: KindList, Name: name, listType: elemKind, list: elems}
}

// tagCmpOpts compares two trees structurally, ignoring the unexported-field
// visibility problem by exporting only through accessors: go-cmp is given
// an explicit comparer so it does not need reflection into unexported
// fields directly.
var tagCmpOpts = cmp.Options{
	cmp.Comparer(func(a, b *Tag) bool { return deepTagEqual(a, b) }),
}

func deepTagEqual(a, b *Tag) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Name != b.Name {
		return false
	}
	switch a.Kind {
	case KindByte:
		return a.byteVal == b.byteVal
	case KindShort:
		return a.shortVal == b.shortVal
	case KindFloat:
		return a.floatVal == b.floatVal
	case KindByteArray:
		return cmp.Equal(a.byteArray, b.byteArray, cmpopts.EquateEmpty())
	case KindInt:
		return a.intVal == b.intVal
	case KindLong:
		return a.longVal == b.longVal
	case KindDouble:
		return a.doubleVal == b.doubleVal
	case KindString:
		return a.stringVal == b.stringVal
	case KindIntArray:
		return cmp.Equal(a.intArray, b.intArray, cmpopts.EquateEmpty())
	case KindLongArray:
		return cmp.Equal(a.longArray, b.longArray, cmpopts.EquateEmpty())
	case KindCompound:
		if a.compound.Len() != b.compound.Len() {
			return false
		}
		for _, name := range a.compound.order {
			bt, ok := b.compound.Get(name)
			if !ok || !deepTagEqual(a.compound.fields[name], bt) {
				return false
			}
		}
		return true
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !deepTagEqual(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func TestJSONRoundTripWithoutAmbiguousWidths(t *testing.T) {
	tree := compoundTag("",
		intTag("xPos", 3),
		longTag("seed", -4400967290368),
		stringTag("name", "minecraft:stone"),
		doubleTag("health", 19.5),
		listTag("xs", KindCompound,
			compoundTag("", intTag("k", 1)),
			compoundTag("", intTag("k", 2)),
		),
	)

	text, err := ToJSON(tree)
	require.NoError(t, err)

	back, err := FromJSON([]byte(text))
	require.NoError(t, err)
	back.Name = tree.Name

	if !deepTagEqual(tree, back) {
		t.Fatalf("round trip mismatch:\n%s", cmp.Diff(tree, back, tagCmpOpts))
	}
}

func TestJSONListOfCompounds(t *testing.T) {
	tree := compoundTag("",
		listTag("xs", KindCompound,
			compoundTag("", intTag("k", 1)),
			compoundTag("", intTag("k", 2)),
		),
	)
	text, err := ToJSON(tree)
	require.NoError(t, err)
	require.JSONEq(t, `{"xs":[{"k":1},{"k":2}]}`, text)
}

func TestJSONArraysBecomeNumberArrays(t *testing.T) {
	tree := &Tag{Kind: KindCompound, compound: NewCompound()}
	tree.compound.Set("ia", &Tag{Kind: KindIntArray, Name: "ia", intArray: []int32{1, 2, 3}})
	text, err := ToJSON(tree)
	require.NoError(t, err)
	require.JSONEq(t, `{"ia":[1,2,3]}`, text)
}

func TestFromJSONIntegerWidthConvention(t *testing.T) {
	tag, err := FromJSON([]byte(`{"a":1,"b":1.5,"c":5000000000}`))
	require.NoError(t, err)
	comp, ok := tag.AsCompound()
	require.True(t, ok)

	aTag, _ := comp.Get("a")
	_, ok = aTag.AsInt()
	require.True(t, ok, "bare integers decode to Int")

	bTag, _ := comp.Get("b")
	_, ok = bTag.AsDouble()
	require.True(t, ok, "floats decode to Double")

	cTag, _ := comp.Get("c")
	_, ok = cTag.AsLong()
	require.True(t, ok, "integers wider than 32 bits decode to Long")
}
