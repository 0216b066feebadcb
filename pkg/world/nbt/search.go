package nbt

// SearchByName walks the tree rooted at root, depth-first preorder,
// collecting every Compound whose Name equals key. A match does not stop
// traversal into its own children unless stopAtFirst is set, in which
// case the whole walk stops after the first match and the result has
// length 0 or 1.
//
// Recursion follows (a) every child of a Compound and (b) every element
// of a List, regardless of the element's own kind — so a Compound buried
// under nested Lists of Lists is still found. A Compound never clones a
// subtree to report it: the returned pointers are the same nodes owned by
// their parent compounds.
func SearchByName(root *Tag, key string, stopAtFirst bool) []*Tag {
	var results []*Tag
	searchTag(root, key, stopAtFirst, &results)
	return results
}

// searchTag returns true once the walk should stop entirely.
func searchTag(t *Tag, key string, stopAtFirst bool, results *[]*Tag) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindCompound:
		if t.Name == key {
			*results = append(*results, t)
			if stopAtFirst {
				return true
			}
		}
		for _, name := range t.compound.order {
			if searchTag(t.compound.fields[name], key, stopAtFirst, results) {
				return true
			}
		}
	case KindList:
		for _, el := range t.list {
			if searchTag(el, key, stopAtFirst, results) {
				return true
			}
		}
	}
	return false
}
