package catalog

import "strings"

// Serialize builds "superscope\\scope\\name" (up to two ancestor scopes) from
// the name field of the registration chain, per spec.md §4.1.
func (c *Catalog) Serialize(id EntityID) string {
	entry := c.At(id)
	if entry == nil {
		return ""
	}
	parts := []string{entry.Header().Name}
	scope := c.ScopeByID(entry.Header().ScopeID)
	for levels := 0; scope != nil && scope.OwnerName != "" && levels < 2; levels++ {
		parts = append([]string{scope.OwnerName}, parts...)
		scope = scope.Parent
	}
	return strings.Join(parts, `\`)
}

// Deserialize splits path on backslash, descends scope by scope via each
// scope's serialized_entities, and returns Invalid if any step fails or the
// final reg_type disagrees, per spec.md §4.1.
func (c *Catalog) Deserialize(path string, expectedType RegType) EntityID {
	parts := strings.Split(path, `\`)
	if len(parts) == 0 {
		return Invalid
	}
	scope := c.global
	for i, part := range parts {
		last := i == len(parts)-1
		var found EntityID
		var ok bool
		for _, bucket := range scope.serialized {
			if e, present := bucket[part]; present {
				found, ok = e.ID, true
				break
			}
		}
		if !ok {
			return Invalid
		}
		if last {
			if found.RegType != expectedType {
				return Invalid
			}
			return found
		}
		owner, isOwner := c.At(found).(ScopeOwner)
		if !isOwner {
			return Invalid
		}
		scope = owner.OwnedScope()
		if scope == nil {
			return Invalid
		}
	}
	return Invalid
}
