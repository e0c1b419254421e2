package value

// Prop is one named attribute.
type Prop struct {
	Name  string
	Value Value
}

// Props is an ordered attribute map. Order is declaration order; lookups
// are linear because widgets carry a handful of attributes.
type Props []Prop

// Get returns the value stored under name.
func (p Props) Get(name string) (Value, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return Null, false
}

// Set returns a copy of p with name bound to v. A Null value deletes the
// attribute. Existing attributes keep their position.
func (p Props) Set(name string, v Value) Props {
	out := make(Props, 0, len(p)+1)
	found := false
	for _, prop := range p {
		if prop.Name == name {
			found = true
			if v.IsNull() {
				continue
			}
			prop.Value = v
		}
		out = append(out, prop)
	}
	if !found && !v.IsNull() {
		out = append(out, Prop{Name: name, Value: v})
	}
	return out
}

// Merge applies every entry of changes with Set semantics.
func (p Props) Merge(changes Props) Props {
	out := p.Clone()
	for _, c := range changes {
		out = out.Set(c.Name, c.Value)
	}
	return out
}

// Names lists attribute names in order.
func (p Props) Names() []string {
	names := make([]string, len(p))
	for i, prop := range p {
		names[i] = prop.Name
	}
	return names
}

// Clone returns an independent copy.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	copy(out, p)
	return out
}

// Equal compares two attribute maps irrespective of order.
func (p Props) Equal(o Props) bool {
	if len(p) != len(o) {
		return false
	}
	for _, prop := range p {
		v, ok := o.Get(prop.Name)
		if !ok || !v.Equal(prop.Value) {
			return false
		}
	}
	return true
}

// Changes computes the attributes that differ between old and new. The
// returned slices carry only the changed keys: keys in new order first,
// then deleted keys in old order. A deleted key has a Null new value; an
// added key has a Null old value.
func Changes(old, new Props) (before, after Props) {
	for _, np := range new {
		ov, ok := old.Get(np.Name)
		if ok && ov.Equal(np.Value) {
			continue
		}
		before = append(before, Prop{Name: np.Name, Value: ov})
		after = append(after, np)
	}
	for _, op := range old {
		if _, ok := new.Get(op.Name); ok {
			continue
		}
		before = append(before, op)
		after = append(after, Prop{Name: op.Name, Value: Null})
	}
	return before, after
}
