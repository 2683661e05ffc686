package flow

// ChildResults holds a node's completed children's results in declaration
// order. It is built only once every child has completed.
type ChildResults struct {
	values []any
}

// NewChildResults is mainly useful for calling handlers directly in tests.
func NewChildResults(values ...any) ChildResults {
	return ChildResults{values: values}
}

func (c ChildResults) Len() int {
	return len(c.values)
}

func (c ChildResults) At(i int) any {
	return c.values[i]
}

// gather collects the children's results in declaration order and releases
// them from the child nodes.
func gather(n *Node) ChildResults {
	if len(n.Children) == 0 {
		return ChildResults{}
	}
	values := make([]any, len(n.Children))
	for i, c := range n.Children {
		values[i] = c.takeResult()
	}
	return ChildResults{values: values}
}

func concat[T any](children ChildResults) ([]T, error) {
	total := 0
	parts := make([][]T, children.Len())
	for i := range children.Len() {
		part, ok := children.At(i).([]T)
		if !ok && children.At(i) != nil {
			return nil, &childTypeError{index: i, want: typeOf[[]T](), got: children.At(i)}
		}
		parts[i] = part
		total += len(part)
	}
	out := make([]T, 0, total)
	for _, part := range parts {
		out = append(out, part...)
	}
	return out, nil
}

func keyed[T any](children ChildResults) (map[int]T, error) {
	out := make(map[int]T, children.Len())
	for i := range children.Len() {
		if children.At(i) == nil {
			var zero T
			out[i] = zero
			continue
		}
		v, ok := children.At(i).(T)
		if !ok {
			return nil, &childTypeError{index: i, want: typeOf[T](), got: children.At(i)}
		}
		out[i] = v
	}
	return out, nil
}
