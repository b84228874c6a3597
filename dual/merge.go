package dual

// mergeIndex walks two sorted, unique id lists in a single pass and reports
// every id of their union exactly once, in ascending order. Ids found only in
// a go to onLeft, ids found only in b go to onRight and shared ids go to
// onBoth. Cost is O(len(a)+len(b)).
func mergeIndex(a, b []int, onLeft, onRight, onBoth func(int)) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			onLeft(a[i])
			i++
		case b[j] < a[i]:
			onRight(b[j])
			j++
		default:
			onBoth(a[i])
			i++
			j++
		}
	}

	for ; i < len(a); i++ {
		onLeft(a[i])
	}

	for ; j < len(b); j++ {
		onRight(b[j])
	}
}

// Union returns the sorted union of two sorted, unique id lists.
func Union(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	push := func(i int) { out = append(out, i) }
	mergeIndex(a, b, push, push, push)

	return out
}
