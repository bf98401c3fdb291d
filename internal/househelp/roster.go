package househelp

// ActiveRoster returns the workers whose status is in, in their original
// order. It is recomputed from scratch on every call.
func ActiveRoster(workers []Worker) []Worker {
	active := make([]Worker, 0, len(workers))
	for _, w := range workers {
		if w.Status == StatusIn {
			active = append(active, w)
		}
	}
	return active
}
