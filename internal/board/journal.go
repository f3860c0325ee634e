package board

// journal collects undo steps for a multi-step write
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	j.undo = append(j.undo, fn)
}

// rollback runs the undo steps newest first and returns how many ran
func (j *journal) rollback() int {
	n := len(j.undo)
	for i := n - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
	return n
}
