package locate

import (
	"runtime"
	"sync"
)

// WorkItem identifies one unit of work inside a three-dimensional execution
// grid: a group coordinate within the grid of groups, and a local coordinate
// within the group. It is the explicit form of the implicit thread identity
// the stages use to claim their output slot.
type WorkItem struct {
	Group     [3]int // group coordinate
	NumGroups [3]int // number of groups per dimension
	Local     [3]int // local coordinate within the group
	LocalSize [3]int // group extent per dimension
}

// GlobalID returns the linear identity of the work item, row-major over
// (group, then local) coordinates. The result is in [0, totalItems) for any
// item inside the grid.
func (w WorkItem) GlobalID() int {
	groupID := w.Group[0] +
		w.Group[1]*w.NumGroups[0] +
		w.Group[2]*w.NumGroups[0]*w.NumGroups[1]
	localID := w.Local[0] +
		w.Local[1]*w.LocalSize[0] +
		w.Local[2]*w.LocalSize[0]*w.LocalSize[1]
	return groupID*w.LocalSize[0]*w.LocalSize[1]*w.LocalSize[2] + localID
}

// defaultGroupSize is the local extent used by runStage when decomposing a
// flat work count into groups.
const defaultGroupSize = 256

// runStage executes fn once for every id in [0, total), fanning groups of
// work items out to workers goroutines and blocking until the stage is
// complete. Each invocation derives its id through WorkItem.GlobalID, and
// ids past total are discarded exactly like out-of-range kernel threads.
// workers <= 0 selects runtime.NumCPU().
func runStage(total, workers int, fn func(id int)) {
	if total <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	groupSize := defaultGroupSize
	if total < groupSize {
		groupSize = total
	}
	numGroups := (total + groupSize - 1) / groupSize

	groups := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range groups {
				for local := 0; local < groupSize; local++ {
					item := WorkItem{
						Group:     [3]int{g, 0, 0},
						NumGroups: [3]int{numGroups, 1, 1},
						Local:     [3]int{local, 0, 0},
						LocalSize: [3]int{groupSize, 1, 1},
					}
					id := item.GlobalID()
					if id >= total {
						continue
					}
					fn(id)
				}
			}
		}()
	}
	for g := 0; g < numGroups; g++ {
		groups <- g
	}
	close(groups)
	wg.Wait()
}
