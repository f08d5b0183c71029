package physcore

import "sync"

// task runs fn over data split in contiguous chunks, one goroutine per worker
func task[T any](workersCount int, data []T, fn func(data T)) {
	taskIndexed(workersCount, len(data), func(_, i int) {
		fn(data[i])
	})
}

// taskIndexed runs fn(worker, i) for i in [0, count), with each worker owning a contiguous range
func taskIndexed(workersCount, count int, fn func(worker, i int)) {
	workersCount = max(1, workersCount)
	if count == 0 {
		return
	}
	chunkSize := (count + workersCount - 1) / workersCount

	var wg sync.WaitGroup
	for workerID := 0; workerID < workersCount; workerID++ {
		start, end := workerID*chunkSize, min((workerID+1)*chunkSize, count)
		if start >= end {
			break
		}
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(worker, i)
			}
		}(workerID, start, end)
	}
	wg.Wait()
}

// fanOut consumes a channel with one goroutine per worker and waits for all of them
func fanOut[T any](workersCount int, input <-chan T, fn func(worker int, item T)) {
	workersCount = max(1, workersCount)

	var wg sync.WaitGroup
	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for item := range input {
				fn(worker, item)
			}
		}(workerID)
	}
	wg.Wait()
}
