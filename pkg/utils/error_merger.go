package utils

import "sync"

// MergeErrorChans fans in any number of error channels into a single
// channel. The output channel is closed once every input has closed.
func MergeErrorChans(chans ...chan error) chan error {
	out := make(chan error)

	var wg sync.WaitGroup
	wg.Add(len(chans))
	for _, c := range chans {
		go func(c chan error) {
			defer wg.Done()
			for err := range c {
				out <- err
			}
		}(c)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
