package main

import (
	"os"
	"runtime/pprof"
	"sync"
	"time"
)

// startProfileRecording writes a CPU profile to path for d, or until the
// returned stop function is called.
func startProfileRecording(path string, d time.Duration) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	var once sync.Once
	stop := func() {
		once.Do(func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		})
	}
	time.AfterFunc(d, stop)
	return stop, nil
}
