// SPDX-License-Identifier: Apache-2.0

package profiling

import (
	"errors"
	"fmt"
	"net/http"
	httppprof "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"
)

// StartProfilingServer exposes the /debug/pprof endpoints on address. They
// are served from their own mux, never from the gateway router.
func StartProfilingServer(address string) *http.Server {
	srv := &http.Server{
		Addr:              address,
		Handler:           newProfilingMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "profiling server: %v\n", err)
		}
	}()
	return srv
}

func newProfilingMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", httppprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", httppprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", httppprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", httppprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", httppprof.Trace)
	return mux
}

// StartCPUProfile writes a CPU profile to fileName (cpu.prof by default)
// until the returned function is called.
func StartCPUProfile(fileName string) (func(), error) {
	if fileName == "" {
		fileName = "cpu.prof"
	}
	cpuFile, err := os.Create(fileName)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile file: %w", err)
	}

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		cpuFile.Close()
	}, nil
}

// CreateMemoryProfile writes the allocations since the process start to
// fileName (mem.prof by default).
func CreateMemoryProfile(fileName string) error {
	if fileName == "" {
		fileName = "mem.prof"
	}
	memFile, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("could not create memory profile file: %w", err)
	}
	defer memFile.Close()

	runtime.GC() // get up-to-date statistics
	if err := pprof.Lookup("allocs").WriteTo(memFile, 0); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	return nil
}
