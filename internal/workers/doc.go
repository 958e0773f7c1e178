/*
Package workers determines worker pool sizes for parallel scanning and
metadata extraction.

It derives counts from runtime.GOMAXPROCS rather than runtime.NumCPU,
so container CPU limits are respected (Go 1.19+ sets GOMAXPROCS from
cgroup constraints automatically). Different helpers apply different
worker-to-CPU ratios:

	// Tag probing shells out and waits on disk, so extraction is
	// I/O-bound: 2 workers per available CPU.
	n := workers.ForIO(16)

	// CPU-bound work gets 1 worker per CPU.
	n := workers.ForCPU(8)

All helpers honor the JUKEBOX_WORKERS environment variable as a manual
override, useful when the automatic sizing fights an unusual disk or
filesystem.
*/
package workers
