package system

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// framesInFlightPerWorker covers the worker's own frame plus the two scene
// renders a transition blends.
const framesInFlightPerWorker = 3

// memoryShare is the part of available RAM the render pool may claim.
const memoryShare = 0.5

// RecommendedWorkers sizes the render pool from the logical CPU count,
// capped so that every worker's frames fit in half of the available memory.
func RecommendedWorkers(frameBytes int) int {
	cpus, err := cpu.Counts(true)
	if err != nil || cpus < 1 {
		cpus = 1
	}
	var available uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		available = vm.Available
	}
	return workersFor(cpus, available, frameBytes)
}

func workersFor(cpus int, availableBytes uint64, frameBytes int) int {
	workers := cpus
	if availableBytes > 0 && frameBytes > 0 {
		perWorker := uint64(frameBytes) * framesInFlightPerWorker
		byMemory := int(float64(availableBytes) * memoryShare / float64(perWorker))
		if byMemory < workers {
			workers = byMemory
		}
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
