package dataservice

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/and161185/lab-data-logger/model"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	RandomName = "random"
	ConstName  = "const"
	SystemName = "system"
)

type random struct{}

// NewRandom builds a service producing one random number in [0, 1).
func NewRandom(_ map[string]any) (Acquirer, error) {
	return random{}, nil
}

func (random) AcquireFields(_ context.Context, _ []string) (model.Fields, error) {
	return model.Fields{"random_number": rand.Float64()}, nil
}

// ConstConfig configures the const service.
type ConstConfig struct {
	ANumber       int64 `yaml:"a_number"`
	AnotherNumber int64 `yaml:"another_number"`
}

func defaultConstConfig() ConstConfig {
	return ConstConfig{ANumber: 2, AnotherNumber: 3}
}

type constNumbers struct {
	cfg         ConstConfig
	fixedRandom float64
}

// NewConst builds a service returning two configurable numbers plus a random
// number drawn once per instance.
func NewConst(config map[string]any) (Acquirer, error) {
	cfg := defaultConstConfig()
	if err := MergeConfig(&cfg, config); err != nil {
		return nil, err
	}
	return &constNumbers{cfg: cfg, fixedRandom: rand.Float64()}, nil
}

func (c *constNumbers) AcquireFields(_ context.Context, _ []string) (model.Fields, error) {
	return model.Fields{
		"fixed_random_number": c.fixedRandom,
		"a_number":            c.cfg.ANumber,
		"another_number":      c.cfg.AnotherNumber,
	}, nil
}

type system struct{}

// NewSystem builds a service reporting host CPU and memory usage.
func NewSystem(_ map[string]any) (Acquirer, error) {
	return system{}, nil
}

func (system) AcquireFields(ctx context.Context, _ []string) (model.Fields, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}

	fields := model.Fields{
		"mem_used_percent":    vm.UsedPercent,
		"mem_available_bytes": int64(vm.Available),
	}
	if len(percents) > 0 {
		fields["cpu_percent"] = percents[0]
	}
	return fields, nil
}
