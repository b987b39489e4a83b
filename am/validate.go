package am

import "github.com/trannam110702/lighthouse-sub001/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Every configured profile must be runnable, even if it is not selected
	for name, p := range c.Throttling.Profiles {
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "throttling.profiles.%s", name)
		}
	}

	// The selected preset must resolve
	if _, err := c.ActiveProfile(); err != nil {
		return errors.Wrap(err, "throttling.preset")
	}

	// Maximum concurrent requests: 0 = unlimited, negative = invalid
	if c.Simulation.MaximumConcurrentRequests < 0 {
		return errors.Newf("simulation.maximum_concurrent_requests must be >= 0, got %d", c.Simulation.MaximumConcurrentRequests)
	}

	if c.Simulation.LayoutTaskMultiplier <= 0 {
		return errors.Newf("simulation.layout_task_multiplier must be > 0, got %f", c.Simulation.LayoutTaskMultiplier)
	}

	if c.Simulation.ConnectionsPerOrigin < 1 {
		return errors.Newf("simulation.connections_per_origin must be >= 1, got %d", c.Simulation.ConnectionsPerOrigin)
	}

	// Engine workers: 0 = use default, negative = invalid
	if c.Engine.Workers < 0 {
		return errors.Newf("engine.workers must be >= 0, got %d (0 uses the default)", c.Engine.Workers)
	}

	if c.Cache.Enabled && c.Cache.DatabasePath == "" {
		return errors.New("cache.database_path cannot be empty when the cache is enabled")
	}

	return nil
}
