package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Inventory.MovementPreviewLimit <= 0 {
		return fmt.Errorf("inventory.movement_preview_limit must be > 0 (got %d)", c.Inventory.MovementPreviewLimit)
	}
	if c.Inventory.MaxContainerDepth <= 0 {
		return fmt.Errorf("inventory.max_container_depth must be > 0 (got %d)", c.Inventory.MaxContainerDepth)
	}

	if c.RFID.DetectionPreviewLimit <= 0 {
		return fmt.Errorf("rfid.detection_preview_limit must be > 0 (got %d)", c.RFID.DetectionPreviewLimit)
	}
	if c.RFID.MaxClockSkew < 0 {
		return fmt.Errorf("rfid.max_clock_skew must be >= 0 (got %v)", c.RFID.MaxClockSkew)
	}
	if c.RFID.IngestRatePerMinute <= 0 {
		return fmt.Errorf("rfid.ingest_rate_per_minute must be > 0 (got %d)", c.RFID.IngestRatePerMinute)
	}

	return nil
}
