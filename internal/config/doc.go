// Package config provides the configuration for revstack.
//
// Configuration is resolved in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← REVSTACK_HISTORY_CAPACITY=500
//	├─────────────────────────────┤
//	│  2. Configuration File      │  ← revstack.yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # Basic Usage
//
//	cfg, err := config.Load("revstack.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stack, err := history.NewStack(cfg.History.Capacity)
//
// # Configuration Files
//
//	history:
//	  capacity: 500
//	  strictOwnership: false
//	log:
//	  level: debug
//	  development: true
//	metrics:
//	  enabled: true
//
// # Environment Variables
//
//	REVSTACK_HISTORY_CAPACITY
//	REVSTACK_HISTORY_STRICT_OWNERSHIP
//	REVSTACK_LOG_LEVEL
//	REVSTACK_LOG_DEVELOPMENT
//	REVSTACK_METRICS_ENABLED
package config
