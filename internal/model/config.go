package model

// Config is the explicit configuration passed into mgapi's constructors.
// There is no process-wide mutable state; cmd loads it once and hands it down.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Batch   BatchConfig   `yaml:"batch"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	URL               string `yaml:"url"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
	TimeoutSec        int    `yaml:"timeout_sec"`
}

type BatchConfig struct {
	ContinueOnError bool `yaml:"continue_on_error"`
	StopOnFileError bool `yaml:"stop_on_file_error"`
	// ResubmitDryRun controls resume policy for rows previously marked as dry
	// run: true re-validates and submits them, false treats them as resolved.
	ResubmitDryRun bool `yaml:"resubmit_dry_run"`
}

type WatchConfig struct {
	DebounceMs      int `yaml:"debounce_ms"`
	ScanIntervalSec int `yaml:"scan_interval_sec"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}
