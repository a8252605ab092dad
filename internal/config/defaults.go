package config

const (
	defaultDestinationDir     = "~/backups"
	defaultIntervalSeconds    = 3600
	defaultMinFreeSpaceKB     = 512000
	defaultShortWindowMinutes = 1440
	defaultMaxAgeMinutes      = 525600
	defaultMaxFileSizeBytes   = int64(1) << 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestinationDir: defaultDestinationDir,
		},
		Backup: Backup{
			IntervalSeconds: defaultIntervalSeconds,
			MinFreeSpaceKB:  defaultMinFreeSpaceKB,
			Store:           StoreDirectory,
		},
		Retention: Retention{
			ShortWindowMinutes: defaultShortWindowMinutes,
			MaxAgeMinutes:      defaultMaxAgeMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
