package config

// Config holds the run-wide settings shared by every job.
type Config struct {
	Workers      int // concurrent jobs
	DPI          int // PDF rasterization
	Delay        int // frame delay for still inputs, in 1/100 s
	CacheSize    int // decoded sources kept in memory; 0 disables the cache
	ShowStats    bool
	StatsFile    string // appended with one line per job when ShowStats is set
	BuildVersion string
}

// Default returns the settings used when no flag overrides them.
func Default() *Config {
	return &Config{
		Workers:   1,
		DPI:       72,
		Delay:     10,
		CacheSize: 8,
	}
}
