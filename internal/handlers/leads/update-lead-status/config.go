package updateleadstatus

type Config struct {
	MaxBodyBytes int64
	// IDParam is the chi route parameter carrying the lead id.
	IDParam string
}

func DefaultConfig() *Config {
	return &Config{
		MaxBodyBytes: 4 << 10,
		IDParam:      "id",
	}
}
