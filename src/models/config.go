package models

// MConfig Structure
type MConfig struct {
	Name    string         `yaml:"name"`
	Log     MLogConfig     `yaml:"log"`
	API     MAPIConfig     `yaml:"api"`
	Stream  MStreamConfig  `yaml:"stream"`
	Cache   MCacheConfig   `yaml:"cache"`
	Server  MServerConfig  `yaml:"server"`
	Sandbox MSandboxConfig `yaml:"sandbox"`
}

type MLogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type MAPIConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	Token             string  `yaml:"token"`
	AppName           string  `yaml:"app_name"`
	Insecure          bool    `yaml:"insecure"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

type MStreamConfig struct {
	BroadcastCapacity int      `yaml:"broadcast_capacity"`
	ControlBuffer     int      `yaml:"control_buffer"`
	CandleInterval    string   `yaml:"candle_interval"`
	OrderBookDepth    int32    `yaml:"orderbook_depth"`
	WaitingClose      bool     `yaml:"waiting_close"`
	Instruments       []string `yaml:"instruments"` // uids
}

type MCacheConfig struct {
	CandleLimit int `yaml:"candle_limit"`
}

type MServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type MSandboxConfig struct {
	Enabled        bool `yaml:"enabled"`
	TickIntervalMs int  `yaml:"tick_interval_ms"`
}
