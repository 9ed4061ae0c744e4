package spec

type FilesSink struct {
	Dir string `yaml:"dir"`
	Ext string `yaml:"ext"` // default ".jsx"
}

type KafkaSink struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Acks    int16    `yaml:"required_acks"` // 0,1,-1
}

type sinkConfigs struct {
	Kafka KafkaSink `yaml:"kafka"`
	Files FilesSink `yaml:"files"`
}

type debugSection struct {
	PerFrameDelayMS int  `yaml:"per_frame_delay_ms"`
	PrintCounter    bool `yaml:"print_counter"`
	AckBatchSize    int  `yaml:"ack_batch_size"`
	AckFlushMS      int  `yaml:"ack_flush_ms"`
	ValueMaxBytes   int  `yaml:"value_max_bytes"`
}

type TransformerSpec struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`    // "inproc" or "grpc"
	Mode        string `yaml:"mode"`    // react | react-native
	Address     string `yaml:"address"` // grpc only, e.g. "localhost:7070"
	TimeoutMS   int    `yaml:"timeout_ms"`
	RetryPolicy struct {
		Attempts  int `yaml:"attempts"`
		BackoffMS int `yaml:"backoff_ms"`
	} `yaml:"retry_policy"`
}

type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Source struct {
		Kind   string `yaml:"kind"`   // kafka | files
		Driver string `yaml:"driver"` // kafka only
		Config string `yaml:"config"` // kafka only, path to driver config
		Glob   string `yaml:"glob"`   // files only
	} `yaml:"source"`

	// Ordered converter stages applied between source and sinks.
	Transformers []TransformerSpec `yaml:"transformers"`

	Sinks       []string     `yaml:"sinks"`
	SinkConfigs sinkConfigs  `yaml:"sink_configs"`
	Debug       debugSection `yaml:"debug"`
}
