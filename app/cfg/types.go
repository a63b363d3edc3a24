package cfg

type Cfg struct {
	// Feed retrieval
	FeedsDir            string
	UserAgent           string
	Timeout             int // seconds
	MaxResponseSize     int64
	MaxDecodeIterations int
	ThrowOnError        bool
	ExtractContent      bool

	// HTTP service
	Serve        bool
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Feed locations given on the command line
	Locations []string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
