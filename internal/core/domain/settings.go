package domain

import "fmt"

// IndexBackend identifies a search index implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendElasticsearch is a remote Elasticsearch cluster.
	IndexBackendElasticsearch IndexBackend = "elasticsearch"

	// IndexBackendBleve is an embedded Bleve index on local disk.
	IndexBackendBleve IndexBackend = "bleve"
)

// IsValid returns true if the index backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendElasticsearch, IndexBackendBleve:
		return true
	default:
		return false
	}
}

// SourceBackend identifies an object store implementation.
type SourceBackend string

// Available source backends.
const (
	// SourceBackendSwift is an OpenStack Swift cluster.
	SourceBackendSwift SourceBackend = "swift"

	// SourceBackendS3 is an S3-compatible store.
	SourceBackendS3 SourceBackend = "s3"
)

// IsValid returns true if the source backend is recognised.
func (b SourceBackend) IsValid() bool {
	switch b {
	case SourceBackendSwift, SourceBackendS3:
		return true
	default:
		return false
	}
}

// ProgressBackend identifies a cursor store implementation.
type ProgressBackend string

// Available progress backends.
const (
	// ProgressBackendFile keeps one JSON status file per account.
	ProgressBackendFile ProgressBackend = "file"

	// ProgressBackendSQLite keeps cursors in a local SQLite database.
	ProgressBackendSQLite ProgressBackend = "sqlite"

	// ProgressBackendMemory keeps cursors for the lifetime of the process.
	ProgressBackendMemory ProgressBackend = "memory"
)

// IsValid returns true if the progress backend is recognised.
func (b ProgressBackend) IsValid() bool {
	switch b {
	case ProgressBackendFile, ProgressBackendSQLite, ProgressBackendMemory:
		return true
	default:
		return false
	}
}

// Settings is the complete process configuration.
type Settings struct {
	Index    IndexSettings    `toml:"index"`
	Source   SourceSettings   `toml:"source"`
	Progress ProgressSettings `toml:"progress"`
	Log      LogSettings      `toml:"log"`
}

// IndexSettings configures the target index.
type IndexSettings struct {
	// Backend selects the index implementation.
	Backend IndexBackend `toml:"backend"`

	// Name is the index identity recorded in progress cursors.
	Name string `toml:"name"`

	// Hosts lists Elasticsearch node URLs.
	Hosts []string `toml:"hosts"`

	// Username and Password authenticate against Elasticsearch.
	Username string `toml:"username"`
	Password string `toml:"password"`

	// Path is the Bleve index directory.
	Path string `toml:"path"`
}

// SourceSettings configures the object store.
type SourceSettings struct {
	// Backend selects the object store implementation.
	Backend SourceBackend `toml:"backend"`

	// Swift TempAuth credentials, or a pre-authenticated storage URL and token.
	AuthURL    string `toml:"auth_url"`
	User       string `toml:"user"`
	Key        string `toml:"key"`
	StorageURL string `toml:"storage_url"`
	Token      string `toml:"token"`

	// S3 endpoint and credentials.
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`

	// Rate caps metadata fetches per second. Zero disables the limit.
	Rate float64 `toml:"rate"`

	// Burst is the number of fetches allowed above Rate at once.
	Burst int `toml:"burst"`
}

// ProgressSettings configures the cursor store.
type ProgressSettings struct {
	// Backend selects the cursor store implementation.
	Backend ProgressBackend `toml:"backend"`

	// StatusDir holds status files or the SQLite database.
	StatusDir string `toml:"status_dir"`
}

// LogSettings configures logging.
type LogSettings struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// File receives log output instead of stderr when set.
	File string `toml:"file"`
}

// DefaultSettings returns the configuration used for unset values.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			Backend: IndexBackendElasticsearch,
			Hosts:   []string{"http://localhost:9200"},
		},
		Source: SourceSettings{
			Backend: SourceBackendSwift,
			Burst:   1,
		},
		Progress: ProgressSettings{
			Backend: ProgressBackendFile,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// Validate checks that the settings are internally consistent.
func (s *Settings) Validate() error {
	if s.Index.Name == "" {
		return fmt.Errorf("%w: index.name is required", ErrInvalidInput)
	}
	if !s.Index.Backend.IsValid() {
		return fmt.Errorf("%w: index backend %q", ErrUnsupportedType, s.Index.Backend)
	}
	if s.Index.Backend == IndexBackendElasticsearch && len(s.Index.Hosts) == 0 {
		return fmt.Errorf("%w: index.hosts is required for elasticsearch", ErrInvalidInput)
	}
	if s.Index.Backend == IndexBackendBleve && s.Index.Path == "" {
		return fmt.Errorf("%w: index.path is required for bleve", ErrInvalidInput)
	}

	if !s.Source.Backend.IsValid() {
		return fmt.Errorf("%w: source backend %q", ErrUnsupportedType, s.Source.Backend)
	}
	switch s.Source.Backend {
	case SourceBackendSwift:
		hasToken := s.Source.StorageURL != "" && s.Source.Token != ""
		hasAuth := s.Source.AuthURL != "" && s.Source.User != "" && s.Source.Key != ""
		if !hasToken && !hasAuth {
			return fmt.Errorf("%w: swift needs auth_url, user and key, or storage_url and token", ErrInvalidInput)
		}
	case SourceBackendS3:
		if s.Source.Endpoint == "" || s.Source.AccessKey == "" || s.Source.SecretKey == "" {
			return fmt.Errorf("%w: s3 needs endpoint, access_key and secret_key", ErrInvalidInput)
		}
	}
	if s.Source.Rate < 0 {
		return fmt.Errorf("%w: source.rate must not be negative", ErrInvalidInput)
	}

	if !s.Progress.Backend.IsValid() {
		return fmt.Errorf("%w: progress backend %q", ErrUnsupportedType, s.Progress.Backend)
	}
	if s.Progress.Backend != ProgressBackendMemory && s.Progress.StatusDir == "" {
		return fmt.Errorf("%w: progress.status_dir is required", ErrInvalidInput)
	}
	return nil
}
