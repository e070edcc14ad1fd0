package config

// Config structure
type Config struct {
	Port            int    `json:"port"`            // HTTP listen port
	DataCacheDir    string `json:"dataCacheDir"`    // Root directory for artifacts and the index database
	ReportTitle     string `json:"reportTitle"`     // Title placed on the cover slide
	OutputFormat    string `json:"outputFormat"`    // "pptx", "pdf" or "xlsx"
	GroupSlideStyle string `json:"groupSlideStyle"` // "table" or "chart" per-group slides
	RetentionHours  int    `json:"retentionHours"`  // How long published artifacts stay downloadable
	MaxUploadMB     int    `json:"maxUploadMB"`     // Upload size cap in megabytes
	DetailedLog     bool   `json:"detailedLog"`
}

// Defaults returns a Config populated with the values used when no
// settings file exists yet.
func Defaults() Config {
	return Config{
		Port:            8066,
		ReportTitle:     "Business Review Report",
		OutputFormat:    "pptx",
		GroupSlideStyle: "table",
		RetentionHours:  24,
		MaxUploadMB:     16,
	}
}
