package status

import (
	"time"

	"github.com/NikitaCOEUR/fimcache/internal/completion"
	"github.com/NikitaCOEUR/fimcache/internal/config"
)

// Data contains all the information to display in status
type Data struct {
	// Header
	ProjectDir string
	Version    string
	AuthPath   string

	// Trust
	HasAnyConfig bool // Whether there's any project config to authorize
	Authorized   bool
	Trust        *TrustInfo

	// Configuration
	GlobalConfig *config.GlobalInfo
	LocalConfigs []config.FileInfo

	// Config details
	Providers     []completion.ProviderInfo
	RetrievalHost string
	Extensions    []string
	Flags         []string
	Settings      Settings

	// Filled only when the project was indexed
	Index *IndexInfo
}

// TrustInfo describes the trust record of the project directory
type TrustInfo struct {
	AllowedAt           time.Time
	EndpointsApprovedAt time.Time
	EndpointsApproved   bool
}

// Settings are the effective tuning values after merging
type Settings struct {
	Debounce      time.Duration
	ContextLines  int
	MaxChars      int
	HistorySize   int
	CacheCapacity int
	CacheTTL      time.Duration
	MaxCandidates int
	BaseCooldown  time.Duration
	MinSamples    int
	RejectRatio   float64
	RelaxRatio    float64
	MaxFactor     int
}

// IndexInfo summarizes a one-off index of the project
type IndexInfo struct {
	Files        int
	Declarations int
	Names        int
	Chars        int
	Took         time.Duration
}
