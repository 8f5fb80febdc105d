package model

import "time"

const AppName = "netgroup-nfs"

const (
	DefaultConfigFile   = "netgroup_nfs.json"
	DefaultPort         = 8000
	DefaultNetgroupMap  = "netgroup"
	DefaultYpcatBin     = "ypcat"
	DefaultNetgroupFile = "/etc/netgroup"

	SourceNIS  = "nis"
	SourceFile = "file"

	FamilyIPv4 = "ipv4"
	FamilyIPv6 = "ipv6"
	FamilyAny  = "any"
)

// Config is the on-disk configuration. Connection fields can be overridden
// from the environment, see Load.
type Config struct {
	Hostname           string `json:"hostname" toml:"hostname" yaml:"hostname" env:"NETGROUP_NFS_HOSTNAME"`
	Port               int    `json:"port" toml:"port" yaml:"port" env:"NETGROUP_NFS_PORT"`
	Username           string `json:"username" toml:"username" yaml:"username" env:"NETGROUP_NFS_USERNAME"`
	Password           string `json:"password" toml:"password" yaml:"password" env:"NETGROUP_NFS_PASSWORD"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" toml:"insecure_skip_verify" yaml:"insecure_skip_verify" env:"NETGROUP_NFS_INSECURE_SKIP_VERIFY"`

	NetgroupSource SourceConfig `json:"netgroup_source" toml:"netgroup_source" yaml:"netgroup_source"`
	Lookup         LookupConfig `json:"lookup" toml:"lookup" yaml:"lookup"`

	ExportMap map[string]ExportRestriction `json:"export_map" toml:"export_map" yaml:"export_map"`

	// AllowEmptyRestrictions writes an empty host restriction list when an
	// export resolves to no addresses instead of keeping the current one.
	AllowEmptyRestrictions bool `json:"allow_empty_restrictions" toml:"allow_empty_restrictions" yaml:"allow_empty_restrictions" env:"NETGROUP_NFS_ALLOW_EMPTY_RESTRICTIONS"`

	// env only
	LookupTimeout  time.Duration `json:"-" toml:"-" yaml:"-" env:"NETGROUP_NFS_LOOKUP_TIMEOUT" envDefault:"5s"`
	RequestTimeout time.Duration `json:"-" toml:"-" yaml:"-" env:"NETGROUP_NFS_REQUEST_TIMEOUT" envDefault:"30s"`
}

type SourceConfig struct {
	Type   string `json:"type" toml:"type" yaml:"type"`
	Map    string `json:"map" toml:"map" yaml:"map"`
	Domain string `json:"domain" toml:"domain" yaml:"domain"`
	Ypcat  string `json:"ypcat" toml:"ypcat" yaml:"ypcat"`
	Path   string `json:"path" toml:"path" yaml:"path"`
}

type LookupConfig struct {
	Family      string `json:"family" toml:"family" yaml:"family"`
	Concurrency int    `json:"concurrency" toml:"concurrency" yaml:"concurrency"`
}

// ExportRestriction lists the netgroups and explicit hosts whose addresses
// make up the host restriction list of one export.
type ExportRestriction struct {
	Netgroups []string `json:"netgroups" toml:"netgroups" yaml:"netgroups"`
	Hosts     []string `json:"hosts" toml:"hosts" yaml:"hosts"`
}

type DaemonConfig struct {
	ListenAddr   string        `env:"NETGROUP_NFS_LISTEN_ADDR" envDefault:":9310"`
	SyncInterval time.Duration `env:"NETGROUP_NFS_SYNC_INTERVAL" envDefault:"15m"`
	APIToken     string        `env:"NETGROUP_NFS_API_TOKEN"`
}
