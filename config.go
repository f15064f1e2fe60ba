package rohc

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/skyhook-net/rohc/limits"
)

// CIDType selects how Context IDs are encoded on the wire.
type CIDType int

const (
	// SmallCID uses a 1-byte add-CID octet, CIDs in [0,15].
	SmallCID CIDType = iota
	// LargeCID uses SDVL encoding, CIDs in [0,16383].
	LargeCID
)

// Mode is the decompressor's feedback mode.
type Mode int

const (
	// Unidirectional never generates feedback.
	Unidirectional Mode = iota
	// Optimistic generates feedback but does not wait for it before
	// advancing compressor state.
	Optimistic
	// Reliable requires feedback acknowledgement before some transitions.
	Reliable
)

// Features toggles optional decompressor behaviors (spec §6 `features`).
type Features struct {
	CRCRepair  bool `yaml:"crc_repair"`
	CompatV1_6 bool `yaml:"compat_v1_6"`
}

// Config holds every tunable an endpoint reads at creation time. Zero value
// is not valid; use DefaultConfig and override fields, or LoadConfig to read
// from YAML.
type Config struct {
	MaxCID            uint16   `yaml:"max_cid"`
	CIDType           CIDType  `yaml:"-"`
	Mode              Mode     `yaml:"-"`
	WlsbWindowWidth   int      `yaml:"wlsb_window_width"`
	IRTimeoutPackets  int      `yaml:"ir_timeout_packets"`
	IRTimeoutFOPacket int      `yaml:"ir_timeout_fo_packets"`
	IRTimeoutSeconds  int      `yaml:"ir_timeout_seconds"`
	MRRU              int      `yaml:"mrru"`
	RTPPorts          []uint16 `yaml:"rtp_ports"`
	Features          Features `yaml:"features"`
	DowngradeK        int      `yaml:"downgrade_k"`
	DowngradeN        int      `yaml:"downgrade_n"`

	// CIDTypeName and ModeName hold the textual cid_type/mode values read
	// from YAML, which are decoded into CIDType/Mode.
	CIDTypeName string `yaml:"cid_type"`
	ModeName    string `yaml:"mode"`
}

// DefaultConfig returns the configuration defaults named in spec §6.
func DefaultConfig() *Config {
	return &Config{
		MaxCID:            limits.MaxSmallCID,
		CIDType:           SmallCID,
		Mode:              Unidirectional,
		WlsbWindowWidth:   4,
		IRTimeoutPackets:  1700,
		IRTimeoutFOPacket: 700,
		IRTimeoutSeconds:  200,
		MRRU:              0,
		DowngradeK:        1,
		DowngradeN:        16,
	}
}

// LoadConfig reads YAML configuration from data, starting from
// DefaultConfig and overriding whatever fields are present, then applying
// environment overrides and validating bounds (grounded on the same
// override precedence an endpoint-construction helper in this module's
// ancestry used for its own settings).
func LoadConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("rohc: parsing config: %w", err)
		}
	}
	applyCIDTypeName(cfg)
	applyModeName(cfg)
	applyEnvironmentOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyCIDTypeName(cfg *Config) {
	switch cfg.CIDTypeName {
	case "", "small":
		cfg.CIDType = SmallCID
	case "large":
		cfg.CIDType = LargeCID
	}
}

func applyModeName(cfg *Config) {
	switch cfg.ModeName {
	case "", "U":
		cfg.Mode = Unidirectional
	case "O":
		cfg.Mode = Optimistic
	case "R":
		cfg.Mode = Reliable
	}
}

// applyEnvironmentOverrides lets deployment environments tune a handful of
// hot parameters without redeploying a YAML file, the same override
// mechanism this module's endpoint-construction layer has always used for
// its own settings.
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("ROHC_MAX_CID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxCID = uint16(n)
		} else {
			logrus.WithFields(logrus.Fields{
				"env_var": "ROHC_MAX_CID",
				"value":   v,
			}).Warn("rohc: failed to parse ROHC_MAX_CID, using default")
		}
	}
	if v := os.Getenv("ROHC_WLSB_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WlsbWindowWidth = n
		} else {
			logrus.WithFields(logrus.Fields{
				"env_var": "ROHC_WLSB_WINDOW",
				"value":   v,
			}).Warn("rohc: failed to parse ROHC_WLSB_WINDOW, using default")
		}
	}
	if v := os.Getenv("ROHC_MRRU"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MRRU = n
		} else {
			logrus.WithFields(logrus.Fields{
				"env_var": "ROHC_MRRU",
				"value":   v,
			}).Warn("rohc: failed to parse ROHC_MRRU, using default")
		}
	}
	if v := os.Getenv("ROHC_CID_TYPE"); v != "" {
		cfg.CIDTypeName = v
		applyCIDTypeName(cfg)
	}
	if v := os.Getenv("ROHC_MODE"); v != "" {
		cfg.ModeName = v
		applyModeName(cfg)
	}
}

// Validate checks every bound spec §6 names and returns an error naming the
// first violation found.
func (cfg *Config) Validate() error {
	large := cfg.CIDType == LargeCID
	if err := limits.ValidateCID(cfg.MaxCID, large); err != nil {
		return err
	}
	if err := limits.ValidateWlsbWindow(cfg.WlsbWindowWidth); err != nil {
		return err
	}
	if err := limits.ValidateMRRU(cfg.MRRU); err != nil {
		return err
	}
	if err := limits.ValidateRTPPorts(cfg.RTPPorts); err != nil {
		return err
	}
	if cfg.DowngradeN <= 0 || cfg.DowngradeK < 0 || cfg.DowngradeK > cfg.DowngradeN {
		return fmt.Errorf("rohc: downgrade k=%d/n=%d out of range", cfg.DowngradeK, cfg.DowngradeN)
	}
	return nil
}
