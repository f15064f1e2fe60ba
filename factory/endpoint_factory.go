package factory

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/skyhook-net/rohc"
	"github.com/skyhook-net/rohc/interfaces"
)

// Factory builds Compressor/Decompressor pairs from a shared, validated
// Config. It is safe for concurrent use; every method that touches the
// stored config takes the internal mutex.
type Factory struct {
	mu  sync.RWMutex
	cfg *rohc.Config
}

// New builds a Factory from YAML configuration bytes (nil or empty to take
// every default), applying environment overrides and validating the result
// before any endpoint is ever constructed.
func New(yamlConfig []byte) (*Factory, error) {
	cfg, err := rohc.LoadConfig(yamlConfig)
	if err != nil {
		return nil, fmt.Errorf("factory: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"max_cid":     cfg.MaxCID,
		"cid_type":    cfg.CIDType,
		"mode":        cfg.Mode,
		"mrru":        cfg.MRRU,
		"crc_repair":  cfg.Features.CRCRepair,
		"wlsb_window": cfg.WlsbWindowWidth,
	}).Info("factory: built configuration")
	return &Factory{cfg: cfg}, nil
}

// TestConfigOption mutates a Config in place before a test factory is built.
type TestConfigOption func(*rohc.Config)

// WithMode overrides the decompressor feedback mode.
func WithMode(m rohc.Mode) TestConfigOption {
	return func(c *rohc.Config) { c.Mode = m }
}

// WithMRRU overrides the MRRU segmentation bound.
func WithMRRU(mrru int) TestConfigOption {
	return func(c *rohc.Config) { c.MRRU = mrru }
}

// WithCIDType overrides small vs. large CID encoding.
func WithCIDType(t rohc.CIDType) TestConfigOption {
	return func(c *rohc.Config) { c.CIDType = t }
}

// WithRTPPorts overrides the UDP destination ports that hint RTP.
func WithRTPPorts(ports []uint16) TestConfigOption {
	return func(c *rohc.Config) { c.RTPPorts = ports }
}

// NewForTesting builds a Factory from rohc.DefaultConfig with opts applied
// on top, skipping YAML and environment overrides entirely so test behavior
// does not depend on the process's environment.
func NewForTesting(opts ...TestConfigOption) *Factory {
	cfg := rohc.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Factory{cfg: cfg}
}

// Compressor builds a new Compressor from the factory's current
// configuration. trace may be nil.
func (f *Factory) Compressor(trace interfaces.TraceSink) (*rohc.Compressor, error) {
	f.mu.RLock()
	cfg := f.cfg
	f.mu.RUnlock()
	return rohc.NewCompressor(cfg, trace)
}

// Decompressor builds a new Decompressor from the factory's current
// configuration. trace and rng may both be nil.
func (f *Factory) Decompressor(trace interfaces.TraceSink, rng interfaces.RandomSource) (*rohc.Decompressor, error) {
	f.mu.RLock()
	cfg := f.cfg
	f.mu.RUnlock()
	return rohc.NewDecompressor(cfg, trace, rng)
}

// Config returns a copy of the factory's current configuration, safe for a
// caller to mutate and feed back through UpdateConfig.
func (f *Factory) Config() rohc.Config {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return *f.cfg
}

// UpdateConfig validates cfg and, if it passes, replaces the factory's
// configuration so every endpoint built afterward uses it. Endpoints already
// built from the previous configuration are unaffected.
func (f *Factory) UpdateConfig(cfg rohc.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("factory: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	logrus.WithFields(logrus.Fields{
		"old_mode": f.cfg.Mode,
		"new_mode": cfg.Mode,
		"old_mrru": f.cfg.MRRU,
		"new_mrru": cfg.MRRU,
	}).Info("factory: configuration updated")
	f.cfg = &cfg
	return nil
}
