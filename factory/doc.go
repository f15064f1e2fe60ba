// Package factory builds compressor/decompressor endpoint pairs from a
// Config plus environment overrides, the same construction step a deployed
// ROHC node repeats once per tunnel: load YAML, let a handful of ROHC_*
// variables tune hot parameters without a redeploy, validate, and hand back
// ready-to-use endpoints rather than exposing the whole rohc.Config surface
// to every caller.
//
// # Configuration
//
// Beyond whatever YAML a caller supplies, New loads it through
// rohc.LoadConfig, which applies the environment variables ROHC_MAX_CID,
// ROHC_WLSB_WINDOW, ROHC_MRRU, ROHC_CID_TYPE and ROHC_MODE once, when the
// factory is built, so a running process can be retuned by restarting it
// with new variables and no config file edit.
//
// # Usage
//
//	f, err := factory.New(yamlBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	comp, err := f.Compressor(nil)
//	...
//	decomp, err := f.Decompressor(nil, nil)
//
// # Test Support
//
// NewForTesting builds a factory from rohc.DefaultConfig with a handful of
// functional options applied on top, for tests that want a short MRRU or a
// bidirectional mode without hand-assembling a full Config.
//
//	f := factory.NewForTesting(factory.WithMode(rohc.Reliable), factory.WithMRRU(2000))
package factory
