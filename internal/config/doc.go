// Package config provides loading and environment overlay for seguro runtime
// configuration. It exposes a Default() baseline, a JSON file loader and a
// SEGURO_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/seguro.json"); err == nil {
//	    cfg = fileCfg
//	}
//	if err := config.FromEnv(&cfg); err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	mode, _ := cfg.FsyncMode()
//	rt, _ := runtime.Open(runtime.Options{DataDir: cfg.DataDir, Fsync: mode, Config: cfg})
//	defer rt.Close()
package config
