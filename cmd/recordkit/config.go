package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/wippyai/recordkit"
	"github.com/wippyai/recordkit/arena"
	"github.com/wippyai/recordkit/schema"
)

const (
	envPrefix = "RECORDKIT"

	cfgKeyBlockSize     = "arena.block_size"
	cfgKeyOverProvision = "arena.over_provision"
	cfgKeyBacking       = "arena.backing"
	cfgKeyMaxPages      = "arena.max_pages"
	cfgKeyLogLevel      = "log.level"
	cfgKeyLogFormat     = "log.format"

	backingHeap = "heap"
	backingWasm = "wasm"
)

// Config is the CLI configuration.
type Config struct {
	Arena ArenaConfig `mapstructure:"arena"`
	Log   LogConfig   `mapstructure:"log"`
}

// ArenaConfig selects the arena backing and its tuning knobs.
type ArenaConfig struct {
	arena.Config `mapstructure:",squash"`
	Backing      string `mapstructure:"backing"`
	MaxPages     uint32 `mapstructure:"max_pages"`
}

// LogConfig selects the zap logger the CLI installs.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// loadConfig reads defaults, the optional config file and RECORDKIT_
// environment variables, in increasing precedence. An empty path reads
// no file.
func loadConfig(path string) (Config, error) {
	v := viper.New()
	def := arena.DefaultConfig()
	v.SetDefault(cfgKeyBlockSize, def.BlockSize)
	v.SetDefault(cfgKeyOverProvision, def.OverProvision)
	v.SetDefault(cfgKeyBacking, backingHeap)
	v.SetDefault(cfgKeyMaxPages, arena.DefaultMaxPages)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyLogFormat, "console")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	switch c.Arena.Backing {
	case backingHeap, backingWasm:
	default:
		return Config{}, fmt.Errorf("%s: unknown backing %q (want %s or %s)", cfgKeyBacking, c.Arena.Backing, backingHeap, backingWasm)
	}
	return c, nil
}

// newArena builds the configured arena. The returned function releases
// the backing.
func newArena(ctx context.Context, c ArenaConfig) (*arena.Arena, func(), error) {
	opts := []arena.Option{arena.WithConfig(c.Config)}
	closer := func() {}
	if c.Backing == backingWasm {
		w, err := arena.NewWasm(ctx, c.MaxPages)
		if err != nil {
			return nil, nil, fmt.Errorf("start wasm backing: %w", err)
		}
		opts = append(opts, arena.WithBacking(w))
		closer = func() { _ = w.Close(ctx) }
	}
	a, err := arena.New(opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return a, closer, nil
}

// openRegistry registers every contract of the given description files
// in a fresh registry. Files are loaded in order, so later files may
// refer to contracts of earlier ones.
func openRegistry(ctx context.Context, c Config, strategy schema.LayoutStrategy, paths ...string) (*recordkit.Registry, func(), error) {
	var ds []schema.Description
	for _, p := range paths {
		loaded, err := schema.LoadFile(p)
		if err != nil {
			return nil, nil, err
		}
		ds = append(ds, loaded...)
	}

	a, closer, err := newArena(ctx, c.Arena)
	if err != nil {
		return nil, nil, err
	}
	reg, err := recordkit.New(recordkit.WithArena(a), recordkit.WithLayout(strategy))
	if err != nil {
		closer()
		return nil, nil, err
	}
	if _, err := reg.RegisterAll(ds); err != nil {
		closer()
		return nil, nil, err
	}
	return reg, closer, nil
}
