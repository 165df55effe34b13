// Package logging builds the zap logger shared by the CLI and the pipeline.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Pipeline stages used as the "stage" field on log events.
const (
	StageLoad      = "load"
	StageSelect    = "select"
	StageCorrelate = "correlate"
	StageDetect    = "detect"
	StageRender    = "render"
	StageAssemble  = "assemble"
	StageWrite     = "write"
)

// Options selects the encoder and level.
type Options struct {
	Debug bool
	// Format is "console" or "json".
	Format string
}

// New returns a logger writing to stderr. Debug switches to the development
// config at debug level.
func New(opt Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opt.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	switch strings.ToLower(strings.TrimSpace(opt.Format)) {
	case "", "console", "text":
		cfg.Encoding = "console"
	case "json":
		cfg.Encoding = "json"
	default:
		return nil, fmt.Errorf("unsupported log format: %s (use console|json)", opt.Format)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Stage tags an event with its pipeline stage.
func Stage(name string) zap.Field { return zap.String("stage", name) }
