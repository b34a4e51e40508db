// Command mapcore-demo drives a handful of samples through the mapcore
// connection processor and prints the emitted/suppressed sequence — an
// in-repo demonstration of the signal-update and property-message
// external interfaces (spec.md §6), without the transport/marshalling
// layer itself. Grounded on the teacher's own main.go entry-point shape
// and on the pack's spf13/cobra + BurntSushi/toml combination.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/IDMIL/mapcore/config"
	"github.com/IDMIL/mapcore/connection"
	"github.com/IDMIL/mapcore/internal/corelog"
	"github.com/IDMIL/mapcore/value"
)

var (
	// Version is overridden at build time with -ldflags "-X main.Version=...".
	Version = "dev"

	configPath   string
	scenarioPath string
)

// scenarioFile is the demo's own TOML input format: a pair of signal
// declarations, one connection property block, and a list of sample
// vectors to drive through it.
type scenarioFile struct {
	Source struct {
		Type   string `toml:"type"`
		Length int    `toml:"length"`
	} `toml:"source"`
	Dest struct {
		Type   string `toml:"type"`
		Length int    `toml:"length"`
	} `toml:"dest"`
	Connection struct {
		Mode       string    `toml:"mode"`
		Expression string    `toml:"expression"`
		SrcMin     []float64 `toml:"src_min"`
		SrcMax     []float64 `toml:"src_max"`
		DestMin    []float64 `toml:"dest_min"`
		DestMax    []float64 `toml:"dest_max"`
		BoundMin   string    `toml:"bound_min"`
		BoundMax   string    `toml:"bound_max"`
	} `toml:"connection"`
	Samples [][]float64 `toml:"samples"`
}

func main() {
	root := &cobra.Command{
		Use:     "mapcore-demo",
		Short:   "Drive sample data through the mapcore connection processor",
		Version: Version,
		RunE:    runDemo,
	}
	root.Flags().StringVar(&configPath, "config", "", "engine config.toml (defaults to the platform config path)")
	root.Flags().StringVar(&scenarioPath, "scenario", "", "scenario TOML describing signals, a connection, and sample inputs")
	_ = root.MarkFlagRequired("scenario")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := corelog.Default()
	if lvl, ok := corelog.ParseLevel(cfg.Logging.Level); ok {
		logger = corelog.New(os.Stderr, lvl)
	}

	var sc scenarioFile
	if _, err := toml.DecodeFile(scenarioPath, &sc); err != nil {
		return fmt.Errorf("loading scenario %q: %w", scenarioPath, err)
	}

	srcType, ok := parseType(sc.Source.Type)
	if !ok {
		return fmt.Errorf("unrecognized source type %q", sc.Source.Type)
	}
	destType, ok := parseType(sc.Dest.Type)
	if !ok {
		return fmt.Errorf("unrecognized destination type %q", sc.Dest.Type)
	}

	rng := rand.New(rand.NewSource(cfg.Random.Seed)) //nolint:gosec // deterministic demo output, not a security context
	conn := connection.NewConnection(srcType, sc.Source.Length, destType, sc.Dest.Length, rng)

	msg := connection.Message{}
	if len(sc.Connection.SrcMin) > 0 {
		msg.SrcMin = toScalars(sc.Connection.SrcMin, srcType)
	}
	if len(sc.Connection.SrcMax) > 0 {
		msg.SrcMax = toScalars(sc.Connection.SrcMax, srcType)
	}
	if len(sc.Connection.DestMin) > 0 {
		msg.DestMin = toScalars(sc.Connection.DestMin, destType)
	}
	if len(sc.Connection.DestMax) > 0 {
		msg.DestMax = toScalars(sc.Connection.DestMax, destType)
	}
	if sc.Connection.Mode != "" {
		msg.Mode = &sc.Connection.Mode
	}
	if sc.Connection.Expression != "" {
		msg.Expression = &sc.Connection.Expression
	}
	if sc.Connection.BoundMin != "" {
		msg.BoundMin = &sc.Connection.BoundMin
	}
	if sc.Connection.BoundMax != "" {
		msg.BoundMax = &sc.Connection.BoundMax
	}

	if err := conn.ApplyMessage(msg); err != nil {
		return fmt.Errorf("applying connection properties: %w", err)
	}
	logger.Infof("connection mode=%s expression=%q", conn.Mode, conn.ExprSource)

	from := value.NewHistory(srcType, sc.Source.Length, cfg.Engine.DefaultInputHistorySize, false)
	for i, sample := range sc.Samples {
		// A scenario sample stands in for an incoming signal update
		// crossing the transport→core boundary, so it is subject to the
		// same §6 enforcement a real update message would get: reject
		// outright on length mismatch or f/d-into-i32 truncation rather
		// than silently reshaping it (unlike toScalars below, which
		// converts already-trusted range configuration, not live input).
		vec, err := value.IngestUpdate(from, sample)
		if err != nil {
			logger.Warnf("sample %d: rejected: %v", i, err)
			fmt.Printf("sample %d: rejected: %v\n", i, err)
			continue
		}
		from.Write(vec, float64(i))

		emitted, err := connection.Perform(conn, from, conn.Dest, float64(i))
		if err != nil {
			logger.Errorf("sample %d: %v", i, err)
			fmt.Printf("sample %d: error: %v\n", i, err)
			continue
		}
		if !emitted {
			fmt.Printf("sample %d: suppressed\n", i)
			continue
		}
		out, _ := conn.Dest.At(0)
		fmt.Printf("sample %d: %s\n", i, formatVec(out))
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading engine config: %w", err)
	}
	return cfg, nil
}

func parseType(s string) (value.Type, bool) {
	switch s {
	case "i32":
		return value.I32, true
	case "f32":
		return value.F32, true
	case "f64":
		return value.F64, true
	default:
		return value.I32, false
	}
}

func toScalars(vals []float64, typ value.Type) []value.Scalar {
	out := make([]value.Scalar, len(vals))
	for i, v := range vals {
		out[i] = value.F64Scalar(v).Convert(typ)
	}
	return out
}

func formatVec(vec []value.Scalar) string {
	parts := make([]string, len(vec))
	for i, s := range vec {
		parts[i] = fmt.Sprintf("%v", s.Float64())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
