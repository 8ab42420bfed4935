package daemon

import (
	"fmt"
	"os"
	"time"

	"github.com/logship/logshipd/internal/config"
	"github.com/logship/logshipd/internal/plugin"
	"github.com/logship/logshipd/internal/scripthost"
	"github.com/logship/logshipd/internal/sink"
	"github.com/logship/logshipd/internal/source"
	"github.com/logship/logshipd/internal/transform"
	"github.com/logship/logshipd/internal/value"
)

// Build constructs every configured driver and registers it in a fresh
// Registry. stateDir backs sources that need a cursor directory when their
// own args.state_dir is unset. The shared script host is lazily created on
// first use so routes with no script transform never pay for a goja.Runtime.
func Build(cfg *config.Daemon, stateDir string) (*plugin.Registry, error) {
	reg := plugin.New()
	var host *scripthost.Host
	getHost := func() *scripthost.Host {
		if host == nil {
			host = scripthost.New()
		}
		return host
	}

	for _, p := range cfg.Inputs {
		s, err := buildSource(p, stateDir)
		if err != nil {
			return nil, fmt.Errorf("config: input %q: %w", p.Name, err)
		}
		if err := reg.AddSource(p.Name, s); err != nil {
			return nil, err
		}
	}

	for _, p := range cfg.Transforms {
		tr, err := buildTransform(p, getHost)
		if err != nil {
			return nil, fmt.Errorf("config: transform %q: %w", p.Name, err)
		}
		if err := reg.AddTransform(p.Name, tr); err != nil {
			return nil, err
		}
	}

	for _, p := range cfg.Outputs {
		sk, err := buildSink(p)
		if err != nil {
			return nil, fmt.Errorf("config: output %q: %w", p.Name, err)
		}
		if err := reg.AddSink(p.Name, sk); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func argString(args map[string]interface{}, key, def string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func argBool(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func argInt(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func argDuration(args map[string]interface{}, key string, def time.Duration) time.Duration {
	switch v := args[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int, int64, float64:
		return argDurationSeconds(v, def)
	}
	return def
}

func argDurationSeconds(v interface{}, def time.Duration) time.Duration {
	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Second
	case int64:
		return time.Duration(n) * time.Second
	case float64:
		return time.Duration(n * float64(time.Second))
	}
	return def
}

func argStringSlice(args map[string]interface{}, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return []string{s}
	}
	return nil
}

func claimTransforms(reg *plugin.Registry, rc config.Route) ([]transform.Transform, error) {
	trs := make([]transform.Transform, 0, len(rc.Transforms))
	for _, name := range rc.Transforms {
		tr, err := reg.ClaimTransform(name)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", rc.ID, err)
		}
		trs = append(trs, tr)
	}
	return trs, nil
}

func claimSinks(reg *plugin.Registry, rc config.Route) ([]sink.Sink, error) {
	sinks := make([]sink.Sink, 0, len(rc.Outputs))
	for _, name := range rc.Outputs {
		sk, err := reg.ClaimSink(name)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", rc.ID, err)
		}
		sinks = append(sinks, sk)
	}
	return sinks, nil
}

func buildSource(p config.Plugin, stateDir string) (source.Source, error) {
	switch p.Type {
	case "file":
		dir := argString(p.Args, "state_dir", stateDir)
		return source.NewFile(p.Name, source.FileConfig{
			Paths:         argStringSlice(p.Args, "paths"),
			FromBeginning: argBool(p.Args, "from_beginning", false),
			JSONMode:      argBool(p.Args, "json", false),
			StateDir:      dir,
			PollInterval:  argDuration(p.Args, "poll_interval", time.Second),
			FlushCount:    argInt(p.Args, "flush_count", 0),
			FlushInterval: argDuration(p.Args, "flush_interval", 0),
		}), nil
	case "journald":
		dir := argString(p.Args, "state_dir", stateDir)
		return source.NewJournal(p.Name, source.JournalConfig{
			Matches:       argStringSlice(p.Args, "matches"),
			StateDir:      dir,
			FlushCount:    argInt(p.Args, "flush_count", 0),
			FlushInterval: argDuration(p.Args, "flush_interval", 0),
			PollInterval:  argDuration(p.Args, "poll_interval", 250*time.Millisecond),
		}), nil
	case "metrics":
		return source.NewMetrics(p.Name, source.MetricsConfig{
			CPUInterval:  argDuration(p.Args, "cpu_interval", 0),
			MemInterval:  argDuration(p.Args, "mem_interval", 0),
			DiskInterval: argDuration(p.Args, "disk_interval", 0),
			NetInterval:  argDuration(p.Args, "net_interval", 0),
		}), nil
	case "stdin":
		return source.NewStdin(p.Name, os.Stdin, source.StdinConfig{
			JSONMode: argBool(p.Args, "json", false),
		}), nil
	default:
		return nil, fmt.Errorf("unknown input type %q", p.Type)
	}
}

func buildTransform(p config.Plugin, getHost func() *scripthost.Host) (transform.Transform, error) {
	switch p.Type {
	case "script":
		path := argString(p.Args, "path", "")
		if path == "" {
			return nil, fmt.Errorf("script transform requires args.path")
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read script %s: %w", path, err)
		}
		fn := argString(p.Args, "function", "process")
		h := getHost()
		if err := h.Load(p.Name, src); err != nil {
			return nil, fmt.Errorf("load script %s: %w", path, err)
		}
		return transform.NewScript(p.Name, h, fn), nil
	case "insert_field":
		field := argString(p.Args, "field", "")
		if field == "" {
			return nil, fmt.Errorf("insert_field requires args.field")
		}
		v, err := literalValue(p.Args["value"])
		if err != nil {
			return nil, err
		}
		return transform.NewInsertField(p.Name, field, v, argBool(p.Args, "overwrite", false)), nil
	case "insert_ts":
		format := transform.UnixFraction
		if argString(p.Args, "format", "") == "rfc3339nano" {
			format = transform.RFC3339Nano
		}
		return transform.NewInsertTimestamp(p.Name, argString(p.Args, "field", ""), format, argBool(p.Args, "overwrite", false)), nil
	default:
		return nil, fmt.Errorf("unknown transform type %q", p.Type)
	}
}

func literalValue(v interface{}) (*value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.NewNull(), nil
	case bool:
		return value.NewBool(t), nil
	case string:
		return value.NewString(t), nil
	case int:
		return value.NewInt(int64(t)), nil
	case int64:
		return value.NewInt(t), nil
	case float64:
		return value.NewFloat(t), nil
	default:
		return nil, fmt.Errorf("unsupported literal value type %T", v)
	}
}

func buildSink(p config.Plugin) (sink.Sink, error) {
	switch p.Type {
	case "tcp_socket":
		addr := argString(p.Args, "address", "")
		if addr == "" {
			return nil, fmt.Errorf("tcp_socket requires args.address")
		}
		return sink.NewTCP(p.Name, addr, argInt(p.Args, "max_retries", sink.DefaultMaxRetries)), nil
	case "unix_socket":
		path := argString(p.Args, "path", "")
		if path == "" {
			return nil, fmt.Errorf("unix_socket requires args.path")
		}
		return sink.NewUnix(p.Name, path, argInt(p.Args, "max_retries", sink.DefaultMaxRetries)), nil
	case "stdout":
		return sink.NewStdout(p.Name, os.Stdout), nil
	case "speed_test":
		return sink.NewThroughput(p.Name, argDuration(p.Args, "interval", 10*time.Second)), nil
	default:
		return nil, fmt.Errorf("unknown output type %q", p.Type)
	}
}
