package pipeline

import (
	"fmt"
	"time"

	"svgjsx/internal/config"
	"svgjsx/internal/jsx"
	"svgjsx/internal/spec"
	"svgjsx/internal/transform"
	"svgjsx/sink"
	filesink "svgjsx/sink/files"
	kafkasink "svgjsx/sink/kafka"
	"svgjsx/sink/stdout"
	"svgjsx/source/files"
	"svgjsx/source/kafka"
)

func Compile(path string) (*Runner, error) {
	r := NewRunner()
	if err := LoadYAML(path, r); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func LoadYAML(path string, r *Runner) error {
	cfg, err := config.LoadPipelineSpec(path)
	if err != nil {
		return err
	}
	return Build(cfg, r)
}

// Build wires source, stages and sinks described by cfg into r.
func Build(cfg spec.File, r *Runner) error {
	if err := buildSource(cfg, r); err != nil {
		return err
	}

	for _, t := range cfg.Transformers {
		m, err := jsx.ParseMode(t.Mode)
		if err != nil {
			return fmt.Errorf("transform %s: %w", t.Name, err)
		}
		var cli transform.Client
		switch t.Type {
		case "", "inproc":
			cli = transform.NewInProcessClient()
		case "grpc":
			if cli, err = transform.NewGRPCClient(t.Address); err != nil {
				return fmt.Errorf("transform %s: dial %s: %w", t.Name, t.Address, err)
			}
		default:
			return fmt.Errorf("unsupported transformer type %q for %s", t.Type, t.Name)
		}
		to := time.Duration(t.TimeoutMS) * time.Millisecond
		backoff := time.Duration(t.RetryPolicy.BackoffMS) * time.Millisecond
		r.AddTransformer(t.Name, cli, m, to, t.RetryPolicy.Attempts, backoff)
	}
	if len(cfg.Transformers) == 0 {
		r.AddTransformer("jsx", transform.NewInProcessClient(), jsx.React, 0, 0, 0)
	}

	if len(cfg.Sinks) == 0 {
		return fmt.Errorf("pipeline has no sinks")
	}
	for _, name := range cfg.Sinks {
		sDrv, err := sink.NewAdapter(name)
		if err != nil {
			return err
		}

		switch name {
		case "stdout":
			err = sDrv.Configure(stdout.Config{
				DelayMS:       cfg.Debug.PerFrameDelayMS,
				PrintCounter:  cfg.Debug.PrintCounter,
				BatchSize:     cfg.Debug.AckBatchSize,
				FlushMS:       cfg.Debug.AckFlushMS,
				ValueMaxBytes: cfg.Debug.ValueMaxBytes,
			})
		case "files":
			fc := cfg.SinkConfigs.Files
			err = sDrv.Configure(filesink.Config{Dir: fc.Dir, Ext: fc.Ext})
		case "kafka":
			kc := cfg.SinkConfigs.Kafka
			err = sDrv.Configure(kafkasink.Config{Brokers: kc.Brokers, Topic: kc.Topic, Acks: kc.Acks})
		default:
			err = fmt.Errorf("no config block for sink %q", name)
		}
		if err != nil {
			return err
		}
		r.AddSink(sDrv)
	}
	return nil
}

func buildSource(cfg spec.File, r *Runner) error {
	switch cfg.Source.Kind {
	case "files":
		src, err := files.New(files.Config{Glob: cfg.Source.Glob})
		if err != nil {
			return err
		}
		r.SetSource(src)
	case "kafka":
		kc, err := config.LoadKafkaConfig(cfg.Source.Config)
		if err != nil {
			return err
		}
		src, err := kafka.NewAdapter(cfg.Source.Driver)
		if err != nil {
			return err
		}
		if err = src.Configure(kc); err != nil {
			return err
		}
		r.SetSource(src)
	default:
		return fmt.Errorf("unsupported source %q", cfg.Source.Kind)
	}
	return nil
}
