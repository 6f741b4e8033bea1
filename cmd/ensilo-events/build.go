//go:build unix

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/ensilo-events/internal/config"
	"github.com/crimson-sun/ensilo-events/internal/mapping"
	"github.com/crimson-sun/ensilo-events/internal/model"
	"github.com/crimson-sun/ensilo-events/internal/output"
	"github.com/crimson-sun/ensilo-events/internal/output/elasticsearch"
	"github.com/crimson-sun/ensilo-events/internal/output/file"
	"github.com/crimson-sun/ensilo-events/internal/output/multi"
	"github.com/crimson-sun/ensilo-events/internal/output/stdout"
	"github.com/crimson-sun/ensilo-events/internal/output/syslog"
	"github.com/crimson-sun/ensilo-events/internal/output/webhook"
	"github.com/crimson-sun/ensilo-events/internal/state"
)

// buildOutput opens every configured sink. In testing mode all records go
// to output.<TIMESTAMP> in the working directory instead.
func buildOutput(cfg config.Config, testingMode bool, now time.Time) (*multi.Multi, error) {
	if testingMode {
		f, err := file.New(file.TestingPath(".", now))
		if err != nil {
			return nil, err
		}
		slog.Info("testing mode, writing events to file", "path", f.Path())
		return multi.New(multi.Sink{Name: config.OutputFile, Output: f}), nil
	}

	oc := cfg.Output
	var sinks []multi.Sink
	closeAll := func() {
		for _, s := range sinks {
			s.Output.Close()
		}
	}

	for _, name := range oc.Sinks {
		var (
			o   output.Output
			err error
		)
		switch name {
		case config.OutputSyslog:
			o, err = syslog.New(oc.SyslogNetwork, oc.SyslogAddress, oc.SyslogTag)
		case config.OutputStdout:
			o = stdout.New()
		case config.OutputFile:
			o, err = file.New(oc.File, file.WithMaxSize(oc.FileMaxSize))
		case config.OutputWebhook:
			o = webhook.New(oc.WebhookURL,
				webhook.WithTimeout(cfg.Connector.RequestTimeout),
				webhook.WithInsecureSkipVerify(!cfg.Connector.VerifyTLS))
		case config.OutputElasticsearch:
			o, err = elasticsearch.New(oc.ElasticsearchURLs, oc.ElasticsearchIndex)
		default:
			err = fmt.Errorf("unknown output %q", name)
		}
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, multi.Sink{Name: name, Output: o})
	}
	return multi.New(sinks...), nil
}

func buildStore(sc config.StateConfig) (state.Store, error) {
	switch sc.Backend {
	case config.StateRedis:
		s, err := state.NewRedis(sc.RedisURL, sc.Key)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := state.NewFile(sc.Dir, sc.Key)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func buildMappings(mc config.MappingConfig) (*mapping.FieldMapping, *mapping.FieldMapping, error) {
	events, err := mapping.New(model.CategoryEvents, mc.Events)
	if err != nil {
		return nil, nil, err
	}
	system, err := mapping.New(model.CategorySystemEvents, mc.SystemEvents)
	if err != nil {
		return nil, nil, err
	}
	return events, system, nil
}
