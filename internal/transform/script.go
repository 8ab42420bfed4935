package transform

import (
	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/scripthost"
	"github.com/logship/logshipd/internal/value"
)

var scriptLog = logging.With("transform.script")

// Script runs a named function loaded into a shared scripthost.Host against
// each record's value. A script error or a none/undefined return drops the
// record (logged, never crashes the route), per spec §4.5/§9.
type Script struct {
	name     string
	host     *scripthost.Host
	function string
}

// NewScript constructs a script transform named name that invokes function
// on host.
func NewScript(name string, host *scripthost.Host, function string) *Script {
	return &Script{name: name, host: host, function: function}
}

func (s *Script) Name() string { return s.name }

func (s *Script) Apply(v *value.Value) (*value.Value, bool, error) {
	out, ok, err := s.host.Call(s.function, v)
	if err != nil {
		scriptLog.WithError(err).Warnf("transform %s: script error, dropping record", s.name)
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	return out, true, nil
}
