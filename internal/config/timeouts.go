package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds operational limits that are not part of a deployment and
// are therefore read from the environment rather than config.yaml.
type Timeouts struct {
	Command           time.Duration // bound on every gcloud/bq invocation
	NamingMaxAttempts int           // dataset name candidates tried before giving up
	NamingRetryDelay  time.Duration // pause between dataset name candidates
}

// LoadTimeouts reads the limits from the environment. Unset, malformed and
// out-of-range values fall back to the default.
//
//	BEAVER_TIMEOUT_COMMAND      10m
//	BEAVER_NAMING_MAX_ATTEMPTS  10
//	BEAVER_NAMING_RETRY_DELAY   0s
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Command:           envOr("BEAVER_TIMEOUT_COMMAND", 10*time.Minute, time.ParseDuration, 0),
		NamingMaxAttempts: envOr("BEAVER_NAMING_MAX_ATTEMPTS", 10, strconv.Atoi, 1),
		NamingRetryDelay:  envOr("BEAVER_NAMING_RETRY_DELAY", time.Duration(0), time.ParseDuration, 0),
	}
}

func envOr[T int | time.Duration](name string, def T, parse func(string) (T, error), floor T) T {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil || v < floor {
		return def
	}
	return v
}
