package compose

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/prometheus/common/model"
)

// UpOptions controls `docker compose up`. Containers always start in the
// background. The zero value also rebuilds images as needed, so setting one
// field keeps the others at their defaults.
type UpOptions struct {
	// SkipBuild starts from the images already present
	SkipBuild bool `json:"skipBuild,omitempty"`
	// Wait blocks until services are running/healthy
	Wait bool `json:"wait,omitempty"`
	// RemoveOrphans removes containers for services not in the manifest
	RemoveOrphans bool `json:"removeOrphans,omitempty"`
}

// DownOptions controls `docker compose down`. The zero value removes
// containers, their volumes and orphans.
type DownOptions struct {
	// KeepVolumes leaves named and anonymous volumes in place
	KeepVolumes bool `json:"keepVolumes,omitempty"`
	// KeepOrphans leaves containers for services not in the manifest
	KeepOrphans bool `json:"keepOrphans,omitempty"`
	// Timeout is the shutdown timeout, zero keeps the compose default
	Timeout Duration `json:"timeout,omitempty"`
}

// Duration is read as a duration string ("30s", "2m") or a number of seconds
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(model.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	switch v := value.(type) {
	case float64:
		if v < 0 {
			return fmt.Errorf("invalid duration %s: negative", data)
		}
		*d = Duration(v * float64(time.Second))
	case string:
		parsed, err := model.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
	return nil
}

func (o UpOptions) args() []string {
	args := []string{"up", "--detach"}
	if !o.SkipBuild {
		args = append(args, "--build")
	}
	if o.Wait {
		args = append(args, "--wait")
	}
	if o.RemoveOrphans {
		args = append(args, "--remove-orphans")
	}
	return args
}

func (o DownOptions) args() []string {
	args := []string{"down"}
	if !o.KeepVolumes {
		args = append(args, "--volumes")
	}
	if !o.KeepOrphans {
		args = append(args, "--remove-orphans")
	}
	if o.Timeout > 0 {
		seconds := math.Ceil(time.Duration(o.Timeout).Seconds())
		args = append(args, "--timeout", strconv.Itoa(int(seconds)))
	}
	return args
}
