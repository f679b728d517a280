package render

import (
	"time"

	"github.com/LucasPickering/slumber/internal/chain"
)

// parseTriggerArg parses the trigger= argument accepted by the response()
// and response_header() builtins: "never", "no_history", "always", or a
// duration string (time.ParseDuration) meaning Expire(duration).
func parseTriggerArg(s string) (chain.Trigger, error) {
	switch s {
	case "", "never":
		return chain.Trigger{Kind: chain.TriggerNever}, nil
	case "no_history":
		return chain.Trigger{Kind: chain.TriggerNoHistory}, nil
	case "always":
		return chain.Trigger{Kind: chain.TriggerAlways}, nil
	default:
		d, err := time.ParseDuration(s)
		if err != nil {
			return chain.Trigger{}, &ErrArgument{Function: "trigger", Message: "expected never, no_history, always, or a duration: " + err.Error()}
		}
		return chain.Trigger{Kind: chain.TriggerExpire, Expire: d}, nil
	}
}
