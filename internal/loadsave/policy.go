package loadsave

import "fmt"

// CachePolicy decides where Obtain gets data from. Whether the result is
// written back is a separate choice.
type CachePolicy int

const (
	UseCacheIfPresent CachePolicy = iota
	ForceRebuild
)

func (p CachePolicy) String() string {
	switch p {
	case UseCacheIfPresent:
		return "use-cache"
	case ForceRebuild:
		return "rebuild"
	default:
		return fmt.Sprintf("CachePolicy(%d)", int(p))
	}
}

// Policy maps the reload flag onto a CachePolicy.
func Policy(reload bool) CachePolicy {
	if reload {
		return ForceRebuild
	}
	return UseCacheIfPresent
}

// State is the terminal state of one Obtain call.
type State int

const (
	LoadedFromCache State = iota
	Saved
	StitchedUnsaved
)

func (s State) String() string {
	switch s {
	case LoadedFromCache:
		return "loaded from cache"
	case Saved:
		return "extracted and saved"
	case StitchedUnsaved:
		return "extracted (not saved)"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
