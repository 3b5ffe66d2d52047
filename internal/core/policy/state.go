package policy

// State is the lifecycle state of the analyzer as derived from the policy source.
type State int

const (
	StateNoConfigSource State = iota
	StateConfigError
	StateDisabled
	StateEnabled
)

func (s State) String() string {
	switch s {
	case StateNoConfigSource:
		return "no_config_source"
	case StateConfigError:
		return "config_error"
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// DeriveState computes the lifecycle state from the source flag, the last load
// error and the loaded policy. It panics when the source exists, no error was
// recorded, and yet no policy is available: that combination is a store defect.
func DeriveState(sourceExists bool, loadErr error, p *Policy) State {
	switch {
	case !sourceExists:
		return StateNoConfigSource
	case loadErr != nil:
		return StateConfigError
	case p == nil:
		panic("policy: inconsistent store state: source exists without error or policy")
	case !p.IsEnabled():
		return StateDisabled
	default:
		return StateEnabled
	}
}
