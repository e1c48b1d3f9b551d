package core

// Action is what a rule asks the harness to do at the close of a bar
type Action int

const (
	// Hold keeps the current position unchanged
	Hold Action = iota
	// Enter opens a long position if none is open
	Enter
	// Exit closes the open position if one exists
	Exit
)

// Rule is the executable unit generated from a StrategySpec.
// Implementations must be deterministic: the same dataframe and parameters
// always produce the same action. The harness calls OnBar once per candle with
// a dataframe that ends at that candle, so a rule can never observe the future.
type Rule interface {
	// Name identifies the rule, matching its spec name
	Name() string
	// WarmupPeriod is the number of bars the rule needs before it can
	// produce meaningful actions; the harness holds until it has elapsed
	WarmupPeriod(params Params) int
	// OnBar decides the action at the close of the last bar in the dataframe
	OnBar(df *Dataframe, params Params) Action
}
