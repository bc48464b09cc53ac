package domain

// Signal is the discrete trade decision produced by the signal generator.
type Signal int

const (
	NoAction Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "NO_ACTION"
	}
}
