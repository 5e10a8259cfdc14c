package models

type Side string
type Action string
type OutcomeKind string

const (
	SideAsk Side = "ask" // resting sell
	SideBid Side = "bid" // resting buy

	ActionBuy  Action = "buy"
	ActionSell Action = "sell"

	OutcomeMatched OutcomeKind = "matched"
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
)

func (s Side) Valid() bool {
	return s == SideAsk || s == SideBid
}

// OpposingSide is the side an incoming action matches against.
func (a Action) OpposingSide() Side {
	if a == ActionBuy {
		return SideAsk
	}
	return SideBid
}

// OwnSide is the side an unmatched action rests on.
func (a Action) OwnSide() Side {
	if a == ActionBuy {
		return SideBid
	}
	return SideAsk
}
