package types

type TradeSide string

type TradeStatus string

type ChallengeStatus string

type PlanTier string

type EventType string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

const (
	TradeStatusOpen   TradeStatus = "open"
	TradeStatusClosed TradeStatus = "closed"
)

const (
	ChallengeStatusActive ChallengeStatus = "active"
	ChallengeStatusPassed ChallengeStatus = "passed"
	ChallengeStatusFailed ChallengeStatus = "failed"
)

const (
	PlanTierStarter PlanTier = "starter"
	PlanTierPro     PlanTier = "pro"
	PlanTierElite   PlanTier = "elite"
)

const (
	EventTypeTradeSettled    EventType = "trade_settled"
	EventTypeChallengeStatus EventType = "challenge_status"
	EventTypeDailyReset      EventType = "daily_reset"
	EventTypeQuote           EventType = "quote"
)

func (s TradeSide) Valid() bool {
	return s == TradeSideBuy || s == TradeSideSell
}

// Terminal reports whether no further trades or evaluations may change the account.
func (s ChallengeStatus) Terminal() bool {
	return s == ChallengeStatusPassed || s == ChallengeStatusFailed
}
