package app

type Reason struct {
	Code    string
	Message string
}

func (r Reason) ReasonCode() string {
	return r.Code
}

func NewReason(c, m string) Reason {
	return Reason{Code: c, Message: m}
}

var (
	// 任务校验拒绝
	ReasonNoWorker         = NewReason("NO_WORKER", "worker does not exist")
	ReasonBlockedPath      = NewReason("BLOCKED_PATH", "cannot walk this way")
	ReasonCapacityExceeded = NewReason("CAPACITY_EXCEEDED", "building is full")
	ReasonNoBuilding       = NewReason("NO_BUILDING", "no building found")
	ReasonUnknownJob       = NewReason("UNKNOWN_JOB", "unknown job at position")
	ReasonNotEnoughSupply  = NewReason("NOT_ENOUGH_SUPPLY", "not enough forest supply")
	ReasonNotEnoughMana    = NewReason("NOT_ENOUGH_MANA", "not enough mana")
	ReasonCooldown         = NewReason("COOLDOWN", "cooldown not ready")
	ReasonNoAbility        = NewReason("NO_ABILITY", "worker does not have this ability")
	ReasonNoSuchHobo       = NewReason("NO_SUCH_HOBO", "no such hobo id")
	ReasonNoTarget         = NewReason("NO_TARGET", "ability must have a target")
	ReasonNoReward         = NewReason("NO_REWARD", "no reward to collect")
	ReasonCannotInterrupt  = NewReason("CANNOT_INTERRUPT", "cannot interrupt current task")

	// 购买拒绝
	ReasonNoSpace        = NewReason("NO_SPACE", "no space for building")
	ReasonNotPurchasable = NewReason("NOT_PURCHASABLE", "building cannot be bought")
	ReasonUnknownType    = NewReason("UNKNOWN_TYPE", "unknown building type")
)
