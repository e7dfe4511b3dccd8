package messages

// Reply actor 请求的统一应答，Err 为业务或系统错误（errx）。
type Reply struct {
	Value any
	Err   error
}

func OK(v any) *Reply {
	return &Reply{Value: v}
}

func Fail(err error) *Reply {
	return &Reply{Err: err}
}

// VillageMessage 路由到单个村庄 actor 的消息。
type VillageMessage interface {
	VillageID() int64
	// PlayerID 发起指令的玩家，0 表示服务内部触发，不做归属校验
	PlayerID() int64
}

type VillageBaseMessage struct {
	VillageId int64
	PlayerId  int64
}

func (m VillageBaseMessage) VillageID() int64 {
	return m.VillageId
}

func (m VillageBaseMessage) PlayerID() int64 {
	return m.PlayerId
}

// ShardMessage 路由到某个调度分片的消息。
type ShardMessage interface {
	ShardIndex() int
}

type ShardBaseMessage struct {
	Shard int
}

func (m ShardBaseMessage) ShardIndex() int {
	return m.Shard
}

// ShardOf 村庄所属的调度分片。
func ShardOf(villageID int64, shards int) int {
	if shards <= 1 {
		return 0
	}
	s := villageID % int64(shards)
	if s < 0 {
		s += int64(shards)
	}
	return int(s)
}
