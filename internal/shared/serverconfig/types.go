package serverconfig

import "time"

type Config struct {
	DB         DBConfig         `yaml:"db" mapstructure:"db"`
	MongoDB    MongoDBConfig    `yaml:"mongodb" mapstructure:"mongodb"`
	HTTPServer HTTPServerConfig `yaml:"httpserver" mapstructure:"httpserver"`
	GRPC       GRPCConfig       `yaml:"grpc" mapstructure:"grpc"`
	WS         WSConfig         `yaml:"ws" mapstructure:"ws"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Sim        SimConfig        `yaml:"sim" mapstructure:"sim"`
	JWTSecret  string           `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// DBConfig Driver 为 mysql 时使用 Host/Port 等字段，为 sqlite 时使用 Path。
type DBConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver" validate:"oneof=mysql sqlite"`
	Host     string `yaml:"host" mapstructure:"host" validate:"required_if=Driver mysql"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname" validate:"required_if=Driver mysql"`
	Charset  string `yaml:"charset" mapstructure:"charset"`
	Path     string `yaml:"path" mapstructure:"path" validate:"required_if=Driver sqlite"`
	MaxIdle  int    `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn  int    `yaml:"max_conn" mapstructure:"max_conn"`
	// SlowThreshold 慢查询阈值
	SlowThreshold time.Duration `yaml:"slow_threshold" mapstructure:"slow_threshold"`
}

// MongoDBConfig URI 为空时不启用战报归档。
type MongoDBConfig struct {
	URI            string        `yaml:"uri" mapstructure:"uri"`
	Database       string        `yaml:"database" mapstructure:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

type HTTPServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	// RatePerSecond 每个玩家的指令限流，0 表示不限
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second" validate:"gte=0"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst" validate:"gte=0"`
}

type GRPCConfig struct {
	Address string `yaml:"address" mapstructure:"address"`
}

type WSConfig struct {
	NeedSecret bool `yaml:"need_secret" mapstructure:"need_secret"`
	// OutBuffer 每个连接的推送缓冲
	OutBuffer int `yaml:"out_buffer" mapstructure:"out_buffer" validate:"gte=0"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"`
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

// SimConfig 模拟循环的节奏参数。
type SimConfig struct {
	Shards              int           `yaml:"shards" mapstructure:"shards" validate:"gte=1"`
	PollInterval        time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"gt=0"`
	EconomyInterval     time.Duration `yaml:"economy_interval" mapstructure:"economy_interval" validate:"gt=0"`
	CombatInterval      time.Duration `yaml:"combat_interval" mapstructure:"combat_interval" validate:"gt=0"`
	AttackSpawnInterval time.Duration `yaml:"attack_spawn_interval" mapstructure:"attack_spawn_interval"`
	AttackTravel        time.Duration `yaml:"attack_travel" mapstructure:"attack_travel"`
	AskTimeout          time.Duration `yaml:"ask_timeout" mapstructure:"ask_timeout" validate:"gt=0"`
	ArchiveFlush        time.Duration `yaml:"archive_flush" mapstructure:"archive_flush"`
	TaxTimezone         string        `yaml:"tax_timezone" mapstructure:"tax_timezone"`
	// NodeID snowflake 节点号，多实例部署时各不相同
	NodeID int64 `yaml:"node_id" mapstructure:"node_id" validate:"gte=0,lte=255"`
}

// Defaults 配置缺省值，Load 之前写入。
func Defaults() Config {
	return Config{
		DB: DBConfig{
			Driver:        "sqlite",
			Path:          "paddlers.db",
			Charset:       "utf8mb4",
			MaxIdle:       4,
			MaxConn:       16,
			SlowThreshold: 200 * time.Millisecond,
		},
		MongoDB:    MongoDBConfig{Database: "paddlers", ConnectTimeout: 3 * time.Second},
		HTTPServer: HTTPServerConfig{Host: "0.0.0.0", Port: 8080, RatePerSecond: 5, RateBurst: 10},
		WS:         WSConfig{OutBuffer: 256},
		Log:        LogConfig{Level: "info", MaxSize: 64, MaxBackups: 5, MaxAge: 7},
		Sim: SimConfig{
			Shards:          1,
			PollInterval:    100 * time.Millisecond,
			EconomyInterval: 5 * time.Second,
			CombatInterval:  time.Second,
			AttackTravel:    15 * time.Second,
			AskTimeout:      3 * time.Second,
			ArchiveFlush:    2 * time.Second,
			TaxTimezone:     "UTC",
		},
	}
}
