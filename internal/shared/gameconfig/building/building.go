package building

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"Paddlers/internal/town/entity/domain"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	indexFile  = "Building.json"
	schemaFile = "Building.schema.json"
)

// Stats 单种建筑的静态数值。
type Stats struct {
	Type            domain.BuildingType           `json:"type"`
	Name            string                        `json:"name"`
	Cost            map[domain.ResourceType]int64 `json:"cost"`
	Range           *float64                      `json:"range"`
	AttackPower     *int                          `json:"attack_power"`
	AttacksPerCycle *int                          `json:"attacks_per_cycle"`
	Capacity        int                           `json:"capacity"`
	Walkable        bool                          `json:"walkable"`
	RewardExp       *int                          `json:"reward_exp"`
	Purchasable     *bool                         `json:"purchasable"`
}

func (s Stats) CanPurchase() bool {
	return s.Purchasable == nil || *s.Purchasable
}

type buildingConf struct {
	Title string  `json:"title"`
	List  []Stats `json:"list"`
	byTyp map[domain.BuildingType]Stats
}

var (
	conf     buildingConf
	loadOnce sync.Once
	loadErr  error
)

// Load 读取并按 schema 校验建筑表，只执行一次；失败时 panic，与其它配置模块一致。
func Load() {
	loadOnce.Do(func() {
		_, file, _, ok := runtime.Caller(0)
		if !ok {
			loadErr = fmt.Errorf("load Building config failed: runtime.Caller(0) error")
			return
		}
		loadErr = conf.load(filepath.Dir(file))
	})
	if loadErr != nil {
		panic(loadErr)
	}
}

func (c *buildingConf) load(baseDir string) error {
	raw, err := os.ReadFile(filepath.Join(baseDir, indexFile))
	if err != nil {
		return fmt.Errorf("load Building config failed: %w", err)
	}

	schema, err := jsonschema.Compile(filepath.Join(baseDir, schemaFile))
	if err != nil {
		return fmt.Errorf("load Building schema failed: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("load Building config failed: unmarshal: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("load Building config failed: %w", err)
	}

	if err := json.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("load Building config failed: unmarshal: %w", err)
	}
	c.byTyp = make(map[domain.BuildingType]Stats, len(c.List))
	for _, s := range c.List {
		if _, dup := c.byTyp[s.Type]; dup {
			return fmt.Errorf("load Building config failed: duplicate type=%s", s.Type)
		}
		c.byTyp[s.Type] = s
	}
	for _, t := range domain.AllBuildingTypes {
		if _, ok := c.byTyp[t]; !ok {
			return fmt.Errorf("load Building config failed: missing type=%s", t)
		}
	}
	return nil
}

// Get 查询建筑数值，首次调用时加载。
func Get(t domain.BuildingType) (Stats, bool) {
	Load()
	s, ok := conf.byTyp[t]
	return s, ok
}

// Capacity 建筑可同时容纳的工人数。
func Capacity(t domain.BuildingType) int {
	s, _ := Get(t)
	return s.Capacity
}

func Walkable(t domain.BuildingType) bool {
	s, _ := Get(t)
	return s.Walkable
}
