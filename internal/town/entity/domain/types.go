package domain

import "fmt"

// 村庄地图尺寸固定；进攻路线（lane）是 y = TownLaneY 的一整行。
const (
	TownX           = 9
	TownY           = 7
	TownLaneY       = 3
	TownRestingX    = 4
	LaneLengthTiles = TownX
)

type TileIndex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (t TileIndex) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}

func (t TileIndex) InGrid() bool {
	return t.X >= 0 && t.X < TownX && t.Y >= 0 && t.Y < TownY
}

// Dist2 欧氏距离的平方。
func (t TileIndex) Dist2(o TileIndex) int {
	dx, dy := t.X-o.X, t.Y-o.Y
	return dx*dx + dy*dy
}

type BuildingType string

const (
	BlueFlowers     BuildingType = "blue_flowers"
	RedFlowers      BuildingType = "red_flowers"
	Tree            BuildingType = "tree"
	BundlingStation BuildingType = "bundling_station"
	SawMill         BuildingType = "saw_mill"
	PresentA        BuildingType = "present_a"
	PresentB        BuildingType = "present_b"
	Temple          BuildingType = "temple"
	SingleNest      BuildingType = "single_nest"
	TripleNest      BuildingType = "triple_nest"
)

var AllBuildingTypes = []BuildingType{
	BlueFlowers, RedFlowers, Tree, BundlingStation, SawMill,
	PresentA, PresentB, Temple, SingleNest, TripleNest,
}

func (b BuildingType) Valid() bool {
	for _, t := range AllBuildingTypes {
		if t == b {
			return true
		}
	}
	return false
}

// JobTask 工人在该建筑里干的活；没有对应工作返回 Idle。
func (b BuildingType) JobTask() TaskType {
	switch b {
	case BundlingStation:
		return GatherSticks
	case SawMill:
		return ChopTree
	default:
		return Idle
	}
}

type TaskType string

const (
	Idle           TaskType = "idle"
	Walk           TaskType = "walk"
	Defend         TaskType = "defend"
	GatherSticks   TaskType = "gather_sticks"
	ChopTree       TaskType = "chop_tree"
	WelcomeAbility TaskType = "welcome_ability"
	CollectReward  TaskType = "collect_reward"
)

func (t TaskType) Valid() bool {
	switch t {
	case Idle, Walk, Defend, GatherSticks, ChopTree, WelcomeAbility, CollectReward:
		return true
	}
	return false
}

// RequiredForestSize 同时进行该任务需要占用的森林供给。
func (t TaskType) RequiredForestSize() int {
	switch t {
	case ChopTree:
		return 3
	case GatherSticks:
		return 1
	default:
		return 0
	}
}

// Ability 该任务对应的技能，没有返回 false。
func (t TaskType) Ability() (AbilityType, bool) {
	if t == WelcomeAbility {
		return Welcome, true
	}
	return "", false
}

type ResourceType string

const (
	Sticks   ResourceType = "sticks"
	Logs     ResourceType = "logs"
	Feathers ResourceType = "feathers"
)

var AllResourceTypes = []ResourceType{Sticks, Logs, Feathers}

func (r ResourceType) Valid() bool {
	return r == Sticks || r == Logs || r == Feathers
}

type HoboAttributeType string

const (
	AttrHealth HoboAttributeType = "health"
	AttrSpeed  HoboAttributeType = "speed"
)

type AbilityType string

const Welcome AbilityType = "welcome"
