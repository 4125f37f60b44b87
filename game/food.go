// food.go implements food placement for the arena.

package game

import (
	"math/rand"
)

// Food is a consumable worth Points.
type Food struct {
	Position Point
	Points   int
}

// FoodSettings controls food spawning and what eating is worth.
type FoodSettings struct {
	MinimumFood int // Guaranteed minimum on board after every tick
	MaxFood     int // Hard cap on items; 0 means uncapped
	SpawnChance int // Percentage chance (0-100) to spawn one extra item each tick
	Points      int // Score awarded per item
	Growth      int // Segments added per item
}

// DefaultFoodSettings keeps one item on the board, allows up to five and rolls 10% per tick.
var DefaultFoodSettings = FoodSettings{MinimumFood: 1, MaxFood: 5, SpawnChance: 10, Points: 10, Growth: 1}

func (s FoodSettings) normalized() FoodSettings {
	if s.MinimumFood < 0 {
		s.MinimumFood = 0
	}
	if s.MaxFood < 0 {
		s.MaxFood = 0
	}
	if s.MaxFood > 0 && s.MinimumFood > s.MaxFood {
		s.MinimumFood = s.MaxFood
	}
	if s.SpawnChance < 0 {
		s.SpawnChance = 0
	}
	if s.SpawnChance > 100 {
		s.SpawnChance = 100
	}
	return s
}

func (s FoodSettings) full(n int) bool {
	return s.MaxFood > 0 && n >= s.MaxFood
}

// SpawnFood tops food up to MinimumFood and then rolls SpawnChance once for a
// single extra item, never exceeding MaxFood. Food is placed on cells that are
// neither occupied on board nor already holding food.
// If rng is nil, a deterministic source derived from turn is used.
func SpawnFood(board *Board, food []Food, rng *rand.Rand, settings FoodSettings, turn int32) []Food {
	settings = settings.normalized()
	if rng == nil {
		rng = deterministicRand(turn)
	}

	deficit := settings.MinimumFood - len(food)
	if deficit < 0 {
		deficit = 0
	}

	spawnExtra := settings.SpawnChance > 0 && rng.Intn(100) < settings.SpawnChance

	toSpawn := deficit
	if spawnExtra {
		toSpawn++
	}
	for range toSpawn {
		var ok bool
		food, ok = SpawnOne(board, food, rng, settings)
		if !ok {
			break
		}
	}
	return food
}

// SpawnOne places a single item if there is room and the cap allows it.
func SpawnOne(board *Board, food []Food, rng *rand.Rand, settings FoodSettings) ([]Food, bool) {
	settings = settings.normalized()
	if settings.full(len(food)) {
		return food, false
	}
	if rng == nil {
		rng = deterministicRand(int32(len(food)))
	}
	exclude := make(map[Point]struct{}, len(food))
	for _, f := range food {
		exclude[f.Position] = struct{}{}
	}
	p, ok := board.RandomEmpty(rng, exclude)
	if !ok {
		return food, false
	}
	return append(food, Food{Position: p, Points: settings.Points}), true
}

func deterministicRand(turn int32) *rand.Rand {
	seed := int64(deterministicU64Fast(uint64(turn), 0xF00D))
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}

// deterministicU64Fast is a simple deterministic hasher for reproducibility.
func deterministicU64Fast(a, b uint64) uint64 {
	// Variant of splitmix64
	x := a + b
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
