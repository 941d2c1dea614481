package material

import (
	"fmt"
	"os"
	"sync"

	"github.com/annel0/voxel-ships/internal/vec"
	"gopkg.in/yaml.v3"
)

// Properties физические свойства материала блока
type Properties struct {
	ID         BlockID `yaml:"id"`
	Name       string  `yaml:"name"`
	Mass       float64 `yaml:"mass"`       // Масса блока, кг
	Watertight bool    `yaml:"watertight"` // Вытесняет воду
	Separator  bool    `yaml:"separator"`  // Может касаться корпуса при спуске на мир
	Fluid      bool    `yaml:"fluid"`      // Вода или воздух, можно вытеснить корпусом
	Thrust     float64 `yaml:"thrust"`     // Тяга движителя, Н
}

// BlockAPI доступ тикаемого блока к решётке, которой он принадлежит
type BlockAPI interface {
	BlockID(pos vec.Vec3) BlockID
	SetBlockID(pos vec.Vec3, id BlockID)
}

// Ticker поведение блока, которое обновляется каждый тик корабля
type Ticker interface {
	TickUpdate(api BlockAPI, pos vec.Vec3)
}

// Table таблица свойств материалов, ключ - BlockID
type Table struct {
	mu      sync.RWMutex
	props   map[BlockID]Properties
	tickers map[BlockID]Ticker
}

type tableFile struct {
	Materials []Properties `yaml:"materials"`
}

// NewTable создаёт пустую таблицу
func NewTable() *Table {
	return &Table{
		props:   make(map[BlockID]Properties),
		tickers: make(map[BlockID]Ticker),
	}
}

// DefaultTable возвращает таблицу со встроенными материалами
func DefaultTable() *Table {
	t := NewTable()
	for _, p := range []Properties{
		{ID: AirBlockID, Name: "air", Separator: true, Fluid: true},
		{ID: WaterBlockID, Name: "water", Mass: 1000, Separator: true, Fluid: true},
		{ID: AirWallBlockID, Name: "air_wall", Separator: true, Fluid: true},
		{ID: StoneBlockID, Name: "stone", Mass: 2500, Watertight: true, Separator: true},
		{ID: GrassBlockID, Name: "grass", Mass: 1500, Watertight: true, Separator: true},
		{ID: DirtBlockID, Name: "dirt", Mass: 1500, Watertight: true, Separator: true},
		{ID: SandBlockID, Name: "sand", Mass: 1600, Watertight: true, Separator: true},
		{ID: PlanksBlockID, Name: "planks", Mass: 400, Watertight: true},
		{ID: LogBlockID, Name: "log", Mass: 600, Watertight: true},
		{ID: WoolBlockID, Name: "wool", Mass: 100, Thrust: 50},
		{ID: GlassBlockID, Name: "glass", Mass: 2500, Watertight: true},
		{ID: IronBlockID, Name: "iron", Mass: 7800, Watertight: true},
		{ID: HelmBlockID, Name: "helm", Mass: 400},
	} {
		t.Register(p)
	}
	return t
}

// LoadTable читает таблицу материалов из YAML файла поверх встроенной.
// Если path == "", возвращается встроенная таблица.
func LoadTable(path string) (*Table, error) {
	t := DefaultTable()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read material table: %w", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse material table %s: %w", path, err)
	}

	for _, p := range file.Materials {
		if p.Mass < 0 {
			return nil, fmt.Errorf("material %d (%s): negative mass %.2f", p.ID, p.Name, p.Mass)
		}
		t.Register(p)
	}
	return t, nil
}

// Register добавляет или заменяет свойства материала
func (t *Table) Register(p Properties) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.props[p.ID] = p
}

// RegisterTicker назначает поведение для блоков с указанным ID
func (t *Table) RegisterTicker(id BlockID, ticker Ticker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tickers[id] = ticker
}

// Get возвращает свойства материала
func (t *Table) Get(id BlockID) (Properties, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.props[id]
	return p, ok
}

// Ticker возвращает поведение блока, если оно зарегистрировано
func (t *Table) Ticker(id BlockID) (Ticker, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tk, ok := t.tickers[id]
	return tk, ok
}

// IsWatertight сообщает, вытесняет ли блок воду. Неизвестные блоки воду не держат.
func (t *Table) IsWatertight(id BlockID) bool {
	p, _ := t.Get(id)
	return p.Watertight
}

// Mass возвращает массу блока. Для неизвестных блоков 0.
func (t *Table) Mass(id BlockID) float64 {
	p, _ := t.Get(id)
	return p.Mass
}

// IsSeparator сообщает, может ли блок касаться корпуса при спуске
func (t *Table) IsSeparator(id BlockID) bool {
	p, _ := t.Get(id)
	return p.Separator
}

// IsFluid сообщает, является ли блок водой или воздухом
func (t *Table) IsFluid(id BlockID) bool {
	p, _ := t.Get(id)
	return p.Fluid
}

// WaterBlockMass масса одного блока воды
func (t *Table) WaterBlockMass() float64 {
	return t.Mass(WaterBlockID)
}

// Thrust тяга, которую блок даёт кораблю
func (t *Table) Thrust(id BlockID) float64 {
	p, _ := t.Get(id)
	return p.Thrust
}
