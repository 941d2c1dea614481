package material

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	GrassBlockID                // 2
	WaterBlockID                // 3
	SandBlockID                 // 4
	DirtBlockID                 // 5

	// Строительные блоки корабля (начиная с 100)
	PlanksBlockID BlockID = 100 // Доски
	LogBlockID    BlockID = 101 // Бревно
	WoolBlockID   BlockID = 102 // Шерсть, не держит воду
	GlassBlockID  BlockID = 103 // Стекло
	IronBlockID   BlockID = 104 // Железный блок

	// Интерактивные блоки (начиная с 200)
	HelmBlockID BlockID = 200 // Штурвал

	// Специальные блоки (начиная с 1000)
	AirWallBlockID BlockID = 1000 // Заглушка на месте вытесненной воды
)
