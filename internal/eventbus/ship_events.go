package eventbus

// Типы событий жизненного цикла корабля
const (
	ShipLaunched   = "ShipLaunched"
	ShipSunk       = "ShipSunk"
	ShipDestroyed  = "ShipDestroyed"
	ShipUnlaunched = "ShipUnlaunched"
	ShipSaved      = "ShipSaved"
)

// ShipEvent полезная нагрузка событий корабля
type ShipEvent struct {
	ShipID   string     `json:"ship_id"`
	Position [3]float64 `json:"position"`
	Yaw      float64    `json:"yaw"`
	Blocks   int        `json:"blocks"`
	// Rotation число четвертей оборота при спуске на место
	Rotation int `json:"rotation,omitempty"`
	// Translation смещение решётки в мире при спуске на место
	Translation [3]int `json:"translation,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
