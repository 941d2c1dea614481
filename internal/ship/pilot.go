package ship

import (
	"strings"

	"github.com/annel0/voxel-ships/internal/lattice"
)

const (
	LinearThrottleMax  = 100
	LinearThrottleMin  = -25
	LinearThrottleStep = 2
	AngularThrottleMax = 1
	AngularThrottleMin = -1
)

// Throttle положение рукояток управления
type Throttle struct {
	Linear  int
	Angular int
}

// Clamp ограничивает значения допустимыми диапазонами
func (t *Throttle) Clamp() {
	t.Linear = max(LinearThrottleMin, min(LinearThrottleMax, t.Linear))
	t.Angular = max(AngularThrottleMin, min(AngularThrottleMax, t.Angular))
}

// PilotAction действие пилота
type PilotAction uint8

const (
	PilotForward PilotAction = iota
	PilotBackward
	PilotLeft
	PilotRight
	PilotThrottleUp
	PilotThrottleDown
)

// pilotActionBehavior применение и сброс действия
type pilotActionBehavior struct {
	name  string
	apply func(t *Throttle)
	reset func(t *Throttle)
}

var pilotActionTable = [...]pilotActionBehavior{
	PilotForward: {
		name:  "forward",
		apply: func(t *Throttle) { t.Linear = 1 },
		reset: func(t *Throttle) { t.Linear = 0 },
	},
	PilotBackward: {
		name:  "backward",
		apply: func(t *Throttle) { t.Linear = -1 },
		reset: func(t *Throttle) { t.Linear = 0 },
	},
	PilotLeft: {
		name:  "left",
		apply: func(t *Throttle) { t.Angular = 1 },
		reset: func(t *Throttle) { t.Angular = 0 },
	},
	PilotRight: {
		name:  "right",
		apply: func(t *Throttle) { t.Angular = -1 },
		reset: func(t *Throttle) { t.Angular = 0 },
	},
	PilotThrottleUp: {
		name:  "throttle_up",
		apply: func(t *Throttle) { t.Linear += LinearThrottleStep },
	},
	PilotThrottleDown: {
		name:  "throttle_down",
		apply: func(t *Throttle) { t.Linear -= LinearThrottleStep },
	},
}

// String имя действия
func (a PilotAction) String() string {
	if int(a) >= len(pilotActionTable) {
		return "unknown"
	}
	return pilotActionTable[a].name
}

// PilotActions битовая маска активных действий, бит i - действие i
type PilotActions uint32

// NewPilotActions собирает маску из списка действий
func NewPilotActions(actions ...PilotAction) PilotActions {
	var m PilotActions
	for _, a := range actions {
		m = m.With(a)
	}
	return m
}

// Has проверяет, активно ли действие
func (m PilotActions) Has(a PilotAction) bool {
	return (m>>a)&1 == 1
}

// With добавляет действие
func (m PilotActions) With(a PilotAction) PilotActions {
	return m | 1<<a
}

// Without убирает действие
func (m PilotActions) Without(a PilotAction) PilotActions {
	return m &^ (1 << a)
}

// String перечисляет активные действия
func (m PilotActions) String() string {
	names := make([]string, 0)
	for a := range pilotActionTable {
		if m.Has(PilotAction(a)) {
			names = append(names, pilotActionTable[a].name)
		}
	}
	return strings.Join(names, "|")
}

// ResetPilotActions сбрасывает действия, которые были активны в old и отпущены в current
func ResetPilotActions(t *Throttle, current, old PilotActions) {
	for a, b := range pilotActionTable {
		if b.reset == nil {
			continue
		}
		if old.Has(PilotAction(a)) && !current.Has(PilotAction(a)) {
			b.reset(t)
		}
	}
}

// ApplyPilotActions применяет все активные действия
func ApplyPilotActions(t *Throttle, current PilotActions) {
	for a, b := range pilotActionTable {
		if current.Has(PilotAction(a)) {
			b.apply(t)
		}
	}
}

// PilotCommand изменение управления, которое хост может переслать другой стороне
type PilotCommand struct {
	ShipID      string
	Actions     PilotActions
	ForwardSide lattice.Side
	Throttle    Throttle
}
