package vec

import "sort"

// Set множество координат блоков
type Set map[Vec3]struct{}

// NewSet создаёт множество из списка координат
func NewSet(coords ...Vec3) Set {
	s := make(Set, len(coords))
	for _, c := range coords {
		s[c] = struct{}{}
	}
	return s
}

// Add добавляет координату
func (s Set) Add(c Vec3) {
	s[c] = struct{}{}
}

// Contains проверяет наличие координаты
func (s Set) Contains(c Vec3) bool {
	_, ok := s[c]
	return ok
}

// Sorted возвращает координаты в порядке Less
func (s Set) Sorted() []Vec3 {
	out := make([]Vec3, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	SortCoords(out)
	return out
}

// Diff возвращает координаты из s, которых нет в other, в порядке Less
func (s Set) Diff(other Set) []Vec3 {
	out := make([]Vec3, 0)
	for c := range s {
		if !other.Contains(c) {
			out = append(out, c)
		}
	}
	SortCoords(out)
	return out
}

// SortCoords сортирует координаты на месте
func SortCoords(coords []Vec3) {
	sort.Slice(coords, func(i, j int) bool {
		return coords[i].Less(coords[j])
	})
}
