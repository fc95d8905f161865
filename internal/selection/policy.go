// Package selection выбирает следующий и предыдущий трек каталога
package selection

import (
	"math/rand/v2"

	"github.com/samber/lo"

	"github.com/hazadus/go-melody/internal/catalog"
)

// Rand источник случайных индексов для режима перемешивания
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand использует глобальный генератор math/rand/v2
var DefaultRand Rand = globalRand{}

// Next возвращает трек, следующий за currentID. В режиме перемешивания
// выбирается любой трек каталога, в том числе текущий. Если текущий трек
// не найден, следующим считается первый. Для пустого каталога ok = false.
func Next(tracks []catalog.Track, currentID string, shuffle bool, rng Rand) (catalog.Track, bool) {
	if len(tracks) == 0 {
		return catalog.Track{}, false
	}

	if shuffle {
		if rng == nil {
			rng = DefaultRand
		}
		return tracks[rng.IntN(len(tracks))], true
	}

	index := indexOf(tracks, currentID)
	return tracks[(index+1)%len(tracks)], true
}

// Previous возвращает трек перед currentID. Перемешивание на движение назад
// не влияет. Если текущий трек первый или не найден, возвращается последний.
func Previous(tracks []catalog.Track, currentID string) (catalog.Track, bool) {
	if len(tracks) == 0 {
		return catalog.Track{}, false
	}

	index := indexOf(tracks, currentID)
	if index <= 0 {
		return tracks[len(tracks)-1], true
	}
	return tracks[index-1], true
}

// indexOf возвращает позицию трека или -1
func indexOf(tracks []catalog.Track, id string) int {
	_, index, _ := lo.FindIndexOf(tracks, func(t catalog.Track) bool {
		return id != "" && t.ID == id
	})
	return index
}
