package domain

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Card карта колоды
type Card struct {
	ID    string
	Name  string
	Major bool
	Suit  string
}

// ImageKey ключ картинки карты в хранилище
func (c Card) ImageKey() string {
	return "cards/" + c.ID + ".png"
}

var majorArcana = []string{
	"The Fool", "The Magician", "The High Priestess", "The Empress", "The Emperor",
	"The Hierophant", "The Lovers", "The Chariot", "Strength", "The Hermit",
	"Wheel of Fortune", "Justice", "The Hanged Man", "Death", "Temperance",
	"The Devil", "The Tower", "The Star", "The Moon", "The Sun",
	"Judgement", "The World",
}

var (
	suits     = []string{"wands", "cups", "swords", "pentacles"}
	suitNames = map[string]string{"wands": "Wands", "cups": "Cups", "swords": "Swords", "pentacles": "Pentacles"}
	pipNames  = []string{"Ace", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten"}
	courts    = []string{"page", "knight", "queen", "king"}
	courtName = map[string]string{"page": "Page", "knight": "Knight", "queen": "Queen", "king": "King"}
)

// deck полная колода из 78 карт, строится один раз
var deck = buildDeck()

func buildDeck() []Card {
	cards := make([]Card, 0, 78)
	for i, name := range majorArcana {
		cards = append(cards, Card{ID: "major_" + strconv.Itoa(i), Name: name, Major: true})
	}
	for _, suit := range suits {
		for i, pip := range pipNames {
			cards = append(cards, Card{
				ID:   fmt.Sprintf("%s_%d", suit, i+1),
				Name: fmt.Sprintf("%s of %s", pip, suitNames[suit]),
				Suit: suit,
			})
		}
		for _, court := range courts {
			cards = append(cards, Card{
				ID:   suit + "_" + court,
				Name: fmt.Sprintf("%s of %s", courtName[court], suitNames[suit]),
				Suit: suit,
			})
		}
	}
	return cards
}

// Deck копия колоды
func Deck() []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	return out
}

// CardByID поиск карты по идентификатору
func CardByID(id string) (Card, bool) {
	for _, c := range deck {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// DrawCards тянет n разных карт со случайной ориентацией и проставляет позиции расклада
func DrawCards(spread SpreadType, rnd *rand.Rand) CardSet {
	positions := spread.Positions()
	perm := rnd.Perm(len(deck))

	drawn := make(CardSet, 0, len(positions))
	for i, position := range positions {
		card := deck[perm[i]]
		drawn = append(drawn, CardDraw{
			ID:         card.ID,
			Name:       card.Name,
			IsReversed: rnd.IntN(2) == 1,
			Position:   position,
		})
	}
	return drawn
}
