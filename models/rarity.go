package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ValidRarities lists the card rarities a room may wager on.
var ValidRarities = []string{
	"common",
	"uncommon",
	"rare",
	"rare_holo",
	"rare_ultra",
	"promo",
	"rare_holo_gx",
	"rare_break",
	"rare_holo_ex",
	"rare_rainbow",
	"rare_shiny",
	"classic_collection",
	"rare_secret",
	"double_rare",
	"illustration_rare",
}

// Card-game suffixes that are printed in capitals.
var upperRarityWords = map[string]bool{
	"gx":    true,
	"ex":    true,
	"break": true,
}

func IsValidRarity(rarity string) bool {
	for _, r := range ValidRarities {
		if r == rarity {
			return true
		}
	}
	return false
}

// RarityDisplayName turns "rare_holo_gx" into "Rare Holo GX".
func RarityDisplayName(rarity string) string {
	title := cases.Title(language.English)
	words := strings.Split(rarity, "_")
	for i, w := range words {
		if upperRarityWords[w] {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = title.String(w)
	}
	return strings.Join(words, " ")
}
