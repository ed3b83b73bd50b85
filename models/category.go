package models

import "gorm.io/gorm"

// Category is a role-playing archetype posts are filed under.
// Name and Value are immutable identifiers once seeded.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Value       string `gorm:"size:20;uniqueIndex;not null" json:"value"`
	Description string `gorm:"type:text" json:"description"`
}

// DefaultCategories is the fixed archetype list seeded at boot.
var DefaultCategories = []Category{
	{Name: "Tanks", Value: "tanks", Description: "Tank classes and roles"},
	{Name: "Heals", Value: "heals", Description: "Healer classes and roles"},
	{Name: "DD", Value: "dd", Description: "Damage dealer classes and roles"},
	{Name: "Traders", Value: "traders", Description: "Trading and economy"},
	{Name: "Guildmasters", Value: "guildmasters", Description: "Guild leadership and management"},
	{Name: "Questgivers", Value: "questgivers", Description: "Quest related discussions"},
	{Name: "Blacksmiths", Value: "blacksmiths", Description: "Blacksmithing and crafting"},
	{Name: "Tanners", Value: "tanners", Description: "Leatherworking and skinning"},
	{Name: "Potionmakers", Value: "potionmakers", Description: "Alchemy and potion making"},
	{Name: "Spellmasters", Value: "spellmasters", Description: "Spell casting and magic"},
}

// SeedCategories inserts missing default categories. Existing rows are left
// untouched so the seed is safe to run on every boot.
func SeedCategories(db *gorm.DB) error {
	for _, category := range DefaultCategories {
		var count int64
		if err := db.Model(&Category{}).Where("value = ?", category.Value).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&category).Error; err != nil {
			return err
		}
	}
	return nil
}
