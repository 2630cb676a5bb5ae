package model

// Island groups an ordered set of stories behind one map location.
// Catalog rows are immutable at runtime; theming is opaque to the backend.
type Island struct {
	UUIDBase
	Slug        string  `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Name        string  `gorm:"size:100;not null" json:"name"`
	StoryTitle  string  `gorm:"size:150" json:"storyTitle"`
	UnlockOrder int     `gorm:"index;not null" json:"unlockOrder"`
	Theme       string  `gorm:"type:json" json:"theme,omitempty"` // presentation metadata, passed through untouched
	Stories     []Story `gorm:"foreignKey:IslandID" json:"stories,omitempty"`
}

func (Island) TableName() string {
	return "islands"
}
