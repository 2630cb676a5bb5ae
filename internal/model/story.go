package model

type StoryType string

const (
	StoryStatic      StoryType = "STATIC"      // flipbook narrative, no questions
	StoryInteractive StoryType = "INTERACTIVE" // story pages interleaved with questions
)

// Story is one playable unit inside an island. Order establishes the
// sequential-unlock rule: story N+1 stays locked until story N has a
// finished attempt.
type Story struct {
	UUIDBase
	IslandID  string     `gorm:"size:36;index;not null" json:"islandId"`
	Title     string     `gorm:"size:150;not null" json:"title"`
	Subtitle  string     `gorm:"size:200" json:"subtitle"`
	StoryType StoryType  `gorm:"type:varchar(20);not null" json:"storyType"`
	Order     int        `gorm:"column:sort_order;index;not null" json:"order"`
	Slides    []Slide    `gorm:"foreignKey:StoryID" json:"slides,omitempty"`
	Questions []Question `gorm:"foreignKey:StoryID" json:"questions,omitempty"`
}

func (Story) TableName() string {
	return "stories"
}

// Slide is one flipbook page of a static story.
type Slide struct {
	UUIDBase
	StoryID    string `gorm:"size:36;index;not null" json:"storyId"`
	PageNumber int    `gorm:"not null" json:"pageNumber"`
	Content    string `gorm:"type:text" json:"content"`
	ImageURL   string `gorm:"size:255" json:"imageUrl"`
}

func (Slide) TableName() string {
	return "slides"
}
